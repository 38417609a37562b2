package chat

import (
	"context"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/usecase/guardrail"
)

type Pipeline interface {
	Run(ctx context.Context, req entity.Request) (*guardrail.Result, error)
}

// AuditRecorder persists processed messages. Optional.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, event entity.AuditEvent) error
}
