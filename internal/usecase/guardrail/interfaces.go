package guardrail

import (
	"context"

	"github.com/futig/guardrails-agent/internal/entity"
)

// VerdictGenerator performs one structured classification call
type VerdictGenerator interface {
	GenerateVerdict(ctx context.Context, agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error)
}

// TextGenerator performs one free-text generation call
type TextGenerator interface {
	GenerateText(ctx context.Context, agent entity.AgentConfig, req entity.Request) (string, error)
}

// LLMConnector is the generation boundary used by all stages
type LLMConnector interface {
	VerdictGenerator
	TextGenerator
}

// Stage is one step of the guarded flow
type Stage interface {
	Name() entity.StageName
	// State is the pipeline state while the stage runs
	State() entity.PipelineState
	Run(ctx context.Context, ex *Exchange) (entity.GuardrailOutcome, error)
}

// Exchange carries one request through the stages
type Exchange struct {
	Request  entity.Request
	Response *entity.Response
}
