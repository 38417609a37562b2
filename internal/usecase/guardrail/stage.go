package guardrail

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var errNoDraft = errors.New("no draft response to check")

// Guard vetoes a payload through one structured model call.
// It does no local scoring: the verdict is taken as is.
type Guard struct {
	name      entity.StageName
	state     entity.PipelineState
	agent     entity.AgentConfig
	refusal   string
	generator VerdictGenerator
	subject   func(ex *Exchange) (string, error)
}

// NewInputGuard checks the incoming user message
func NewInputGuard(generator VerdictGenerator, agent entity.AgentConfig, refusal string) *Guard {
	return &Guard{
		name:      entity.StageInputGuard,
		state:     entity.StateInputChecking,
		agent:     agent,
		refusal:   refusal,
		generator: generator,
		subject: func(ex *Exchange) (string, error) {
			return ex.Request.Text(), nil
		},
	}
}

// NewOutputGuard checks the draft produced by the responder
func NewOutputGuard(generator VerdictGenerator, agent entity.AgentConfig, refusal string) *Guard {
	return &Guard{
		name:      entity.StageOutputGuard,
		state:     entity.StateOutputChecking,
		agent:     agent,
		refusal:   refusal,
		generator: generator,
		subject: func(ex *Exchange) (string, error) {
			if ex.Response == nil {
				return "", errNoDraft
			}
			return ex.Response.Text, nil
		},
	}
}

func (g *Guard) Name() entity.StageName {
	return g.name
}

func (g *Guard) State() entity.PipelineState {
	return g.state
}

// Run returns Accepted(payload) or Rejected(rationale). A failed call is an
// error, never a rejection.
func (g *Guard) Run(ctx context.Context, ex *Exchange) (entity.GuardrailOutcome, error) {
	payload, err := g.subject(ex)
	if err != nil {
		return entity.GuardrailOutcome{}, err
	}

	verdict, err := g.generator.GenerateVerdict(ctx, g.agent, payload)
	if err != nil {
		return entity.GuardrailOutcome{}, &entity.UpstreamError{Stage: g.name, Err: err}
	}
	if verdict == nil {
		return entity.GuardrailOutcome{}, &entity.UpstreamError{
			Stage: g.name,
			Err:   fmt.Errorf("%w: no verdict returned", entity.ErrMalformedGeneration),
		}
	}

	if !verdict.Passed {
		ctxzap.Info(ctx, "guardrail tripwire triggered",
			zap.String("stage", string(g.name)),
			zap.String("rationale", verdict.Rationale),
		)
		return entity.Rejected(g.name, verdict.Rationale, g.refusal), nil
	}

	ctxzap.Debug(ctx, "guardrail passed",
		zap.String("stage", string(g.name)),
		zap.String("rationale", verdict.Rationale),
	)

	return entity.Accepted(g.name, payload), nil
}
