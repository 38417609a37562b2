package guardrail

import (
	"context"

	"github.com/futig/guardrails-agent/internal/entity"
)

// Responder produces the answer for an accepted request.
// It sees the original request only, never a verdict.
type Responder struct {
	agent     entity.AgentConfig
	generator TextGenerator
}

func NewResponder(generator TextGenerator, agent entity.AgentConfig) *Responder {
	return &Responder{
		agent:     agent,
		generator: generator,
	}
}

func (r *Responder) Name() entity.StageName {
	return entity.StageResponder
}

func (r *Responder) State() entity.PipelineState {
	return entity.StateGenerating
}

func (r *Responder) Run(ctx context.Context, ex *Exchange) (entity.GuardrailOutcome, error) {
	text, err := r.generator.GenerateText(ctx, r.agent, ex.Request)
	if err != nil {
		return entity.GuardrailOutcome{}, &entity.UpstreamError{Stage: entity.StageResponder, Err: err}
	}

	ex.Response = &entity.Response{Text: text}

	return entity.Accepted(entity.StageResponder, text), nil
}
