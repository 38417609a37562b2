package guardrail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var errNoResponse = errors.New("pipeline finished without a response")

// Agents configures the three model-backed stages of the guarded pipeline
type Agents struct {
	InputGuard    entity.AgentConfig
	Responder     entity.AgentConfig
	OutputGuard   entity.AgentConfig
	InputRefusal  string
	OutputRefusal string
}

// Result describes how a request left the pipeline
type Result struct {
	State entity.PipelineState
	// Outcome is the outcome of the last stage that ran
	Outcome  entity.GuardrailOutcome
	Response *entity.Response
	Trace    []entity.PipelineState
	Duration time.Duration
}

// Text is the caller-facing text: the answer when delivered, the stage refusal when rejected
func (r *Result) Text() string {
	switch r.State {
	case entity.StateDelivered:
		return r.Response.Text
	case entity.StateRejected:
		return r.Outcome.Refusal
	default:
		return ""
	}
}

// RejectedBy is the stage that stopped the request, empty unless rejected
func (r *Result) RejectedBy() entity.StageName {
	if r.State != entity.StateRejected {
		return ""
	}
	return r.Outcome.Stage
}

// Pipeline runs stages in order until one rejects or all accept
type Pipeline struct {
	stages []Stage
}

func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
	}
}

// NewGuardedPipeline wires input guard, responder and output guard on one connector
func NewGuardedPipeline(llm LLMConnector, agents Agents) *Pipeline {
	return NewPipeline(
		NewInputGuard(llm, agents.InputGuard, agents.InputRefusal),
		NewResponder(llm, agents.Responder),
		NewOutputGuard(llm, agents.OutputGuard, agents.OutputRefusal),
	)
}

// Run processes one request. Exactly one terminal state is reached.
// On failure the returned Result is in StateFailed together with the error;
// nothing is retried and no partial response is exposed.
func (p *Pipeline) Run(ctx context.Context, req entity.Request) (*Result, error) {
	started := time.Now()
	result := &Result{
		State: entity.StateReceived,
		Trace: []entity.PipelineState{entity.StateReceived},
	}

	finish := func(state entity.PipelineState) {
		result.State = state
		result.Trace = append(result.Trace, state)
		result.Duration = time.Since(started)
	}

	if req.IsEmpty() {
		finish(entity.StateFailed)
		return result, entity.ErrEmptyRequest
	}

	ex := &Exchange{Request: req}

	for _, stage := range p.stages {
		result.State = stage.State()
		result.Trace = append(result.Trace, stage.State())

		stageStarted := time.Now()
		outcome, err := stage.Run(ctx, ex)
		if err != nil {
			ctxzap.Error(ctx, "pipeline stage failed",
				zap.String("stage", string(stage.Name())),
				zap.Duration("duration", time.Since(stageStarted)),
				zap.Error(err),
			)
			finish(entity.StateFailed)
			return result, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}

		result.Outcome = outcome

		if !outcome.IsAccepted() {
			finish(entity.StateRejected)
			return result, nil
		}

		ctxzap.Debug(ctx, "pipeline stage accepted",
			zap.String("stage", string(stage.Name())),
			zap.Duration("duration", time.Since(stageStarted)),
		)
	}

	if ex.Response == nil {
		finish(entity.StateFailed)
		return result, errNoResponse
	}

	result.Response = ex.Response
	finish(entity.StateDelivered)

	return result, nil
}
