package guardrail

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	inputRefusal  = "⚠️ Please ask questions related to Python programming only."
	outputRefusal = "⛔ Output was rejected by the guardrail. Try rephrasing your Python query."
)

type stubLLM struct {
	verdictFn func(agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error)
	textFn    func(agent entity.AgentConfig, req entity.Request) (string, error)

	verdictCalls atomic.Int32
	textCalls    atomic.Int32
}

func (s *stubLLM) GenerateVerdict(_ context.Context, agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
	s.verdictCalls.Add(1)
	return s.verdictFn(agent, input)
}

func (s *stubLLM) GenerateText(_ context.Context, agent entity.AgentConfig, req entity.Request) (string, error) {
	s.textCalls.Add(1)
	return s.textFn(agent, req)
}

var testAgents = Agents{
	InputGuard:    entity.AgentConfig{Name: "Input Guardrails Checker"},
	Responder:     entity.AgentConfig{Name: "Python_Expert_Agent"},
	OutputGuard:   entity.AgentConfig{Name: "Output Guardrails Checker"},
	InputRefusal:  inputRefusal,
	OutputRefusal: outputRefusal,
}

// pythonOnly passes anything mentioning python, for both guards
func pythonOnly(_ entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
	if strings.Contains(strings.ToLower(input), "python") {
		return &entity.ValidationVerdict{Passed: true, Rationale: "python"}, nil
	}
	return &entity.ValidationVerdict{Passed: false, Rationale: "not python"}, nil
}

func TestPipeline_OnTopicDelivered(t *testing.T) {
	llm := &stubLLM{
		verdictFn: pythonOnly,
		textFn: func(_ entity.AgentConfig, req entity.Request) (string, error) {
			return "In Python, use a list comprehension: [x*x for x in xs]", nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	result, err := p.Run(context.Background(), entity.NewTextRequest("How do I square a list in Python?"))
	require.NoError(t, err)

	assert.Equal(t, entity.StateDelivered, result.State)
	assert.Equal(t, "In Python, use a list comprehension: [x*x for x in xs]", result.Text())
	assert.Empty(t, result.RejectedBy())
	assert.Equal(t, []entity.PipelineState{
		entity.StateReceived,
		entity.StateInputChecking,
		entity.StateGenerating,
		entity.StateOutputChecking,
		entity.StateDelivered,
	}, result.Trace)
	assert.EqualValues(t, 2, llm.verdictCalls.Load())
	assert.EqualValues(t, 1, llm.textCalls.Load())
}

func TestPipeline_OffTopicNeverReachesResponder(t *testing.T) {
	llm := &stubLLM{
		verdictFn: pythonOnly,
		textFn: func(_ entity.AgentConfig, _ entity.Request) (string, error) {
			t.Fatal("responder must not run for rejected input")
			return "", nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	result, err := p.Run(context.Background(), entity.NewTextRequest("How do I center a div in CSS?"))
	require.NoError(t, err)

	assert.Equal(t, entity.StateRejected, result.State)
	assert.Equal(t, entity.StageInputGuard, result.RejectedBy())
	assert.Equal(t, inputRefusal, result.Text())
	assert.Equal(t, "not python", result.Outcome.Rationale)
	assert.Nil(t, result.Response)
	assert.Equal(t, []entity.PipelineState{
		entity.StateReceived,
		entity.StateInputChecking,
		entity.StateRejected,
	}, result.Trace)
	assert.EqualValues(t, 1, llm.verdictCalls.Load())
	assert.EqualValues(t, 0, llm.textCalls.Load())
}

func TestPipeline_DraftRejectedByOutputGuard(t *testing.T) {
	draft := "Here is a recipe for banana bread."
	llm := &stubLLM{
		verdictFn: pythonOnly,
		textFn: func(_ entity.AgentConfig, _ entity.Request) (string, error) {
			return draft, nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	result, err := p.Run(context.Background(), entity.NewTextRequest("Explain Python generators"))
	require.NoError(t, err)

	assert.Equal(t, entity.StateRejected, result.State)
	assert.Equal(t, entity.StageOutputGuard, result.RejectedBy())
	assert.Equal(t, outputRefusal, result.Text())
	assert.NotContains(t, result.Text(), draft)
	assert.Nil(t, result.Response)
	assert.Equal(t, entity.StateOutputChecking, result.Trace[len(result.Trace)-2])
}

func TestPipeline_OutputGuardSeesDraftNotRequest(t *testing.T) {
	var seen []string
	llm := &stubLLM{
		verdictFn: func(agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
			seen = append(seen, agent.Name+": "+input)
			return &entity.ValidationVerdict{Passed: true}, nil
		},
		textFn: func(_ entity.AgentConfig, _ entity.Request) (string, error) {
			return "draft answer", nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	_, err := p.Run(context.Background(), entity.NewTextRequest("question about python"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Input Guardrails Checker: question about python",
		"Output Guardrails Checker: draft answer",
	}, seen)
}

func TestPipeline_UpstreamFailureFailsClosed(t *testing.T) {
	boom := errors.New("quota exceeded")

	tests := []struct {
		name      string
		verdictFn func(entity.AgentConfig, string) (*entity.ValidationVerdict, error)
		textFn    func(entity.AgentConfig, entity.Request) (string, error)
		stage     entity.StageName
	}{
		{
			name: "input guard",
			verdictFn: func(entity.AgentConfig, string) (*entity.ValidationVerdict, error) {
				return nil, boom
			},
			textFn: func(entity.AgentConfig, entity.Request) (string, error) { return "never", nil },
			stage:  entity.StageInputGuard,
		},
		{
			name:      "responder",
			verdictFn: pythonOnly,
			textFn:    func(entity.AgentConfig, entity.Request) (string, error) { return "", boom },
			stage:     entity.StageResponder,
		},
		{
			name: "output guard",
			verdictFn: func(agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
				if agent.Name == testAgents.OutputGuard.Name {
					return nil, boom
				}
				return &entity.ValidationVerdict{Passed: true}, nil
			},
			textFn: func(entity.AgentConfig, entity.Request) (string, error) { return "python answer", nil },
			stage:  entity.StageOutputGuard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{verdictFn: tt.verdictFn, textFn: tt.textFn}
			p := NewGuardedPipeline(llm, testAgents)

			result, err := p.Run(context.Background(), entity.NewTextRequest("python question"))
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)

			var upstream *entity.UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, tt.stage, upstream.Stage)
			assert.True(t, entity.IsUpstreamFailure(err))

			assert.Equal(t, entity.StateFailed, result.State)
			assert.Nil(t, result.Response)
			assert.Empty(t, result.Text())
		})
	}
}

func TestPipeline_NoRetryOnFailure(t *testing.T) {
	llm := &stubLLM{
		verdictFn: func(entity.AgentConfig, string) (*entity.ValidationVerdict, error) {
			return nil, entity.ErrMalformedGeneration
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	_, err := p.Run(context.Background(), entity.NewTextRequest("python"))
	require.Error(t, err)
	assert.EqualValues(t, 1, llm.verdictCalls.Load())
}

func TestPipeline_EmptyRequest(t *testing.T) {
	llm := &stubLLM{}
	p := NewGuardedPipeline(llm, testAgents)

	for _, req := range []entity.Request{
		{},
		entity.NewTextRequest("   \n"),
		{Turns: []entity.Turn{{Role: entity.TurnRoleAssistant, Content: "hello"}}},
	} {
		result, err := p.Run(context.Background(), req)
		assert.ErrorIs(t, err, entity.ErrEmptyRequest)
		assert.Equal(t, entity.StateFailed, result.State)
	}

	assert.EqualValues(t, 0, llm.verdictCalls.Load())
	assert.EqualValues(t, 0, llm.textCalls.Load())
}

func TestPipeline_SameInputSameOutcome(t *testing.T) {
	llm := &stubLLM{
		verdictFn: pythonOnly,
		textFn: func(_ entity.AgentConfig, req entity.Request) (string, error) {
			return "python: " + req.Text(), nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	for _, q := range []string{"python lists", "cooking pasta"} {
		first, err := p.Run(context.Background(), entity.NewTextRequest(q))
		require.NoError(t, err)
		second, err := p.Run(context.Background(), entity.NewTextRequest(q))
		require.NoError(t, err)

		assert.Equal(t, first.State, second.State)
		assert.Equal(t, first.Text(), second.Text())
		assert.Equal(t, first.Trace, second.Trace)
	}
}

func TestPipeline_RunsEveryStateOnce(t *testing.T) {
	llm := &stubLLM{
		verdictFn: pythonOnly,
		textFn:    func(entity.AgentConfig, entity.Request) (string, error) { return "python", nil },
	}
	p := NewGuardedPipeline(llm, testAgents)

	result, err := p.Run(context.Background(), entity.NewTextRequest("python"))
	require.NoError(t, err)

	terminal := 0
	for _, s := range result.Trace {
		if s.IsTerminal() {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
	assert.True(t, result.Trace[len(result.Trace)-1].IsTerminal())
}

func TestPipeline_WithoutResponderFails(t *testing.T) {
	llm := &stubLLM{verdictFn: pythonOnly}
	p := NewPipeline(NewInputGuard(llm, testAgents.InputGuard, inputRefusal))

	result, err := p.Run(context.Background(), entity.NewTextRequest("python"))
	assert.ErrorIs(t, err, errNoResponse)
	assert.Equal(t, entity.StateFailed, result.State)
}

func TestOutputGuard_WithoutDraft(t *testing.T) {
	llm := &stubLLM{verdictFn: pythonOnly}
	g := NewOutputGuard(llm, testAgents.OutputGuard, outputRefusal)

	_, err := g.Run(context.Background(), &Exchange{Request: entity.NewTextRequest("python")})
	assert.ErrorIs(t, err, errNoDraft)
	assert.EqualValues(t, 0, llm.verdictCalls.Load())
}

func TestResponder_UsesFullHistory(t *testing.T) {
	var got entity.Request
	llm := &stubLLM{
		textFn: func(_ entity.AgentConfig, req entity.Request) (string, error) {
			got = req
			return "answer", nil
		},
	}
	r := NewResponder(llm, testAgents.Responder)

	req := entity.Request{Turns: []entity.Turn{
		{Role: entity.TurnRoleUser, Content: "What is a python dict?"},
		{Role: entity.TurnRoleAssistant, Content: "A mapping."},
		{Role: entity.TurnRoleUser, Content: "And a set?"},
	}}
	ex := &Exchange{Request: req}

	outcome, err := r.Run(context.Background(), ex)
	require.NoError(t, err)

	assert.True(t, outcome.IsAccepted())
	assert.Equal(t, req, got)
	require.NotNil(t, ex.Response)
	assert.Equal(t, "answer", ex.Response.Text)
}

func TestGuard_NilVerdictIsUpstreamFailure(t *testing.T) {
	llm := &stubLLM{
		verdictFn: func(entity.AgentConfig, string) (*entity.ValidationVerdict, error) {
			return nil, nil
		},
	}
	p := NewGuardedPipeline(llm, testAgents)

	result, err := p.Run(context.Background(), entity.NewTextRequest("python"))
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrMalformedGeneration)
	assert.True(t, entity.IsUpstreamFailure(err))
	assert.Equal(t, entity.StateFailed, result.State)
	assert.EqualValues(t, 0, llm.textCalls.Load())
}
