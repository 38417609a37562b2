package entity

import "strings"

// TurnRole is the author of a conversation turn
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// IsValid reports whether the role can be sent to the model
func (r TurnRole) IsValid() bool {
	return r == TurnRoleUser || r == TurnRoleAssistant
}

// Turn is one message of a conversation
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// Request is the user input entering the pipeline.
// Turns are ordered oldest first; the last user turn is the message being answered.
type Request struct {
	Turns []Turn
}

// NewTextRequest builds a single-turn request
func NewTextRequest(text string) Request {
	return Request{Turns: []Turn{{Role: TurnRoleUser, Content: text}}}
}

// Text returns the latest user message
func (r Request) Text() string {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if r.Turns[i].Role == TurnRoleUser {
			return r.Turns[i].Content
		}
	}
	return ""
}

// IsEmpty reports whether there is no non-blank user text to process
func (r Request) IsEmpty() bool {
	return strings.TrimSpace(r.Text()) == ""
}

// ValidationVerdict is the structured output of a guard agent.
// The JSON names match the output shape demanded from the model.
type ValidationVerdict struct {
	Passed    bool   `json:"is_related"`
	Rationale string `json:"rationale"`
}

// Response is the answer produced by the primary responder
type Response struct {
	Text string
}

// StageName identifies a pipeline stage
type StageName string

const (
	StageInputGuard  StageName = "input_guard"
	StageResponder   StageName = "responder"
	StageOutputGuard StageName = "output_guard"
)

// GuardrailOutcome is the result of one stage: Accepted(payload) or Rejected(rationale).
// Refusal is the fixed caller-facing text of the rejecting stage.
type GuardrailOutcome struct {
	accepted  bool
	Stage     StageName
	Payload   string
	Rationale string
	Refusal   string
}

// Accepted lets the payload proceed to the next stage
func Accepted(stage StageName, payload string) GuardrailOutcome {
	return GuardrailOutcome{accepted: true, Stage: stage, Payload: payload}
}

// Rejected stops the pipeline. The rationale is for diagnostics only.
func Rejected(stage StageName, rationale, refusal string) GuardrailOutcome {
	return GuardrailOutcome{Stage: stage, Rationale: rationale, Refusal: refusal}
}

func (o GuardrailOutcome) IsAccepted() bool {
	return o.accepted
}

// PipelineState is a state of the guarded request flow
type PipelineState string

const (
	StateReceived       PipelineState = "received"
	StateInputChecking  PipelineState = "input_checking"
	StateGenerating     PipelineState = "generating"
	StateOutputChecking PipelineState = "output_checking"
	StateRejected       PipelineState = "rejected"
	StateDelivered      PipelineState = "delivered"
	StateFailed         PipelineState = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s PipelineState) IsTerminal() bool {
	switch s {
	case StateRejected, StateDelivered, StateFailed:
		return true
	default:
		return false
	}
}

// AgentConfig bundles the behavioural instruction of one model call
type AgentConfig struct {
	Name         string
	Instructions string
	Model        string
}
