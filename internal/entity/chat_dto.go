package entity

import "time"

// ReplyStatus tells which terminal state produced a reply
type ReplyStatus string

const (
	ReplyStatusDelivered      ReplyStatus = "delivered"
	ReplyStatusInputRejected  ReplyStatus = "input_rejected"
	ReplyStatusOutputRejected ReplyStatus = "output_rejected"
	ReplyStatusFailed         ReplyStatus = "failed"
)

// Reply is the single message sent back for one incoming message
type Reply struct {
	RequestID string
	Text      string
	Status    ReplyStatus
}

// Channel names the chat surface a message came from
type Channel string

const (
	ChannelHTTP     Channel = "http"
	ChannelTelegram Channel = "telegram"
	ChannelCLI      Channel = "cli"
)

// AuditEvent is one processed message, kept for diagnostics
type AuditEvent struct {
	ID            string
	RequestID     string
	Channel       Channel
	Status        ReplyStatus
	RejectedStage StageName
	Rationale     string
	InputChars    int
	Duration      time.Duration
	CreatedAt     time.Time
}

// HTTP DTOs

type StartChatResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

// ToRequest appends the new message after the history
func (r *ChatMessageRequest) ToRequest() Request {
	turns := make([]Turn, 0, len(r.History)+1)
	turns = append(turns, r.History...)
	turns = append(turns, Turn{Role: TurnRoleUser, Content: r.Message})
	return Request{Turns: turns}
}

type ChatMessageResponse struct {
	RequestID string      `json:"request_id"`
	Message   string      `json:"message"`
	Status    ReplyStatus `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
