package handlers

import (
	"context"
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// Handler processes a normalized message
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	messageSender *MessageSender
}

// sendMessage is a convenience wrapper for messageSender.Send
func (h *BaseHandler) sendMessage(ctx context.Context, chatID int64, text string) error {
	if h.messageSender == nil {
		return nil
	}
	return h.messageSender.Send(ctx, chatID, text)
}
