package handlers

import (
	"context"
	"fmt"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatHandler answers a text message with exactly one reply
type ChatHandler struct {
	BaseHandler
	bot             BotAPI
	chatUC          ChatUsecase
	maxMessageChars int
}

func NewChatHandler(bot BotAPI, sender *MessageSender, chatUC ChatUsecase, maxMessageChars int) *ChatHandler {
	return &ChatHandler{
		BaseHandler:     BaseHandler{messageSender: sender},
		bot:             bot,
		chatUC:          chatUC,
		maxMessageChars: maxMessageChars,
	}
}

// Handle implements Handler. Errors are reported to the chat here; the
// returned error is only for the caller's logs.
func (h *ChatHandler) Handle(ctx context.Context, msg *Message) error {
	typing := NewTypingNotifier(h.bot, msg.ChatID)
	typing.Start(ctx)

	reply, err := h.chatUC.HandleMessage(ctx, entity.ChannelTelegram, &entity.ChatMessageRequest{
		Message: msg.Text,
	})

	typing.Stop()

	if err != nil {
		h.HandleError(ctx, msg.ChatID, err, h.maxMessageChars)
		return fmt.Errorf("handle message: %w", err)
	}

	ctxzap.Debug(ctx, "sending reply",
		zap.String("request_id", reply.RequestID),
		zap.String("status", string(reply.Status)),
	)

	if err := h.sendMessage(ctx, msg.ChatID, reply.Text); err != nil {
		// Leave a notice instead of silence
		_ = h.sendMessage(ctx, msg.ChatID, render.ErrGeneric)
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}
