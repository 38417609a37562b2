package handlers

import (
	"context"
	"errors"
	"net/http"

	pkgRetry "github.com/futig/guardrails-agent/internal/pkg/retry"
	"github.com/futig/guardrails-agent/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MessageSender delivers chat messages, retrying transient send failures
type MessageSender struct {
	bot      BotAPI
	retryCfg pkgRetry.RetryConfig
}

func NewMessageSender(bot BotAPI, retryCfg pkgRetry.RetryConfig) *MessageSender {
	return &MessageSender{
		bot:      bot,
		retryCfg: retryCfg,
	}
}

// Send sends a plain text message to the chat. Text over Telegram's length
// limit goes out as consecutive messages.
func (s *MessageSender) Send(ctx context.Context, chatID int64, text string) error {
	parts := render.SplitMessage(text, render.MaxMessageRunes)

	for i, part := range parts {
		if err := s.sendPart(ctx, chatID, part); err != nil {
			ctxzap.Error(ctx, "failed to send message",
				zap.Error(err),
				zap.Int64("chat_id", chatID),
				zap.Int("part", i+1),
				zap.Int("parts", len(parts)),
			)
			return err
		}
	}

	return nil
}

func (s *MessageSender) sendPart(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	return pkgRetry.DoIf(ctx, &s.retryCfg, func() error {
		_, err := s.bot.Send(msg)
		return err
	}, isRetryableSend, func(attempt uint, err error) {
		ctxzap.Warn(ctx, "failed to send message, retrying",
			zap.Error(err),
			zap.Uint("attempt", attempt+1),
			zap.Int64("chat_id", chatID),
		)
	})
}

// isRetryableSend rejects Telegram API answers that a resend would repeat,
// such as 400 Bad Request or 403 Forbidden
func isRetryableSend(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
