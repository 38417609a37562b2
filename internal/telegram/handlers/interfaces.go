package handlers

import (
	"context"

	"github.com/futig/guardrails-agent/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatUsecase answers one chat message through the guarded pipeline
type ChatUsecase interface {
	HandleMessage(ctx context.Context, channel entity.Channel, req *entity.ChatMessageRequest) (*entity.Reply, error)
}

// BotAPI is the subset of *tgbotapi.BotAPI used by handlers
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
