package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/guardrails-agent/internal/config"
	"github.com/futig/guardrails-agent/internal/telegram/bot"
	"github.com/futig/guardrails-agent/internal/telegram/handlers"
	"go.uber.org/zap"
)

var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is not set")

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(cfg *config.Config, chatUC handlers.ChatUsecase, logger *zap.Logger) (Bot, error) {
	if cfg.TelegramCfg.BotToken == "" {
		return nil, ErrMissingBotToken
	}

	texts := bot.Texts{
		Greeting: cfg.Agents.Greeting,
		Help:     cfg.Agents.Help,
	}

	b, err := bot.New(&cfg.TelegramCfg, cfg.ChatCfg, texts, chatUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
