package middleware

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LoggingMiddleware logs all incoming updates
type LoggingMiddleware struct {
	logger *zap.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// Handle logs the update. Message text is not logged.
func (m *LoggingMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	start := time.Now()
	userID, chatID := updateIDs(update)

	fields := []zap.Field{
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	}

	m.logger.Info("telegram update received", append(fields, zap.String("type", updateType(update)))...)

	next(update)

	m.logger.Info("telegram update processed", append(fields, zap.Duration("duration", time.Since(start)))...)
}

func updateType(update tgbotapi.Update) string {
	switch {
	case update.Message == nil:
		if update.CallbackQuery != nil {
			return "callback"
		}
		return "other"
	case update.Message.IsCommand():
		return "command"
	case update.Message.Text != "":
		return "text"
	default:
		return "non_text"
	}
}
