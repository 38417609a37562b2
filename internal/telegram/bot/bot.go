package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/guardrails-agent/internal/config"
	"github.com/futig/guardrails-agent/internal/telegram/handlers"
	"github.com/futig/guardrails-agent/internal/telegram/middleware"
	"github.com/futig/guardrails-agent/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

// API is the subset of *tgbotapi.BotAPI the bot needs
type API interface {
	handlers.BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Texts are the fixed command replies
type Texts struct {
	Greeting string
	Help     string
}

// Bot represents the Telegram bot
type Bot struct {
	api         API
	cfg         *config.TelegramConfig
	texts       Texts
	chatHandler handlers.Handler
	sender      *handlers.MessageSender
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New authorizes against the Telegram API and creates the bot
func New(
	cfg *config.TelegramConfig,
	chatCfg config.ChatConfig,
	texts Texts,
	chatUC handlers.ChatUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return NewWithAPI(api, cfg, chatCfg, texts, chatUC, logger), nil
}

// NewWithAPI creates the bot on an already authorized API client
func NewWithAPI(
	api API,
	cfg *config.TelegramConfig,
	chatCfg config.ChatConfig,
	texts Texts,
	chatUC handlers.ChatUsecase,
	logger *zap.Logger,
) *Bot {
	sender := handlers.NewMessageSender(api, cfg.SendRetry)

	return &Bot{
		api:         api,
		cfg:         cfg,
		texts:       texts,
		sender:      sender,
		chatHandler: handlers.NewChatHandler(api, sender, chatUC, chatCfg.MaxMessageChars),
		logger:      logger,
		loggingMW:   middleware.NewLoggingMiddleware(logger),
		recoveryMW:  middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, api, logger),
		stopChan:    make(chan struct{}),
	}
}

// Start begins long polling and returns immediately
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops polling and waits for in-flight updates up to the shutdown timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return ErrShutdownTimeout
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				ctxzap.Info(ctx, "updates channel closed")
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limit, logging and recovery around the handler
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, b.handleUpdate)
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	// In-flight updates outlive Stop, so they do not inherit the polling context
	ctx := ctxzap.ToContext(context.Background(), b.logger.With(
		zap.Int("update_id", update.UpdateID),
	))

	if update.Message == nil || update.Message.From == nil {
		ctxzap.Debug(ctx, "ignoring update without a user message")
		return
	}

	b.handleMessage(ctx, update.Message)
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	chatID := message.Chat.ID

	if message.Text == "" {
		b.reply(ctx, chatID, render.MsgTextOnly)
		return
	}

	msg := &handlers.Message{
		ChatID:    chatID,
		UserID:    message.From.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
	}

	if err := b.chatHandler.Handle(ctx, msg); err != nil {
		ctxzap.Warn(ctx, "chat handler error",
			zap.Error(err),
			zap.Int64("user_id", msg.UserID),
		)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("user_id", message.From.ID),
	)

	switch command {
	case "start":
		b.reply(ctx, message.Chat.ID, b.texts.Greeting)
	case "help":
		b.reply(ctx, message.Chat.ID, b.texts.Help)
	default:
		b.reply(ctx, message.Chat.ID, render.MsgUnknownCommand)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	// The sender logs failures itself
	_ = b.sender.Send(ctx, chatID, text)
}
