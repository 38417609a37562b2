package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// typingInterval stays below the 5 second lifetime of a Telegram chat action
const typingInterval = 4 * time.Second

// TypingNotifier keeps the "typing" indicator visible while a reply is generated
type TypingNotifier struct {
	bot      BotAPI
	chatID   int64
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTypingNotifier(bot BotAPI, chatID int64) *TypingNotifier {
	return &TypingNotifier{
		bot:      bot,
		chatID:   chatID,
		interval: typingInterval,
		done:     make(chan struct{}),
	}
}

// Start sends the first action immediately and repeats it until Stop or ctx is done
func (t *TypingNotifier) Start(ctx context.Context) {
	t.send(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send(ctx)
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop is safe to call more than once
func (t *TypingNotifier) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
	t.wg.Wait()
}

func (t *TypingNotifier) send(ctx context.Context) {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		ctxzap.Warn(ctx, "failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
