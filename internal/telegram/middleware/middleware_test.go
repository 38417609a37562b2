package middleware

import (
	"sync"
	"testing"
	"time"

	"github.com/futig/guardrails-agent/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(perMinute, burst int, sender Sender) (*RateLimiterMiddleware, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterMiddleware(perMinute, burst, sender, zap.NewNop())
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	sender := &recordingSender{}
	rl, _ := newTestLimiter(20, 3, sender)

	passed := 0
	for i := 0; i < 5; i++ {
		rl.Handle(textUpdate(1, "q"), func(tgbotapi.Update) { passed++ })
	}

	assert.Equal(t, 3, passed)
	// One warning per interval, however many messages were dropped
	assert.Equal(t, []string{render.MsgRateLimitFirst}, sender.sent)
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(60, 1, &recordingSender{})

	passed := 0
	next := func(tgbotapi.Update) { passed++ }

	rl.Handle(textUpdate(1, "q"), next)
	rl.Handle(textUpdate(1, "q"), next)
	require.Equal(t, 1, passed)

	// 60 per minute refills one token per second
	clock.now = clock.now.Add(time.Second)
	rl.Handle(textUpdate(1, "q"), next)
	assert.Equal(t, 2, passed)
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(20, 1, &recordingSender{})

	passed := map[int64]int{}
	for _, user := range []int64{1, 1, 2, 2} {
		rl.Handle(textUpdate(user, "q"), func(u tgbotapi.Update) { passed[u.Message.From.ID]++ })
	}

	assert.Equal(t, map[int64]int{1: 1, 2: 1}, passed)
}

func TestRateLimiter_WarningsEscalate(t *testing.T) {
	sender := &recordingSender{}
	rl, clock := newTestLimiter(1, 1, sender)
	rl.refillRate = 0

	rl.Handle(textUpdate(1, "q"), func(tgbotapi.Update) {})
	for i := 0; i < 3; i++ {
		clock.now = clock.now.Add(warningInterval + time.Second)
		rl.Handle(textUpdate(1, "q"), func(tgbotapi.Update) {})
	}

	assert.Equal(t, []string{render.MsgRateLimitFirst, render.MsgRateLimitSecond, render.MsgRateLimitFinal}, sender.sent)
}

func TestRateLimiter_PassesUpdatesWithoutSender(t *testing.T) {
	rl, _ := newTestLimiter(1, 1, &recordingSender{})

	called := false
	rl.Handle(tgbotapi.Update{UpdateID: 9}, func(tgbotapi.Update) { called = true })
	assert.True(t, called)
}

func TestRecovery_ReportsPanic(t *testing.T) {
	sender := &recordingSender{}
	m := NewRecoveryMiddleware(zap.NewNop(), sender)

	assert.NotPanics(t, func() {
		m.Handle(textUpdate(5, "q"), func(tgbotapi.Update) { panic("nil map") })
	})
	assert.Equal(t, []string{render.ErrGeneric}, sender.sent)
}

func TestLogging_CallsNext(t *testing.T) {
	m := NewLoggingMiddleware(zap.NewNop())

	called := false
	m.Handle(textUpdate(5, "q"), func(tgbotapi.Update) { called = true })
	assert.True(t, called)
	assert.Equal(t, "text", updateType(textUpdate(5, "q")))
	assert.Equal(t, "non_text", updateType(textUpdate(5, "")))
}
