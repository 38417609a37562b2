package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/futig/guardrails-agent/internal/entity"
	pkgRetry "github.com/futig/guardrails-agent/internal/pkg/retry"
	"github.com/futig/guardrails-agent/internal/telegram/render"
	pkgHTTP "github.com/futig/guardrails-agent/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu        sync.Mutex
	sent      []tgbotapi.MessageConfig
	actions   int
	attempts  int
	failSends int
	// maxRunes mimics Telegram's message length check when set
	maxRunes int
	// rejectText answers 403 to messages with this text
	rejectText string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts++

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		if b.maxRunes > 0 && utf8.RuneCountInString(msg.Text) > b.maxRunes {
			return tgbotapi.Message{}, &tgbotapi.Error{Code: http.StatusBadRequest, Message: "Bad Request: message is too long"}
		}
		if b.rejectText != "" && msg.Text == b.rejectText {
			return tgbotapi.Message{}, &tgbotapi.Error{Code: http.StatusForbidden, Message: "Forbidden: bot was blocked by the user"}
		}
	}

	if b.failSends > 0 {
		b.failSends--
		return tgbotapi.Message{}, errors.New("telegram: Too Many Requests")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		b.actions++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.sent))
	for _, m := range b.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeChatUsecase struct {
	reply *entity.Reply
	err   error
	got   *entity.ChatMessageRequest
	ch    entity.Channel
}

func (f *fakeChatUsecase) HandleMessage(_ context.Context, channel entity.Channel, req *entity.ChatMessageRequest) (*entity.Reply, error) {
	f.got = req
	f.ch = channel
	return f.reply, f.err
}

var fastRetry = pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}

func newTestChatHandler(bot *fakeBot, uc ChatUsecase) *ChatHandler {
	return NewChatHandler(bot, NewMessageSender(bot, fastRetry), uc, 4000)
}

func TestChatHandler_SendsExactlyOneReply(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChatUsecase{reply: &entity.Reply{Text: "Use enumerate().", Status: entity.ReplyStatusDelivered}}

	err := newTestChatHandler(bot, uc).Handle(context.Background(), &Message{ChatID: 42, Text: "How to loop with index in Python?"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Use enumerate()."}, bot.texts())
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, entity.ChannelTelegram, uc.ch)
	assert.Equal(t, "How to loop with index in Python?", uc.got.Message)
	assert.GreaterOrEqual(t, bot.actions, 1)
}

func TestChatHandler_RefusalIsAReply(t *testing.T) {
	bot := &fakeBot{}
	uc := &fakeChatUsecase{reply: &entity.Reply{
		Text:   "⚠️ Please ask questions related to Python programming only.",
		Status: entity.ReplyStatusInputRejected,
	}}

	require.NoError(t, newTestChatHandler(bot, uc).Handle(context.Background(), &Message{ChatID: 1, Text: "weather?"}))
	assert.Equal(t, []string{"⚠️ Please ask questions related to Python programming only."}, bot.texts())
}

func TestChatHandler_ErrorsBecomeOneNotice(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "too long", err: fmt.Errorf("%w: 5000 characters", entity.ErrMessageTooLong), want: render.RenderMessageTooLong(4000)},
		{name: "empty", err: entity.ErrMissingField, want: render.ErrEmptyMessage},
		{
			name: "quota",
			err:  &entity.UpstreamError{Stage: entity.StageInputGuard, Err: &pkgHTTP.HTTPError{StatusCode: 429}},
			want: render.ErrQuotaExceeded,
		},
		{
			name: "server error",
			err:  &entity.UpstreamError{Stage: entity.StageResponder, Err: &pkgHTTP.HTTPError{StatusCode: 503}},
			want: render.ErrServiceUnavailable,
		},
		{
			name: "network",
			err:  &entity.UpstreamError{Stage: entity.StageResponder, Err: &pkgHTTP.NetworkError{Err: errors.New("connection reset")}},
			want: render.ErrNetworkIssue,
		},
		{
			name: "malformed verdict",
			err:  &entity.UpstreamError{Stage: entity.StageOutputGuard, Err: entity.ErrMalformedGeneration},
			want: render.ErrServiceUnavailable,
		},
		{name: "timeout", err: context.DeadlineExceeded, want: render.ErrTimeout},
		{name: "unknown", err: errors.New("boom"), want: render.ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			uc := &fakeChatUsecase{err: tt.err}

			err := newTestChatHandler(bot, uc).Handle(context.Background(), &Message{ChatID: 7, Text: "q"})
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, []string{tt.want}, bot.texts())
		})
	}
}

func TestMessageSender_RetriesTransientFailures(t *testing.T) {
	bot := &fakeBot{failSends: 2}
	sender := NewMessageSender(bot, fastRetry)

	require.NoError(t, sender.Send(context.Background(), 1, "hello"))
	assert.Equal(t, []string{"hello"}, bot.texts())
}

func TestMessageSender_GivesUp(t *testing.T) {
	bot := &fakeBot{failSends: 10}
	sender := NewMessageSender(bot, fastRetry)

	assert.Error(t, sender.Send(context.Background(), 1, "hello"))
	assert.Empty(t, bot.texts())
}

func TestTypingNotifier_StopIsIdempotent(t *testing.T) {
	bot := &fakeBot{}
	n := NewTypingNotifier(bot, 1)
	n.interval = 5 * time.Millisecond

	n.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	n.Stop()
	n.Stop()

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.GreaterOrEqual(t, bot.actions, 2)
}

func TestChatHandler_LongReplyArrivesInParts(t *testing.T) {
	bot := &fakeBot{maxRunes: render.MaxMessageRunes}
	answer := strings.Repeat("Python generators yield values lazily. ", 160)
	uc := &fakeChatUsecase{reply: &entity.Reply{Text: answer, Status: entity.ReplyStatusDelivered}}

	err := newTestChatHandler(bot, uc).Handle(context.Background(), &Message{ChatID: 3, Text: "Explain generators"})
	require.NoError(t, err)

	texts := bot.texts()
	require.Len(t, texts, 2)
	for _, text := range texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(text), render.MaxMessageRunes)
	}
	assert.Equal(t, answer, strings.Join(texts, ""))
	assert.Equal(t, 2, bot.attempts)
}

func TestMessageSender_DoesNotRetryPermanentErrors(t *testing.T) {
	bot := &fakeBot{rejectText: "hello"}
	sender := NewMessageSender(bot, fastRetry)

	err := sender.Send(context.Background(), 1, "hello")

	var apiErr *tgbotapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	assert.Equal(t, 1, bot.attempts)
}

func TestChatHandler_UndeliverableReplyLeavesNotice(t *testing.T) {
	bot := &fakeBot{rejectText: "blocked answer"}
	uc := &fakeChatUsecase{reply: &entity.Reply{Text: "blocked answer", Status: entity.ReplyStatusDelivered}}

	err := newTestChatHandler(bot, uc).Handle(context.Background(), &Message{ChatID: 5, Text: "python?"})
	require.Error(t, err)

	assert.Equal(t, []string{render.ErrGeneric}, bot.texts())
	assert.Equal(t, 2, bot.attempts)
}
