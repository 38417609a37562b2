package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/futig/guardrails-agent/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// Buckets of users idle this long are evicted
	inactiveUserTTL = time.Hour
	cleanupInterval = 10 * time.Minute
	warningInterval = 30 * time.Second
)

// Sender is the subset of *tgbotapi.BotAPI used by the middlewares
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// userLimit tracks rate limit state for a single user
type userLimit struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware implements token bucket rate limiting per user
type RateLimiterMiddleware struct {
	limits     *cache.Cache
	createMu   sync.Mutex
	maxTokens  float64 // bucket capacity, equals the burst size
	refillRate float64 // tokens added per second
	sender     Sender
	logger     *zap.Logger
	now        func() time.Time
}

// NewRateLimiterMiddleware allows bursts of burstSize messages and
// requestsPerMinute messages per minute on average
func NewRateLimiterMiddleware(
	requestsPerMinute int,
	burstSize int,
	sender Sender,
	logger *zap.Logger,
) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limits:     cache.New(inactiveUserTTL, cleanupInterval),
		maxTokens:  float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle processes the update through rate limiting
func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID := updateIDs(update)
	if userID == 0 {
		next(update)
		return
	}

	if !rl.allowRequest(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

func (rl *RateLimiterMiddleware) bucket(userID int64) *userLimit {
	key := strconv.FormatInt(userID, 10)

	rl.createMu.Lock()
	defer rl.createMu.Unlock()

	if v, ok := rl.limits.Get(key); ok {
		limit := v.(*userLimit)
		// Touch to extend the expiration
		rl.limits.SetDefault(key, limit)
		return limit
	}

	limit := &userLimit{
		tokens:     rl.maxTokens,
		lastRefill: rl.now(),
	}
	rl.limits.SetDefault(key, limit)

	return limit
}

// allowRequest checks if request is allowed under rate limit
func (rl *RateLimiterMiddleware) allowRequest(userID, chatID int64) bool {
	limit := rl.bucket(userID)

	limit.mu.Lock()
	defer limit.mu.Unlock()

	now := rl.now()

	elapsed := now.Sub(limit.lastRefill).Seconds()
	limit.tokens += elapsed * rl.refillRate
	if limit.tokens > rl.maxTokens {
		limit.tokens = rl.maxTokens
	}
	limit.lastRefill = now

	if limit.tokens >= 1.0 {
		limit.tokens -= 1.0
		limit.warningsSent = 0
		return true
	}

	if limit.lastWarningAt.IsZero() || now.Sub(limit.lastWarningAt) > warningInterval {
		limit.warningsSent++
		limit.lastWarningAt = now

		rl.sendRateLimitWarning(chatID, limit.warningsSent)
	}

	return false
}

// sendRateLimitWarning sends a warning message to the user
func (rl *RateLimiterMiddleware) sendRateLimitWarning(chatID int64, warningCount int) {
	msg := tgbotapi.NewMessage(chatID, render.RenderRateLimitWarning(warningCount))
	if _, err := rl.sender.Send(msg); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// updateIDs extracts the sender and chat of an update, zero when absent
func updateIDs(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.From.ID, update.CallbackQuery.Message.Chat.ID
	default:
		return 0, 0
	}
}
