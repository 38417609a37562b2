package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"500ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted or ctx is done.
// onRetry is called before each new attempt and may be nil.
func Do(ctx context.Context, cfg *RetryConfig, fn func() error, onRetry func(attempt uint, err error)) error {
	return DoIf(ctx, cfg, fn, nil, onRetry)
}

// DoIf is Do that stops at the first error retryIf rejects. A nil retryIf retries every error.
func DoIf(
	ctx context.Context,
	cfg *RetryConfig,
	fn func() error,
	retryIf func(err error) bool,
	onRetry func(attempt uint, err error),
) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	opts := append(cfg.ToRetryOptions(), retry.Context(ctx))
	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(onRetry))
	}

	return retry.Do(fn, opts...)
}
