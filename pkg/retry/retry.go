package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
	"inatscraper/pkg/logger"
)

// ErrExhausted is wrapped by the error Do returns when every attempt failed transiently
var ErrExhausted = errors.New("retry attempts exhausted")

// Operation performs one attempt and reports how it went
type Operation[T any] func(ctx context.Context, attempt int) (T, errs.Outcome)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	Backoff     BackoffStrategy
	// Sleep pauses between attempts; defaults to Wait
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each pause
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns three attempts with doubling delays from one second
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		Sleep:       Wait,
		Logger:      logger.GetLogger(),
	}
}

// NewConfig builds a retry Config from the application config
func NewConfig(cfg config.RetryConfig, log logger.Logger) *Config {
	return &Config{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     BackoffFromConfig(cfg),
		Sleep:       Wait,
		Logger:      log,
	}
}

// Do runs op until it succeeds, fails permanently, or MaxAttempts is reached.
// Delays happen only between attempts, so n attempts incur n-1 pauses.
func Do[T any](ctx context.Context, cfg *Config, op Operation[T]) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Wait
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, outcome := op(ctx, attempt)
		switch outcome.Kind {
		case errs.Success:
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return result, nil
		case errs.Permanent:
			return zero, outcome.Err
		}

		lastErr = outcome.Err
		if attempt == maxAttempts {
			break
		}

		delay := backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"delay_ms":     delay.Milliseconds(),
			"error":        errString(lastErr),
		})

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
		"attempts":   maxAttempts,
		"last_error": errString(lastErr),
	})
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}

func errString(err error) string {
	if err == nil {
		return "transient failure"
	}
	return err.Error()
}
