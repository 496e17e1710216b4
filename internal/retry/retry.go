package retry

import (
	"context"
	"errors"
	"time"

	"stockpulse/internal/logger"
)

type Config struct {
	MaxAttempts     int
	Delay           time.Duration
	RetryableErrors []error
	// ShouldRetry, when set, decides instead of RetryableErrors.
	ShouldRetry func(error) bool
	Logger      *logger.Logger
}

// Once allows a single retry after a short pause.
func Once(log *logger.Logger) Config {
	return Config{MaxAttempts: 2, Delay: 500 * time.Millisecond, Logger: log}
}

// Do runs operation until it succeeds, returns a non-retryable error, or the
// attempts are used up. The last error is returned.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			if attempt > 1 {
				cfg.Logger.Info("operation succeeded after %d attempts", attempt)
			}
			return nil
		}
		lastErr = err

		if !cfg.retryable(err) || attempt == cfg.MaxAttempts {
			break
		}

		cfg.Logger.Warn("operation failed (attempt %d/%d), retrying in %s: %v", attempt, cfg.MaxAttempts, cfg.Delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}
	return lastErr
}

func DoWithResult[T any](ctx context.Context, cfg Config, operation func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = operation()
		return err
	})
	return result, err
}

func (cfg Config) retryable(err error) bool {
	if cfg.ShouldRetry != nil {
		return cfg.ShouldRetry(err)
	}
	return isRetryable(err, cfg.RetryableErrors)
}

func isRetryable(err error, retryable []error) bool {
	if len(retryable) == 0 {
		return true
	}
	for _, r := range retryable {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
