package common

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/chamnan-dev/slipguard/internal/service"
)

// WithRetry executes an operation with configurable retry behavior. Only
// errors classified retryable by IsRetryable are retried; anything else is
// returned immediately. The last error is wrapped in ErrMaxRetries when the
// attempt budget runs out.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	delay := opts.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, opts.MaxAttempts, lastErr)
		}

		// Jitter spreads concurrent retriers so they don't hammer a
		// recovering backend in lockstep.
		wait := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		if wait > opts.MaxDelay {
			wait = opts.MaxDelay
		}

		slog.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			delay = time.Duration(float64(delay) * opts.Multiplier)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}

	return fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}
