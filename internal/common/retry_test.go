package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamnan-dev/slipguard/internal/service"
)

var fastOpts = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2.0,
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, fastOpts)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &HTTPStatusError{StatusCode: 503, Body: "unavailable"}
		}
		return nil
	}, fastOpts)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("schema mismatch")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return permanent
	}, fastOpts)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrRateLimit
	}, fastOpts)

	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, calls)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return ErrRateLimit
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limit sentinel", err: ErrRateLimit, want: true},
		{name: "wrapped rate limit", err: errors.Join(errors.New("call failed"), ErrRateLimit), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "http 429", err: &HTTPStatusError{StatusCode: 429}, want: true},
		{name: "http 503", err: &HTTPStatusError{StatusCode: 503}, want: true},
		{name: "http 400", err: &HTTPStatusError{StatusCode: 400}, want: false},
		{name: "http 401", err: &HTTPStatusError{StatusCode: 401}, want: false},
		{name: "connection reset text", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "explicit retryable wrapper", err: &RetryableError{Err: errors.New("flaky"), Retryable: true}, want: true},
		{name: "explicit non-retryable wrapper", err: &RetryableError{Err: errors.New("broken"), Retryable: false}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "invalid image", err: ErrInvalidImage, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
