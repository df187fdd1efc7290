package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simClock is a deterministic clock whose sleeps advance time instantly.
type simClock struct {
	current time.Time
}

func newSimClock() *simClock {
	return &simClock{current: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *simClock) now() time.Time {
	return c.current
}

func (c *simClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.current = c.current.Add(d)
	}
	return nil
}

func TestRateLimiterNeverExceedsWindowLimit(t *testing.T) {
	clock := newSimClock()
	limiter := newRateLimiter(3, time.Minute, clock.now, clock.sleep)

	var admissions []time.Time
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.WaitForSlot(context.Background()))
		admissions = append(admissions, clock.current)
	}

	// In any trailing window ending at an admission, at most 3 admissions.
	for i, at := range admissions {
		inWindow := 0
		for _, other := range admissions[:i+1] {
			if !other.Before(at.Add(-time.Minute)) && !other.After(at) {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, 3, "admission %d at %v", i, at)
	}
}

func TestRateLimiterAdmitsUpToLimitWithoutWaiting(t *testing.T) {
	clock := newSimClock()
	start := clock.current
	limiter := newRateLimiter(5, time.Minute, clock.now, clock.sleep)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.WaitForSlot(context.Background()))
	}

	// No sleep was needed, so the simulated clock never advanced.
	assert.Equal(t, start, clock.current)
	assert.Equal(t, 5, limiter.InWindow())
}

func TestRateLimiterWaitsForOldestToExpire(t *testing.T) {
	clock := newSimClock()
	start := clock.current
	limiter := newRateLimiter(2, time.Minute, clock.now, clock.sleep)

	require.NoError(t, limiter.WaitForSlot(context.Background()))
	clock.current = clock.current.Add(10 * time.Second)
	require.NoError(t, limiter.WaitForSlot(context.Background()))

	// Third admission must wait until the first stamp ages out. The window is
	// closed at both ends, so the slot opens just past the boundary.
	require.NoError(t, limiter.WaitForSlot(context.Background()))
	assert.Equal(t, start.Add(time.Minute+time.Nanosecond), clock.current)
}

func TestRateLimiterBoundaryBatchStaysWithinLimit(t *testing.T) {
	clock := newSimClock()
	start := clock.current
	limiter := newRateLimiter(3, time.Minute, clock.now, clock.sleep)

	// Fill the window, then demand three more slots. The second batch must
	// not be admitted at exactly start+window: that instant still shares a
	// closed 60-second window with the first batch.
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.WaitForSlot(context.Background()))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.WaitForSlot(context.Background()))
		assert.True(t, clock.current.After(start.Add(time.Minute)),
			"batch admission %d at %v", i, clock.current)
	}
	assert.Equal(t, 3, limiter.InWindow())
}

func TestRateLimiterCancellation(t *testing.T) {
	clock := newSimClock()
	limiter := newRateLimiter(1, time.Minute, clock.now, clock.sleep)

	require.NoError(t, limiter.WaitForSlot(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := limiter.WaitForSlot(ctx)
	assert.Error(t, err)
}

func TestRateLimiterEviction(t *testing.T) {
	clock := newSimClock()
	limiter := newRateLimiter(10, time.Minute, clock.now, clock.sleep)

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.WaitForSlot(context.Background()))
	}
	assert.Equal(t, 4, limiter.InWindow())

	clock.current = clock.current.Add(2 * time.Minute)
	assert.Equal(t, 0, limiter.InWindow())
}
