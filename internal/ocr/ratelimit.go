package ocr

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter bounds calls to a rate-limited provider with a sliding
// 60-second window. WaitForSlot blocks until fewer than the configured limit
// of timestamps remain in the trailing window, then records a new one.
// Callers are admitted in FIFO order; one instance is shared per hosted
// engine quota.
type RateLimiter struct {
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	turn   chan struct{}
	stamps []time.Time
	window time.Duration
	limit  int
	mu     sync.Mutex
}

// NewRateLimiter creates a limiter admitting at most requestsPerMinute calls
// in any trailing 60-second window.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return newRateLimiter(requestsPerMinute, time.Minute, time.Now, sleepUntil)
}

// newRateLimiter allows tests to inject a simulated clock.
func newRateLimiter(limit int, window time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    now,
		sleep:  sleep,
		turn:   make(chan struct{}, 1),
	}
}

func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitForSlot blocks until a slot is free or the context is canceled. The
// turnstile channel serializes waiters so arrival order is preserved; the
// wait itself is timer-based, never a busy spin.
func (l *RateLimiter) WaitForSlot(ctx context.Context) error {
	select {
	case l.turn <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
	}
	defer func() { <-l.turn }()

	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		// A stamp exactly window old still occupies the window, so the wake
		// must land strictly past the boundary.
		wait := l.stamps[0].Add(l.window).Sub(now) + time.Nanosecond
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return fmt.Errorf("rate limiter canceled: %w", err)
		}
	}
}

// InWindow reports how many admissions remain inside the trailing window.
func (l *RateLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.stamps)
}

// evict drops timestamps strictly older than the trailing window. A stamp
// exactly window old is kept: the window is closed at both ends, so a full
// batch can never share a window with the batch that replaced it. Callers
// must hold the mutex.
func (l *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && l.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
