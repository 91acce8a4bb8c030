package source

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pacer is the backpressure policy between sequential external calls. It is
// injected rather than inlined so tests can disable pacing entirely.
type Pacer interface {
	Pause(ctx context.Context) error
}

// FixedDelayPacer waits a fixed duration between calls.
type FixedDelayPacer struct {
	Delay time.Duration
}

// Pause sleeps for the configured delay, honoring context cancellation.
func (p FixedDelayPacer) Pause(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Delay):
		return nil
	}
}

// NopPacer never waits.
type NopPacer struct{}

func (NopPacer) Pause(context.Context) error { return nil }

// RateLimiter manages GitHub API rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
	UpdateLimit(remaining int, resetTime time.Time)
}

// githubRateLimiter enforces a minimum delay between requests and, when the
// remaining quota runs out, waits for the reset (bounded to under an hour).
type githubRateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	minDelay  time.Duration
	lastCall  time.Time
}

// NewRateLimiter creates a rate limiter primed with GitHub's default quota.
func NewRateLimiter() RateLimiter {
	return &githubRateLimiter{
		remaining: 5000,
		resetTime: time.Now().Add(time.Hour),
		minDelay:  100 * time.Millisecond,
	}
}

// Wait blocks until it is safe to make another API call.
func (r *githubRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remaining <= 10 {
		waitDuration := time.Until(r.resetTime)
		if waitDuration > 0 && waitDuration < time.Hour {
			fmt.Printf("  Rate limit low (%d remaining), waiting %v until reset...\n", r.remaining, waitDuration.Round(time.Second))
			r.mu.Unlock()
			select {
			case <-ctx.Done():
				r.mu.Lock()
				return ctx.Err()
			case <-time.After(waitDuration):
				r.mu.Lock()
			}
		}
		r.remaining = 5000
		r.resetTime = time.Now().Add(time.Hour)
	}

	elapsed := time.Since(r.lastCall)
	if elapsed < r.minDelay {
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		case <-time.After(r.minDelay - elapsed):
			r.mu.Lock()
		}
	}

	r.lastCall = time.Now()
	return nil
}

// UpdateLimit records the rate limit state from API response headers.
func (r *githubRateLimiter) UpdateLimit(remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetTime = resetTime
}
