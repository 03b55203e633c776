package chaoxing

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - one throttle shared by every outbound request
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter enforces a minimum delay between consecutive outbound
// requests, whichever user issued them. Create one per process and inject
// it into every Transport. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
	delay   time.Duration
	waits   atomic.Int64
}

// NewRateLimiter creates a limiter permitting one request per delay.
// A non-positive delay disables throttling.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
}

// Wait blocks until the next request may be sent or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.waits.Add(1)
	return rl.limiter.Wait(ctx)
}

// Delay returns the configured spacing.
func (rl *RateLimiter) Delay() time.Duration {
	return rl.delay
}

// RateLimiterStatus is a snapshot for diagnostics.
type RateLimiterStatus struct {
	Delay    time.Duration
	Requests int64
}

// Status returns a snapshot of the limiter.
func (rl *RateLimiter) Status() RateLimiterStatus {
	return RateLimiterStatus{
		Delay:    rl.delay,
		Requests: rl.waits.Load(),
	}
}
