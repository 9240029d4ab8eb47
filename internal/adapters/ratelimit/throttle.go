package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval keeps sends under typical provider per-second limits.
const DefaultInterval = 500 * time.Millisecond

// Throttler spaces consecutive calls at least the configured interval apart. The first call
// returns immediately. Safe for concurrent use.
type Throttler struct {
	limiter *rate.Limiter
}

// NewThrottler returns a throttler with the given minimum spacing.
// A non-positive interval disables pacing.
func NewThrottler(interval time.Duration) *Throttler {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttler{limiter: rate.NewLimiter(limit, 1)}
}

// Throttle blocks until the next send may start. It only fails when ctx is done
// or its deadline would pass before the wait completes.
func (t *Throttler) Throttle(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
