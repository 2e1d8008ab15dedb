package parser

import (
	"time"
)

// RateLimiter spaces sequential operations by a fixed interval. Used to
// keep page fetches and downloads polite against the target site.
type RateLimiter struct {
	ticker   *time.Ticker
	interval time.Duration
}

// NewRateLimiter creates a rate limiter with the given minimum interval
// between operations. Call Stop when done, typically via defer.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

// Wait blocks until the next tick. Call before each rate-limited
// operation.
func (rl *RateLimiter) Wait() {
	<-rl.ticker.C
}

// Stop stops the rate limiter and releases its resources.
func (rl *RateLimiter) Stop() {
	rl.ticker.Stop()
}

// Interval returns the configured interval.
func (rl *RateLimiter) Interval() time.Duration {
	return rl.interval
}
