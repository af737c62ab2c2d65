package server

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter returns a token bucket holding cfg.Burst frames. Tokens come
// back one at a time, evenly spread, so an empty bucket is full again after
// cfg.RefillInterval.
func newRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = defaultRefillInterval
	}

	return rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)
}
