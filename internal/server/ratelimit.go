package server

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter is a token bucket throttling one session's widget events.
type rateLimiter struct {
	lim *rate.Limiter
}

func newRateLimiter(maxBurst int, ratePerMinute float64) *rateLimiter {
	if maxBurst <= 0 {
		maxBurst = defaultEventBurst
	}
	if ratePerMinute <= 0 {
		ratePerMinute = defaultEventRate
	}
	return &rateLimiter{lim: rate.NewLimiter(rate.Limit(ratePerMinute/60.0), maxBurst)}
}

// allow takes one token if available. It never blocks: an HTTP handler
// answers 429 instead of holding the request.
func (rl *rateLimiter) allow(now time.Time) bool {
	return rl.lim.AllowN(now, 1)
}
