package util

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket for API requests. A zero or negative rate
// disables limiting.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a limiter refilling r tokens per second up to burst b.
func NewLimiter(r float64, b int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	return &Limiter{inner: rate.NewLimiter(limit, b)}
}

// Allow consumes one token if available.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// RetryAfter reports how long a caller should wait before one token is
// available, without consuming it.
func (l *Limiter) RetryAfter() time.Duration {
	now := time.Now()
	r := l.inner.ReserveN(now, 1)
	if !r.OK() {
		return time.Second
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}
