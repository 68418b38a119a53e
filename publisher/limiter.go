package publisher

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// PublishLimiter is a token bucket gate in front of Publish. It is optional;
// a nil limiter admits everything. The limiter pointer is swapped atomically
// so the rate can be reloaded at runtime without a lock on the publish path.
type PublishLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewPublishLimiter creates a token bucket admitting limit collections per
// second with the given burst.
func NewPublishLimiter(limit int, burst int) *PublishLimiter {
	l := &PublishLimiter{}
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
	return l
}

// Allow reports whether one collection may be admitted now. It never blocks;
// Publish drops what the bucket rejects.
func (l *PublishLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Load().Allow()
}

// Reload swaps in a new rate at runtime.
func (l *PublishLimiter) Reload(limit int, burst int) {
	if l == nil {
		return
	}
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
}
