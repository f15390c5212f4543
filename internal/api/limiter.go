package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleLimiter is how long an unused limiter is kept before it is dropped.
const idleLimiter = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters hands out one token bucket per key.
type Limiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*limiterEntry
	swept   time.Time
}

// NewLimiters allows perSecond events per key with the given burst.
// A non-positive perSecond disables limiting.
func NewLimiters(perSecond float64, burst int) *Limiters {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiters{
		limit:   limit,
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		swept:   time.Now(),
	}
}

// Allow reports whether key may act now and consumes a token if so.
func (l *Limiters) Allow(key string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}

	now := time.Now()
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	if now.Sub(l.swept) > idleLimiter {
		for k, v := range l.entries {
			if now.Sub(v.lastSeen) > idleLimiter {
				delete(l.entries, k)
			}
		}
		l.swept = now
	}
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}
