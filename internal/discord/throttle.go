package discord

import (
	"sync"

	"golang.org/x/time/rate"
)

// throttleSweepSize is the number of tracked authors above which idle limiters are dropped
const throttleSweepSize = 4096

// throttle keeps one token bucket per author
type throttle struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newThrottle(perSecond float64, burst int) *throttle {
	if burst < 1 {
		burst = 1
	}
	return &throttle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *throttle) allow(authorID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[authorID]
	if !ok {
		if len(t.limiters) >= throttleSweepSize {
			t.sweep()
		}
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[authorID] = lim
	}
	return lim.Allow()
}

// sweep removes limiters whose bucket has refilled, since a fresh one behaves the same.
// Callers hold mu.
func (t *throttle) sweep() {
	for id, lim := range t.limiters {
		if lim.Tokens() >= float64(t.burst) {
			delete(t.limiters, id)
		}
	}
}
