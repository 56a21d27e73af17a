package executor

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window execution counter. It exists to stop
// runaway automated command floods from mutating state faster than the
// side notifications can keep up.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewRateLimiter allows limit executions per rolling window. A limit of
// zero disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, now: time.Now}
}

// Allow records an attempt and reports whether it is within the window
// budget. Refused attempts are not recorded.
func (r *RateLimiter) Allow() bool {
	if r.limit <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	kept := r.stamps[:0]
	for _, ts := range r.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.stamps = kept

	if len(r.stamps) >= r.limit {
		return false
	}
	r.stamps = append(r.stamps, r.now())
	return true
}

// Remaining reports how many executions are left in the current window
func (r *RateLimiter) Remaining() int {
	if r.limit <= 0 {
		return int(^uint(0) >> 1)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	active := 0
	for _, ts := range r.stamps {
		if ts.After(cutoff) {
			active++
		}
	}
	if active >= r.limit {
		return 0
	}
	return r.limit - active
}
