package executor

import (
	"testing"
	"time"
)

// TestRateLimiterWindow verifies the sliding window with an injected clock
func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRateLimiter(2, time.Minute)
	r.now = func() time.Time { return now }

	if !r.Allow() || !r.Allow() {
		t.Fatal("first two attempts should pass")
	}
	if r.Allow() {
		t.Error("third attempt inside the window should be refused")
	}
	if got := r.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	// The refused attempt is not recorded; after the window slides past the
	// first two stamps the budget is restored.
	now = now.Add(61 * time.Second)
	if !r.Allow() {
		t.Error("attempt after the window slid should pass")
	}
	if got := r.Remaining(); got != 1 {
		t.Errorf("Remaining after slide = %d, want 1", got)
	}
}

// TestRateLimiterDisabled verifies a zero limit disables limiting
func TestRateLimiterDisabled(t *testing.T) {
	r := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !r.Allow() {
			t.Fatal("disabled limiter should always allow")
		}
	}
}
