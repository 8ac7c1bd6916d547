package twitter

import "time"

const windowLength = 15 * time.Minute

// RateBudget tracks how many requests remain in the current rate-limit
// window. The limit stays below the platform's own cap so a run never
// rides the edge of a 429. The budget is owned by the orchestrator and
// consulted by the client on every request; nothing here sleeps.
type RateBudget struct {
	limit     int
	remaining int
	resetAt   time.Time
	now       func() time.Time
}

func NewRateBudget(limit int) *RateBudget {
	return &RateBudget{
		limit:     limit,
		remaining: limit,
		resetAt:   time.Now().Add(windowLength),
		now:       time.Now,
	}
}

// Take consumes one request from the window. It reports false, with the
// reset time, when the budget is spent.
func (b *RateBudget) Take() (bool, time.Time) {
	if b.now().After(b.resetAt) {
		b.remaining = b.limit
		b.resetAt = b.now().Add(windowLength)
	}
	if b.remaining <= 0 {
		return false, b.resetAt
	}
	b.remaining--
	return true, b.resetAt
}

// Observe folds the platform's rate-limit headers into the local window.
// The platform's accounting wins whenever it is stricter than ours.
func (b *RateBudget) Observe(remaining int, resetAt time.Time) {
	if !resetAt.IsZero() {
		b.resetAt = resetAt
	}
	if remaining >= 0 && remaining < b.remaining {
		b.remaining = remaining
	}
}

// Remaining reports how many requests are left in the current window
func (b *RateBudget) Remaining() int {
	return b.remaining
}
