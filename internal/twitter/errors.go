package twitter

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound signals a user or conversation the platform does not know
var ErrNotFound = errors.New("twitter: not found")

// AuthError signals rejected credentials. It always aborts the run.
type AuthError struct {
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("twitter: authentication failed (status %d): %s", e.StatusCode, e.Detail)
}

// RateLimitError signals an exhausted request window. ResetAt is when the
// platform accepts requests again; the orchestrator owns the waiting.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("twitter: rate limited until %s", e.ResetAt.Format(time.RFC3339))
}
