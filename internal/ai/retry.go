package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxCallAttempts = 3
	attemptTimeout  = 60 * time.Second
)

var (
	rateLimitWaits   = []time.Duration{15 * time.Second, 30 * time.Second}
	serverErrorWaits = []time.Duration{2 * time.Second, 8 * time.Second}
)

// callWithRetry runs fn up to maxCallAttempts times, waiting between
// attempts when the failure looks transient. Anything else is returned
// immediately. Each attempt gets its own deadline so a hung call cannot
// stall the whole run.
func callWithRetry(ctx context.Context, logger *zap.Logger, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCallAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		text, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case isRateLimitError(err):
			wait = waitFor(rateLimitWaits, attempt)
		case isServerError(err) || errors.Is(err, context.DeadlineExceeded):
			wait = waitFor(serverErrorWaits, attempt)
		default:
			return "", err
		}
		if attempt == maxCallAttempts {
			break
		}
		logger.Warn("Transient model error, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func waitFor(waits []time.Duration, attempt int) time.Duration {
	if attempt-1 < len(waits) {
		return waits[attempt-1]
	}
	return waits[len(waits)-1]
}

func isRateLimitError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}
