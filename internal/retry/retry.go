// Package retry provides a small retry-with-backoff helper for fallible
// external calls.
package retry

import (
	"context"
	"time"
)

// Do invokes op up to maxAttempts times, sleeping between attempts with an
// exponential backoff that starts at baseDelay and doubles each attempt.
// It returns the first successful result, or the last error once the attempt
// budget is exhausted. Context cancellation aborts the wait immediately.
func Do[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return zero, lastErr
}
