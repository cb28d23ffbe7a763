// Package fetch - retry.go provides fetching with exponential backoff.
package fetch

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryAttempts is the number of fetch attempts before giving up.
const DefaultRetryAttempts = 3

// URLWithRetry fetches a URL, retrying transient failures with
// exponential backoff. Non-retryable failures (client errors, invalid
// URLs) return immediately; the backoff interval starts at
// Options.RetryBaseDelay and doubles per attempt.
func URLWithRetry(ctx context.Context, urlStr string, opts *Options, attempts int) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	delay := opts.RetryBaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var (
		lastResult *Result
		lastErr    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, err := URL(ctx, urlStr, opts)
		if err == nil {
			return result, nil
		}
		lastResult, lastErr = result, err

		var fetchErr *Error
		if errors.As(err, &fetchErr) && !fetchErr.Retryable {
			return result, err
		}
	}

	return lastResult, lastErr
}
