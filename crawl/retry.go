package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/sitemapper"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*sitemapper.Response, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetryDelays fetches url, waiting delays[i] before retry i+1.
// The logger function, if provided, is called for each retry attempt.
//
// Only errors for which sitemapper.IsRetryable reports true are retried.
// The returned int is the number of attempts made.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*sitemapper.Response, int, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		attempts++
		resp, err := fetch(ctx, url)
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err

		if !sitemapper.IsRetryable(err) || attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return nil, attempts, ctx.Err()
		default:
		}

		if logger != nil {
			logger("retry %s (attempt %d): %v", url, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, attempts, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, attempts, lastErr
}
