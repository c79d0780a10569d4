package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitemapper"
)

// Ensure LoggingFetcher implements sitemapper.Fetcher.
var _ sitemapper.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   sitemapper.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next sitemapper.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *sitemapper.Response, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", url, "duration", time.Since(begin)}
		if resp != nil {
			attrs = append(attrs,
				"status", resp.StatusCode,
				"bytes", len(resp.Body),
				"truncated", resp.Truncated,
			)
		}
		if err != nil {
			attrs = append(attrs, "retryable", sitemapper.IsRetryable(err), "err", err)
		}
		f.logger.Debug("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
