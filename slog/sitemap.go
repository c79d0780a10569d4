// Package slog decorates sitemapper services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitemapper"
	"github.com/google/uuid"
)

// Ensure LoggingSitemapService implements sitemapper.SitemapService.
var _ sitemapper.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging. Each call is
// tagged with a run ID so that its conditions can be told apart when
// resolutions overlap.
type LoggingSitemapService struct {
	next   sitemapper.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next sitemapper.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// Resolve delegates to the wrapped service and logs the outcome.
func (s *LoggingSitemapService) Resolve(ctx context.Context, rootURL string, opts *sitemapper.ResolveOptions) (result *sitemapper.Result, err error) {
	logger := s.logger.With("run", uuid.NewString())
	defer func(begin time.Time) {
		logResult(logger, "sitemap resolution", rootURL, begin, result, err)
	}(time.Now())
	return s.next.Resolve(ctx, rootURL, opts)
}

// ResolveHomepage delegates to the wrapped service and logs the outcome.
func (s *LoggingSitemapService) ResolveHomepage(ctx context.Context, homepageURL string, opts *sitemapper.ResolveOptions) (result *sitemapper.Result, err error) {
	logger := s.logger.With("run", uuid.NewString())
	defer func(begin time.Time) {
		logResult(logger, "homepage resolution", homepageURL, begin, result, err)
	}(time.Now())
	return s.next.ResolveHomepage(ctx, homepageURL, opts)
}

func logResult(logger *slog.Logger, msg, url string, begin time.Time, result *sitemapper.Result, err error) {
	if err != nil {
		logger.Error(msg, "url", url, "duration", time.Since(begin), "err", err)
		return
	}

	for _, c := range result.Conditions {
		level := slog.LevelWarn
		if c.Kind.Warning() {
			level = slog.LevelDebug
		}
		attrs := []any{"kind", string(c.Kind), "url", c.URL, "detail", c.Detail}
		if c.Attempts > 0 {
			attrs = append(attrs, "attempts", c.Attempts)
		}
		logger.Log(context.Background(), level, "condition", attrs...)
	}

	logger.Info(msg,
		"url", url,
		"pages", len(result.Pages),
		"conditions", len(result.Conditions),
		"complete", result.Complete(),
		"duration", time.Since(begin),
	)
}
