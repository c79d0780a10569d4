// Package crawl provides sitemap resolution orchestration.
// It walks sitemap trees by coordinating fetching, format detection,
// parsing and page de-duplication.
package crawl

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/whatwg"
)

// Compile-time interface verification.
var _ sitemapper.SitemapService = (*Resolver)(nil)

// Resolver resolves sitemap trees into flat page catalogs.
type Resolver struct {
	Fetcher     sitemapper.Fetcher
	RateLimiter sitemapper.DomainLimiter
	RetryDelays []time.Duration

	// Logf, if set, receives retry and discovery messages.
	Logf LogFunc

	// MaxDecompressedLength bounds gzip-wrapped sitemaps once decompressed.
	// Defaults to DefaultMaxDecompressedLength.
	MaxDecompressedLength int64
}

// Resolve walks the sitemap at rootURL and every sitemap it references.
//
// Failures below the root are recorded as conditions on the result and
// never abort the walk. A root that cannot be fetched returns EUNAVAILABLE;
// cancellation before the root was fetched returns the context error.
func (r *Resolver) Resolve(ctx context.Context, rootURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error) {
	rootURL = strings.TrimSpace(rootURL)
	if !whatwg.IsHTTP(rootURL) {
		return nil, sitemapper.Errorf(sitemapper.EINVALID, "invalid sitemap URL %q", rootURL)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := withDeadline(ctx, opts)
	defer cancel()

	return r.walk(ctx, []Link{{URL: rootURL}}, rootURL, newWalkOptions(opts))
}

func withDeadline(ctx context.Context, opts *sitemapper.ResolveOptions) (context.Context, context.CancelFunc) {
	if opts == nil || opts.Deadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, opts.Deadline)
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
