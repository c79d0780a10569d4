package mock

import (
	"context"

	"github.com/fwojciec/sitemapper"
)

var _ sitemapper.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of sitemapper.SitemapService.
type SitemapService struct {
	ResolveFn         func(ctx context.Context, rootURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error)
	ResolveHomepageFn func(ctx context.Context, homepageURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error)
}

func (s *SitemapService) Resolve(ctx context.Context, rootURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error) {
	return s.ResolveFn(ctx, rootURL, opts)
}

func (s *SitemapService) ResolveHomepage(ctx context.Context, homepageURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error) {
	return s.ResolveHomepageFn(ctx, homepageURL, opts)
}
