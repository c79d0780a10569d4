//go:build integration

package rod_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/sitemapper/crawl"
	"github.com/fwojciec/sitemapper/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Integration_HtmxSitemap(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	resp, err := fetcher.Fetch(ctx, "https://htmx.org/sitemap.xml")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Body, "expected non-empty sitemap")

	format, _, err := crawl.Detect(resp)
	require.NoError(t, err)
	t.Logf("Fetched %d bytes of %s from htmx.org", len(resp.Body), format)
}

func TestFetcher_Integration_ResolveHtmx(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	r := &crawl.Resolver{Fetcher: fetcher}
	result, err := r.Resolve(ctx, "https://htmx.org/sitemap.xml", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Pages)
	for _, c := range result.Conditions {
		t.Logf("  ! %s", c)
	}
}
