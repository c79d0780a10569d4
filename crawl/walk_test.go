package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResponse(url, body string) *sitemapper.Response {
	return &sitemapper.Response{URL: url, StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}
}

func TestWalk_Concurrency(t *testing.T) {
	t.Parallel()

	t.Run("fetches sibling sitemaps in parallel", func(t *testing.T) {
		t.Parallel()

		// Track concurrent fetch count using atomics to avoid data races
		var maxConcurrent atomic.Int32
		var currentConcurrent atomic.Int32

		const numChildren = 10
		const concurrency = 3

		var children []string
		for i := 1; i <= numChildren; i++ {
			children = append(children, fmt.Sprintf("https://example.com/sitemap-%d.xml", i))
		}

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*sitemapper.Response, error) {
				if url == "https://example.com/sitemap.xml" {
					return okResponse(url, sitemapIndex(children...)), nil
				}

				current := currentConcurrent.Add(1)
				for {
					max := maxConcurrent.Load()
					if current <= max || maxConcurrent.CompareAndSwap(max, current) {
						break
					}
				}

				// Simulate work to allow concurrency to build up
				time.Sleep(50 * time.Millisecond)

				currentConcurrent.Add(-1)
				return okResponse(url, urlset(strings.Replace(url, ".xml", ".html", 1))), nil
			},
		}

		result, err := newResolver(fetcher).Resolve(context.Background(), "https://example.com/sitemap.xml", &sitemapper.ResolveOptions{MaxConcurrency: concurrency})

		require.NoError(t, err)
		assert.Len(t, result.Pages, numChildren)
		assert.Empty(t, result.Conditions)
		assert.GreaterOrEqual(t, maxConcurrent.Load(), int32(2),
			"expected at least 2 concurrent fetches, got %d", maxConcurrent.Load())
		assert.LessOrEqual(t, maxConcurrent.Load(), int32(concurrency))
	})

	t.Run("bounds generated sitemap trees by depth", func(t *testing.T) {
		t.Parallel()

		var fetchCount atomic.Int32

		// Every sitemap references five new ones, so the tree never ends.
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*sitemapper.Response, error) {
				fetchCount.Add(1)
				base := strings.TrimSuffix(url, ".xml")
				var children []string
				for i := range 5 {
					children = append(children, fmt.Sprintf("%s-%d.xml", base, i))
				}
				return okResponse(url, sitemapIndex(children...)), nil
			},
		}

		result, err := newResolver(fetcher).Resolve(context.Background(), "https://example.com/s.xml", &sitemapper.ResolveOptions{MaxDepth: 2, MaxConcurrency: 4})

		require.NoError(t, err)
		assert.Empty(t, result.Pages)
		assert.Equal(t, int32(1+5+25), fetchCount.Load())
		require.Len(t, result.Conditions, 125)
		for _, c := range result.Conditions {
			assert.Equal(t, sitemapper.ConditionDepthExceeded, c.Kind)
		}
	})

	t.Run("waits on rate limiter once per fetched sitemap", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var hosts []string

		s := newSite(map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex(
				"https://example.com/a.xml",
				"https://example.com/b.xml",
				"https://media.example.com/c.xml",
			),
			"https://example.com/a.xml":       urlset("https://example.com/a"),
			"https://example.com/b.xml":       urlset("https://example.com/b"),
			"https://media.example.com/c.xml": urlset("https://example.com/c"),
		})
		r := newResolver(s.fetcher())
		r.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				mu.Lock()
				hosts = append(hosts, domain)
				mu.Unlock()
				return nil
			},
		}

		result, err := r.Resolve(context.Background(), "https://example.com/sitemap.xml", &sitemapper.ResolveOptions{MaxConcurrency: 3})

		require.NoError(t, err)
		assert.Len(t, result.Pages, 3)
		assert.ElementsMatch(t, []string{"example.com", "example.com", "example.com", "media.example.com"}, hosts)
	})

	t.Run("reports rate limiter failure as fetch failure", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			"https://example.com/sitemap.xml":   sitemapIndex("https://example.com/a.xml", "https://blocked.example.com/b.xml"),
			"https://example.com/a.xml":         urlset("https://example.com/a"),
			"https://blocked.example.com/b.xml": urlset("https://example.com/b"),
		})
		r := newResolver(s.fetcher())
		r.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				if domain == "blocked.example.com" {
					return errors.New("rate: Wait(n=1) would exceed context deadline")
				}
				return nil
			},
		}

		result, err := r.Resolve(context.Background(), "https://example.com/sitemap.xml", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a"}, pageURLs(result.Pages))
		require.Len(t, result.Conditions, 1)
		assert.Equal(t, sitemapper.ConditionFetchFailed, result.Conditions[0].Kind)
		assert.Equal(t, "https://blocked.example.com/b.xml", result.Conditions[0].URL)
		assert.Equal(t, 0, s.fetchCount("https://blocked.example.com/b.xml"))
	})
}
