package crawl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/sitemapper/crawl"
	"github.com/stretchr/testify/assert"
)

func TestFrontier_Push_rejects_duplicate_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	link := crawl.Link{URL: "https://example.com/sitemap.xml"}

	// First push should succeed
	ok := f.Push(link)
	assert.True(t, ok, "first push should succeed")

	// Second push of same URL should be rejected, even at another depth
	link.Depth = 3
	ok = f.Push(link)
	assert.False(t, ok, "duplicate URL should be rejected")
}

func TestFrontier_Push_ignores_fragments(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	assert.True(t, f.Push(crawl.Link{URL: "https://example.com/sitemap.xml#top"}))
	assert.False(t, f.Push(crawl.Link{URL: "https://example.com/sitemap.xml"}))

	link, ok := f.Pop()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/sitemap.xml", link.URL)
}

func TestFrontier_Pop_returns_links_in_push_order(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	f.Push(crawl.Link{URL: "https://example.com/a.xml", Depth: 1})
	f.Push(crawl.Link{URL: "https://example.com/b.xml", Depth: 1})
	f.Push(crawl.Link{URL: "https://example.com/c.xml", Depth: 2, Optional: true})

	link, ok := f.Pop()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a.xml", link.URL)

	link, ok = f.Pop()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/b.xml", link.URL)

	link, ok = f.Pop()
	assert.True(t, ok)
	assert.Equal(t, crawl.Link{URL: "https://example.com/c.xml", Depth: 2, Optional: true}, link)

	// Queue should now be empty
	_, ok = f.Pop()
	assert.False(t, ok, "pop on empty frontier should return false")
}

func TestFrontier_Len_tracks_queue_size(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	assert.Equal(t, 0, f.Len(), "new frontier should be empty")

	f.Push(crawl.Link{URL: "https://example.com/a"})
	assert.Equal(t, 1, f.Len())

	f.Push(crawl.Link{URL: "https://example.com/b"})
	assert.Equal(t, 2, f.Len())

	f.Pop()
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 2, f.Visited())
}

func TestFrontier_Drain_empties_queue(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()
	f.Push(crawl.Link{URL: "https://example.com/a"})
	f.Push(crawl.Link{URL: "https://example.com/b"})

	links := f.Drain()

	assert.Len(t, links, 2)
	assert.Equal(t, 0, f.Len())
	assert.True(t, f.Seen("https://example.com/a"), "drained URL should still be seen")
}

func TestFrontier_Seen_tracks_all_pushed_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	assert.False(t, f.Seen("https://example.com/sitemap.xml"), "unseen URL should return false")

	f.Push(crawl.Link{URL: "https://example.com/sitemap.xml"})

	assert.True(t, f.Seen("https://example.com/sitemap.xml"), "pushed URL should be seen")

	// Pop the URL - it should still be seen
	f.Pop()
	assert.True(t, f.Seen("https://example.com/sitemap.xml"), "popped URL should still be seen")
}

func TestFrontier_never_rejects_unseen_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	for i := range 1000 {
		url := fmt.Sprintf("https://example.com/sitemap-%d.xml", i)
		assert.True(t, f.Push(crawl.Link{URL: url}), "unseen URL %s should be accepted", url)
	}
	assert.Equal(t, 1000, f.Visited())
}

func TestFrontier_concurrent_access(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier()

	const numGoroutines = 10
	const numOpsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 2) // pushers + poppers

	// Start pushers
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOpsPerGoroutine; j++ {
				url := fmt.Sprintf("https://example.com/%d/%d", id, j)
				f.Push(crawl.Link{URL: url})
			}
		}(i)
	}

	// Start poppers
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numOpsPerGoroutine; j++ {
				f.Pop()
				f.Len()
			}
		}()
	}

	wg.Wait()

	// All pushed URLs should be seen
	for i := 0; i < numGoroutines; i++ {
		for j := 0; j < numOpsPerGoroutine; j++ {
			url := fmt.Sprintf("https://example.com/%d/%d", i, j)
			assert.True(t, f.Seen(url), "pushed URL %s should be seen", url)
		}
	}
}
