package crawl

import (
	"strings"
	"sync"
)

// Link is a sitemap URL waiting to be resolved.
type Link struct {
	URL   string
	Depth int

	// Optional links are guesses. Their fetch and format failures are not
	// reported as conditions.
	Optional bool
}

// Frontier is the queue of sitemaps still to be fetched together with the
// set of every sitemap URL ever queued. Links are popped in the order they
// were pushed, so the walk is breadth first.
// The visited set is exact: a URL is only treated as visited once it was
// actually pushed. It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	queue   []Link
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push marks the link's URL as visited and queues it.
// Returns false if the URL has already been visited.
// URL fragments are stripped first: URLs differing only by fragment are
// the same sitemap.
func (f *Frontier) Push(link Link) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	link.URL = stripFragment(link.URL)
	if _, ok := f.visited[link.URL]; ok {
		return false
	}
	f.visited[link.URL] = struct{}{}
	f.queue = append(f.queue, link)
	return true
}

// Pop returns the oldest queued link.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (Link, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Link{}, false
	}
	link := f.queue[0]
	f.queue[0] = Link{}
	f.queue = f.queue[1:]
	return link, true
}

// Drain removes and returns every queued link.
func (f *Frontier) Drain() []Link {
	f.mu.Lock()
	defer f.mu.Unlock()

	links := f.queue
	f.queue = nil
	return links
}

// Len returns the number of queued links.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been queued at some point.
// URL fragments are stripped before checking.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.visited[stripFragment(rawURL)]
	return ok
}

// Visited returns the number of distinct URLs ever queued.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}
