package crawl

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sitemapper"
)

// PageSet accumulates unique pages in merge order. Pages are identified by
// Page.Key; when a key is merged twice the first page is kept.
//
// Keys are bucketed by their xxhash so lookups do not depend on keeping a
// second copy of every URL in a map. It is safe for concurrent use.
type PageSet struct {
	mu      sync.Mutex
	buckets map[uint64][]int
	pages   []*sitemapper.Page

	filter *sitemapper.URLFilter
	max    int
}

// NewPageSet returns an empty set. Pages rejected by filter are never
// added. A positive max bounds the number of pages held.
func NewPageSet(filter *sitemapper.URLFilter, max int) *PageSet {
	return &PageSet{
		buckets: make(map[uint64][]int),
		filter:  filter,
		max:     max,
	}
}

// MergeStatus is the outcome of merging a page.
type MergeStatus int

// Merge outcomes.
const (
	MergeAdded MergeStatus = iota
	MergeDuplicate
	MergeFiltered
	MergeOverBudget
)

// Add merges p into the set.
func (s *PageSet) Add(p *sitemapper.Page) MergeStatus {
	key := p.Key()
	if !s.filter.Match(key) {
		return MergeFiltered
	}
	h := xxhash.Sum64String(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, i := range s.buckets[h] {
		if s.pages[i].Key() == key {
			return MergeDuplicate
		}
	}
	if s.max > 0 && len(s.pages) >= s.max {
		return MergeOverBudget
	}
	s.buckets[h] = append(s.buckets[h], len(s.pages))
	s.pages = append(s.pages, p)
	return MergeAdded
}

// Full reports whether the page budget has been reached.
func (s *PageSet) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max > 0 && len(s.pages) >= s.max
}

// Len returns the number of pages held.
func (s *PageSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Pages returns the pages in merge order.
func (s *PageSet) Pages() []*sitemapper.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sitemapper.Page(nil), s.pages...)
}
