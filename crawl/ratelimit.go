package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/sitemapper"
	"golang.org/x/time/rate"
)

var _ sitemapper.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces sitemap requests per host using token buckets.
// Sitemaps of different hosts are fetched independently; requests to the
// same host wait for their turn.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewDomainLimiter creates a new DomainLimiter allowing rps requests per
// second to each host, with a burst of 1.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return NewDomainLimiterBurst(rps, 1)
}

// NewDomainLimiterBurst is like NewDomainLimiter but allows bursts of up to
// burst requests per host.
func NewDomainLimiterBurst(rps float64, burst int) *DomainLimiter {
	if burst < 1 {
		burst = 1
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// Domains returns the number of hosts seen so far.
func (d *DomainLimiter) Domains() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.limiters)
}
