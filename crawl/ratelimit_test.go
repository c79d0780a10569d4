package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ sitemapper.DomainLimiter = (*crawl.DomainLimiter)(nil)

// timeWait measures one Wait call.
func timeWait(t *testing.T, l *crawl.DomainLimiter, host string) time.Duration {
	t.Helper()
	begin := time.Now()
	require.NoError(t, l.Wait(context.Background(), host))
	return time.Since(begin)
}

func TestDomainLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("first sitemap of a host is not delayed", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(5)

		assert.Less(t, timeWait(t, l, "example.com"), 50*time.Millisecond)
	})

	t.Run("spaces sitemaps of one host", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(10)
		timeWait(t, l, "example.com")

		assert.GreaterOrEqual(t, timeWait(t, l, "example.com"), 80*time.Millisecond)
	})

	t.Run("hosts are limited independently", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(10)
		timeWait(t, l, "example.com")

		assert.Less(t, timeWait(t, l, "cdn.example.com"), 50*time.Millisecond)
		assert.Equal(t, 2, l.Domains())
	})

	t.Run("burst allows back-to-back requests", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiterBurst(1, 3)
		for range 3 {
			assert.Less(t, timeWait(t, l, "example.com"), 50*time.Millisecond)
		}
	})

	t.Run("burst below one behaves like one", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiterBurst(10, 0)
		timeWait(t, l, "example.com")

		assert.GreaterOrEqual(t, timeWait(t, l, "example.com"), 80*time.Millisecond)
	})

	t.Run("returns error when context ends first", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(1)
		timeWait(t, l, "example.com")

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.Error(t, l.Wait(ctx, "example.com"))
	})

	t.Run("concurrent waiters all get through", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(200)
		errs := make(chan error, 8)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- l.Wait(context.Background(), "example.com")
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, l.Domains())
	})
}
