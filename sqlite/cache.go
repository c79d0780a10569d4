package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/sitemapper"
)

// DefaultCacheTTL is how long a cached document is served before it is
// fetched again.
const DefaultCacheTTL = time.Hour

// Compile-time interface verification.
var _ sitemapper.Fetcher = (*CachingFetcher)(nil)

// CachingFetcher serves documents from the database while they are fresh
// and stores every successful fetch of the wrapped Fetcher. Failed fetches
// are never cached.
type CachingFetcher struct {
	next sitemapper.Fetcher
	db   *DB
	ttl  time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewCachingFetcher creates a new CachingFetcher. A ttl of zero uses
// DefaultCacheTTL.
func NewCachingFetcher(next sitemapper.Fetcher, db *DB, ttl time.Duration) *CachingFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingFetcher{next: next, db: db, ttl: ttl, Now: time.Now}
}

// Fetch returns the cached document for url when it is fresh, otherwise it
// fetches and stores it.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (*sitemapper.Response, error) {
	if resp, err := f.lookup(ctx, url); err != nil {
		return nil, err
	} else if resp != nil {
		return resp, nil
	}

	resp, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := f.store(ctx, url, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// lookup returns nil without error on a miss, a stale entry, or an entry
// whose body no longer matches its hash.
func (f *CachingFetcher) lookup(ctx context.Context, url string) (*sitemapper.Response, error) {
	var (
		finalURL, contentType, hash, fetchedAt string
		status                                 int
		body                                   []byte
		truncated                              bool
	)
	err := f.db.QueryRowContext(ctx, `
		SELECT final_url, status, content_type, body, body_hash, truncated, fetched_at
		FROM responses
		WHERE url = ?
	`, url).Scan(&finalURL, &status, &contentType, &body, &hash, &truncated, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading cached %s: %w", url, err)
	}

	fetched, err := parseRFC3339(fetchedAt, "fetched_at")
	if err != nil {
		return nil, err
	}
	if f.Now().Sub(fetched) >= f.ttl || hashBody(body) != hash {
		return nil, nil
	}

	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &sitemapper.Response{
		URL:        finalURL,
		StatusCode: status,
		Header:     header,
		Body:       body,
		Truncated:  truncated,
	}, nil
}

func (f *CachingFetcher) store(ctx context.Context, url string, resp *sitemapper.Response) error {
	body := resp.Body
	if body == nil {
		body = []byte{}
	}
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO responses (url, final_url, status, content_type, body, body_hash, truncated, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			final_url = excluded.final_url,
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			body_hash = excluded.body_hash,
			truncated = excluded.truncated,
			fetched_at = excluded.fetched_at
	`, url, resp.URL, resp.StatusCode, resp.ContentType(), body, hashBody(body), resp.Truncated,
		formatTime(f.Now()))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("caching %s: %w", url, err)
	}
	return nil
}

// Close closes the wrapped fetcher. The database is owned by the caller.
func (f *CachingFetcher) Close() error {
	return f.next.Close()
}

// Prune deletes entries that are no longer fresh and returns how many were
// removed.
func (f *CachingFetcher) Prune(ctx context.Context) (int64, error) {
	cutoff := formatTime(f.Now().Add(-f.ttl))
	res, err := f.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}
