package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/mock"
	smslog "github.com/fwojciec/sitemapper/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with status, bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sitemapper.Response, error) {
				return &sitemapper.Response{URL: url, StatusCode: http.StatusOK, Body: []byte("<urlset></urlset>")}, nil
			},
		}

		fetcher := smslog.NewLoggingFetcher(inner, debugLogger(&buf))
		resp, err := fetcher.Fetch(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, "<urlset></urlset>", string(resp.Body))
		output := buf.String()
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "url=https://example.com/sitemap.xml")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=17")
		assert.Contains(t, output, "truncated=false")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error and retryability on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sitemapper.Response, error) {
				return nil, &sitemapper.FetchError{URL: url, Message: "Service Unavailable", StatusCode: 503, Retryable: true}
			},
		}

		fetcher := smslog.NewLoggingFetcher(inner, debugLogger(&buf))
		_, err := fetcher.Fetch(context.Background(), "https://example.com/sitemap.xml")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "retryable=true")
		assert.Contains(t, output, `err="fetching https://example.com/sitemap.xml: HTTP 503: Service Unavailable"`)
	})

	t.Run("is silent above debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sitemapper.Response, error) {
				return &sitemapper.Response{URL: url, StatusCode: http.StatusOK}, nil
			},
		}

		fetcher := smslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	t.Run("delegates to inner fetcher", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		closeCalled := false
		inner := &mock.Fetcher{
			CloseFn: func() error {
				closeCalled = true
				return nil
			},
		}

		fetcher := smslog.NewLoggingFetcher(inner, debugLogger(&buf))
		err := fetcher.Close()

		require.NoError(t, err)
		assert.True(t, closeCalled)
	})
}
