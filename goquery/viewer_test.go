package goquery_test

import (
	"testing"

	"github.com/fwojciec/sitemapper/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrap(t *testing.T) {
	t.Parallel()

	t.Run("extracts source from XML viewer", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><style>.hidden{display:none}</style></head><body>
<div class="header"><span>This XML file does not appear to have any style information associated with it.</span></div>
<div class="pretty-print"><div class="folder">&lt;urlset&gt;</div></div>
<div id="webkit-xml-viewer-source-xml"><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://example.com/a?x=1&amp;y=2</loc></url></urlset></div>
</body></html>`

		got, err := goquery.Unwrap(html)

		require.NoError(t, err)
		assert.Equal(t, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://example.com/a?x=1&amp;y=2</loc></url></urlset>`, got)
	})

	t.Run("keeps prefixed sitemap extensions", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div id="webkit-xml-viewer-source-xml"><urlset><url><loc>https://example.com/a</loc><news:news><news:title>Hello</news:title></news:news></url></urlset></div></body></html>`

		got, err := goquery.Unwrap(html)

		require.NoError(t, err)
		assert.Contains(t, got, "<news:title>Hello</news:title>")
	})

	t.Run("extracts text from pre wrapper", func(t *testing.T) {
		t.Parallel()

		html := `<html><head></head><body><pre style="word-wrap: break-word; white-space: pre-wrap;">https://example.com/a
https://example.com/b?x=1&amp;y=2
</pre></body></html>`

		got, err := goquery.Unwrap(html)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a\nhttps://example.com/b?x=1&y=2\n", got)
	})

	t.Run("returns other pages unchanged", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html><html><body><h1>Not found</h1><pre>code</pre></body></html>`

		got, err := goquery.Unwrap(html)

		require.NoError(t, err)
		assert.Equal(t, html, got)
	})
}
