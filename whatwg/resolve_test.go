package whatwg_test

import (
	"testing"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/whatwg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLoc(t *testing.T) {
	t.Parallel()

	t.Run("keeps absolute URLs verbatim", func(t *testing.T) {
		t.Parallel()

		got, err := whatwg.ResolveLoc("https://example.com/sitemap.xml", "  https://Example.com/a?b=1  ")

		require.NoError(t, err)
		assert.Equal(t, "https://Example.com/a?b=1", got)
	})

	t.Run("resolves absolute paths", func(t *testing.T) {
		t.Parallel()

		got, err := whatwg.ResolveLoc("https://example.com/maps/sitemap.xml", "/posts.xml")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/posts.xml", got)
	})

	t.Run("resolves relative paths", func(t *testing.T) {
		t.Parallel()

		got, err := whatwg.ResolveLoc("https://example.com/maps/sitemap.xml", "posts.xml")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/maps/posts.xml", got)
	})

	t.Run("rejects empty locations", func(t *testing.T) {
		t.Parallel()

		_, err := whatwg.ResolveLoc("https://example.com/sitemap.xml", " ")

		assert.Equal(t, sitemapper.EINVALID, sitemapper.ErrorCode(err))
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		_, err := whatwg.ResolveLoc("https://example.com/sitemap.xml", "mailto:someone@example.com")

		assert.Equal(t, sitemapper.EINVALID, sitemapper.ErrorCode(err))
	})
}

func TestIsHTTP(t *testing.T) {
	t.Parallel()

	assert.True(t, whatwg.IsHTTP("https://example.com/a"))
	assert.True(t, whatwg.IsHTTP("HTTP://example.com"))
	assert.False(t, whatwg.IsHTTP("ftp://example.com"))
	assert.False(t, whatwg.IsHTTP("https://"))
	assert.False(t, whatwg.IsHTTP("/relative"))
}
