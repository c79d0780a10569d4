//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/sitemapper/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_Browser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		maxPages int64
		loaded   int
		recycled bool
	}{
		{name: "keeps browser below limit", maxPages: 4, loaded: 3, recycled: false},
		{name: "replaces browser at limit", maxPages: 2, loaded: 2, recycled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			manager, err := rod.NewBrowserManager(rod.WithMaxPages(tt.maxPages))
			require.NoError(t, err)
			defer manager.Close()

			before := manager.Browser()
			require.NotNil(t, before)
			for range tt.loaded {
				manager.IncrementPageCount()
			}
			after := manager.Browser()
			require.NotNil(t, after)

			if tt.recycled {
				assert.NotSame(t, before, after)
			} else {
				assert.Same(t, before, after)
			}
		})
	}
}

func TestBrowserManager_Close(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithProxies(map[string]string{"http": "http://127.0.0.1:9"}))
	require.NoError(t, err)
	require.NotZero(t, manager.LauncherPID())
	assert.False(t, manager.Closed())

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	assert.True(t, manager.Closed())
	assert.Zero(t, manager.LauncherPID())
}
