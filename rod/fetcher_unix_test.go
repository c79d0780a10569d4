//go:build integration && !windows

package rod_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/fwojciec/sitemapper/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alive reports whether a process with pid exists.
func alive(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}

func TestFetcher_Close_StopsBrowser(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher(rod.WithRecycleAfter(1))
	require.NoError(t, err)

	pid := fetcher.LauncherPID()
	require.NotZero(t, pid)
	require.True(t, alive(pid), "browser should be running")

	require.NoError(t, fetcher.Close())

	assert.Eventually(t, func() bool { return !alive(pid) }, 2*time.Second, 50*time.Millisecond,
		"browser should exit after Close")
	assert.Zero(t, fetcher.LauncherPID())
}
