package rod

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of documents loaded before the
// browser is recycled.
const DefaultMaxPages = 75

// BrowserManager owns a headless Chrome instance and replaces it after a
// number of loaded documents. Chrome's baseline memory keeps growing under
// load even when every tab is closed.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	loaded   atomic.Int64
	closed   atomic.Bool

	maxPages    int64
	proxyServer string
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of documents loaded before the browser is
// recycled. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithProxies routes browser traffic through proxies keyed by URL scheme.
// Chrome ignores credentials embedded in proxy URLs.
func WithProxies(proxies map[string]string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.proxyServer = ProxyServer(proxies)
	}
}

// ProxyServer formats per-scheme proxies as a Chrome --proxy-server value,
// e.g. "http=10.10.1.10:3128;https=10.10.1.11:3128".
func ProxyServer(proxies map[string]string) string {
	schemes := make([]string, 0, len(proxies))
	for scheme, proxy := range proxies {
		if proxy != "" {
			schemes = append(schemes, scheme)
		}
	}
	sort.Strings(schemes)

	rules := make([]string, 0, len(schemes))
	for _, scheme := range schemes {
		proxy := proxies[scheme]
		if i := strings.Index(proxy, "://"); i >= 0 {
			proxy = proxy[i+3:]
		}
		if i := strings.LastIndex(proxy, "@"); i >= 0 {
			proxy = proxy[i+1:]
		}
		rules = append(rules, scheme+"="+strings.TrimSuffix(proxy, "/"))
	}
	return strings.Join(rules, ";")
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	browser, lnchr, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.browser, bm.launcher = browser, lnchr
	return bm, nil
}

// Browser returns the current browser, first replacing it if it has loaded
// maxPages documents. Callers report each loaded document with
// IncrementPageCount.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.loaded.Load() >= bm.maxPages {
		bm.recycle()
	}
	return bm.browser
}

// IncrementPageCount records one loaded document.
func (bm *BrowserManager) IncrementPageCount() {
	bm.loaded.Add(1)
}

// Closed reports whether Close has been called.
func (bm *BrowserManager) Closed() bool {
	return bm.closed.Load()
}

// Close shuts the browser down. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	err := shutdown(bm.browser, bm.launcher)
	bm.browser, bm.launcher = nil, nil
	return err
}

// LauncherPID returns the process ID of the browser launcher, or zero once
// the browser is closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

func (bm *BrowserManager) launch() (*rod.Browser, *launcher.Launcher, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if bm.proxyServer != "" {
		lnchr = lnchr.Proxy(bm.proxyServer)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, lnchr, nil
}

// recycle swaps in a fresh browser. The old one is kept when the launch
// fails. Must be called with mu held.
func (bm *BrowserManager) recycle() {
	browser, lnchr, err := bm.launch()
	if err != nil {
		return
	}
	_ = shutdown(bm.browser, bm.launcher)
	bm.browser, bm.launcher = browser, lnchr
	bm.loaded.Store(0)
}

func shutdown(browser *rod.Browser, lnchr *launcher.Launcher) error {
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if lnchr != nil {
		lnchr.Kill()
	}
	return err
}
