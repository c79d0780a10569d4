// Package rod fetches sitemaps with a headless Chrome browser so that
// documents behind JavaScript anti-bot interstitials can still be read.
package rod

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements sitemapper.Fetcher at compile time.
var _ sitemapper.Fetcher = (*Fetcher)(nil)

// ChallengeTitle is the document title of Cloudflare's browser check.
const ChallengeTitle = "Just a moment..."

// Defaults for waiting out an interstitial.
const (
	DefaultChallengeWait = 25 * time.Second
	challengePoll        = time.Second
)

// Fetcher retrieves sitemaps by loading them in Chrome.
// Fetcher is safe for concurrent use by multiple goroutines.
//
// Every failure is reported as non-retryable: a browser that could not get
// through once rarely does on the next attempt.
type Fetcher struct {
	manager *BrowserManager

	timeout           time.Duration
	challengeWait     time.Duration
	maxResponseLength int64
	userAgent         string
	proxies           map[string]string
	maxPages          int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout bounds a single fetch, including any interstitial wait.
// Defaults to sitemapper.DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithChallengeWait sets how long an interstitial titled ChallengeTitle is
// polled before the fetch gives up on it. Defaults to DefaultChallengeWait.
func WithChallengeWait(d time.Duration) Option {
	return func(f *Fetcher) {
		f.challengeWait = d
	}
}

// WithRecycleAfter sets how many documents a browser loads before it is
// replaced.
func WithRecycleAfter(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithConfig applies every setting of cfg that is not its zero value.
func WithConfig(cfg sitemapper.FetchConfig) Option {
	return func(f *Fetcher) {
		if cfg.Timeout > 0 {
			f.timeout = cfg.Timeout
		}
		if len(cfg.Proxies) > 0 {
			f.proxies = cfg.Proxies
		}
		if cfg.MaxResponseLength > 0 {
			f.maxResponseLength = cfg.MaxResponseLength
		}
		if cfg.UserAgent != "" {
			f.userAgent = cfg.UserAgent
		}
	}
}

// NewFetcher launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:       sitemapper.DefaultFetchTimeout,
		challengeWait: DefaultChallengeWait,
		maxPages:      DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(WithMaxPages(f.maxPages), WithProxies(f.proxies))
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// document is the main-frame response observed while a page loads.
type document struct {
	mu   sync.Mutex
	last *proto.NetworkResponseReceived
}

func (d *document) observe(e *proto.NetworkResponseReceived) {
	if e.Type != proto.NetworkResourceTypeDocument {
		return
	}
	d.mu.Lock()
	d.last = e
	d.mu.Unlock()
}

func (d *document) response() *proto.NetworkResponseReceived {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Fetch loads url in a new tab and returns the document the browser
// received. When the raw body is no longer available from the browser, the
// rendered page is unwrapped instead.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*sitemapper.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.manager.Closed() {
		return nil, sitemapper.Errorf(sitemapper.EINVALID, "fetcher is closed")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.load(fetchCtx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var fe *sitemapper.FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &sitemapper.FetchError{URL: url, Message: err.Error(), Err: err}
	}
	return resp, nil
}

func (f *Fetcher) load(ctx context.Context, url string) (*sitemapper.Response, error) {
	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)
	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, err
		}
	}
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, err
	}

	var doc document
	eventCtx, stop := context.WithCancel(ctx)
	defer stop()
	wait := page.Context(eventCtx).EachEvent(doc.observe)
	go wait()

	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}
	if err := f.waitChallenge(ctx, page); err != nil {
		return nil, err
	}

	e := doc.response()
	if e == nil || e.Response == nil {
		return nil, &sitemapper.FetchError{URL: url, Message: "no document response"}
	}
	status := e.Response.Status
	if status < 200 || status > 299 {
		return nil, &sitemapper.FetchError{
			URL:        url,
			Message:    e.Response.StatusText,
			StatusCode: status,
		}
	}

	body, err := f.body(page, e.RequestID)
	if err != nil {
		return nil, err
	}

	resp := &sitemapper.Response{
		URL:        e.Response.URL,
		StatusCode: status,
		Header:     header(e.Response),
		Body:       body,
	}
	if f.maxResponseLength > 0 && int64(len(resp.Body)) > f.maxResponseLength {
		resp.Body = resp.Body[:f.maxResponseLength]
		resp.Truncated = true
	}
	return resp, nil
}

// waitChallenge polls the page title while an interstitial is showing.
func (f *Fetcher) waitChallenge(ctx context.Context, page *rod.Page) error {
	deadline := time.Now().Add(f.challengeWait)
	for {
		info, err := page.Info()
		if err != nil {
			return err
		}
		if info.Title != ChallengeTitle {
			return nil
		}
		if time.Now().After(deadline) {
			return &sitemapper.FetchError{URL: info.URL, Message: "anti-bot challenge did not clear"}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(challengePoll):
		}
		if err := page.WaitLoad(); err != nil {
			return err
		}
	}
}

// body returns the raw bytes of the document response, falling back to the
// rendered page when the browser has discarded them.
func (f *Fetcher) body(page *rod.Page, id proto.NetworkRequestID) ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(page)
	if err == nil {
		if res.Base64Encoded {
			return base64.StdEncoding.DecodeString(res.Body)
		}
		return []byte(res.Body), nil
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	raw, err := goquery.Unwrap(html)
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func header(r *proto.NetworkResponse) http.Header {
	h := make(http.Header, len(r.Headers)+1)
	for k, v := range r.Headers {
		h.Set(k, v.Str())
	}
	if h.Get("Content-Type") == "" && r.MIMEType != "" {
		h.Set("Content-Type", r.MIMEType)
	}
	return h
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}
