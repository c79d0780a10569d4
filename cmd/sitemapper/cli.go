package main

import (
	"context"
	"io"
	"regexp"
	"time"

	"github.com/fwojciec/sitemapper"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Sitemaps sitemapper.SitemapService
	Options  *sitemapper.ResolveOptions
	JSON     bool
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Resolve  ResolveCmd  `cmd:"" help:"Resolve a sitemap and every sitemap it references"`
	Homepage HomepageCmd `cmd:"" help:"Discover a website's sitemaps and resolve all of them"`

	MaxDepth          int               `default:"10" help:"Deepest sitemap level fetched; the root is level 0 (negative: root only)"`
	MaxPages          int               `help:"Stop collecting after this many unique pages (0: unlimited)"`
	Concurrency       int               `short:"c" default:"3" help:"Sitemaps fetched at once"`
	Deadline          time.Duration     `help:"Time limit for the whole resolution (0: none)"`
	Timeout           time.Duration     `short:"t" default:"60s" env:"SITEMAPPER_TIMEOUT" help:"Timeout per sitemap fetch"`
	Proxy             map[string]string `placeholder:"SCHEME=URL" help:"Proxy per URL scheme, e.g. https=http://10.10.1.10:3128 (repeatable)"`
	MaxResponseLength int64             `help:"Truncate responses, and decompressed sitemaps, to this many bytes (0: unlimited)"`
	UserAgent         string            `env:"SITEMAPPER_USER_AGENT" help:"User-Agent sent with every request"`
	Browser           bool              `help:"Fetch with headless Chrome to get past anti-bot pages"`
	Rate              float64           `help:"Requests per second to each host (0: unlimited)"`
	Cache             string            `type:"path" env:"SITEMAPPER_CACHE" help:"SQLite file caching fetched sitemaps between runs"`
	CacheTTL          time.Duration     `name:"cache-ttl" default:"1h" help:"How long cached sitemaps are reused"`
	Filter            []string          `short:"F" name:"filter" sep:"none" help:"Only keep pages whose URL matches regex (repeatable)"`
	Exclude           []string          `sep:"none" help:"Drop pages whose URL matches regex (repeatable)"`
	ReportDefaults    bool              `help:"Report malformed fields that were replaced by defaults"`
	JSON              bool              `name:"json" help:"Print pages as JSON lines"`
	Verbose           bool              `short:"v" help:"Log fetches and conditions to stderr"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	URL string `arg:"" help:"Sitemap URL"`
}

// HomepageCmd is the "homepage" subcommand.
type HomepageCmd struct {
	URL string `arg:"" help:"Website URL"`
}

// ResolveOptions builds the resolution options selected by flags.
func (c *CLI) ResolveOptions() (*sitemapper.ResolveOptions, error) {
	filter, err := c.urlFilter()
	if err != nil {
		return nil, err
	}

	maxDepth := c.MaxDepth
	if maxDepth == 0 {
		// Zero would mean "default" to the resolver.
		maxDepth = -1
	}

	return &sitemapper.ResolveOptions{
		MaxDepth:       maxDepth,
		MaxPages:       c.MaxPages,
		MaxConcurrency: c.Concurrency,
		Deadline:       c.Deadline,
		ReportDefaults: c.ReportDefaults,
		Filter:         filter,
	}, nil
}

// FetchConfig builds the fetcher settings selected by flags.
func (c *CLI) FetchConfig() sitemapper.FetchConfig {
	return sitemapper.FetchConfig{
		Timeout:           c.Timeout,
		Proxies:           c.Proxy,
		MaxResponseLength: c.MaxResponseLength,
		UserAgent:         c.UserAgent,
	}
}

func (c *CLI) urlFilter() (*sitemapper.URLFilter, error) {
	if len(c.Filter) == 0 && len(c.Exclude) == 0 {
		return nil, nil
	}

	filter := &sitemapper.URLFilter{}
	for _, pattern := range c.Filter {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, sitemapper.Errorf(sitemapper.EINVALID, "invalid filter pattern %q: %v", pattern, err)
		}
		filter.Include = append(filter.Include, re)
	}
	for _, pattern := range c.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, sitemapper.Errorf(sitemapper.EINVALID, "invalid exclude pattern %q: %v", pattern, err)
		}
		filter.Exclude = append(filter.Exclude, re)
	}
	return filter, nil
}
