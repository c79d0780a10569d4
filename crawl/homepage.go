package crawl

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/robotstxt"
	"github.com/fwojciec/sitemapper/whatwg"
)

// WellKnownSitemapPaths are locations where sites commonly publish sitemaps
// without listing them in robots.txt.
var WellKnownSitemapPaths = []string{
	"sitemap.xml",
	"sitemap.xml.gz",
	"sitemap_index.xml",
	"sitemap-index.xml",
	"sitemap_index.xml.gz",
	"sitemap-index.xml.gz",
	".sitemap.xml",
	"sitemap",
	"admin/config/search/xmlsitemap",
	"sitemap/sitemap-index.xml",
	"sitemap_news.xml",
	"sitemap-news.xml",
	"sitemap_news.xml.gz",
	"sitemap-news.xml.gz",
}

// ResolveHomepage discovers the sitemaps of the site serving homepageURL
// and resolves all of them in a single walk.
//
// Sitemaps declared in robots.txt are resolved like any other branch.
// The well-known locations are guesses: failing to fetch or recognize one
// of them is not reported.
func (r *Resolver) ResolveHomepage(ctx context.Context, homepageURL string, opts *sitemapper.ResolveOptions) (*sitemapper.Result, error) {
	base, err := siteRoot(homepageURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := withDeadline(ctx, opts)
	defer cancel()

	seeds, err := r.discoverSeeds(ctx, base)
	if err != nil {
		return nil, err
	}
	return r.walk(ctx, seeds, "", newWalkOptions(opts))
}

// discoverSeeds returns the sitemaps declared in the site's robots.txt
// followed by the well-known guesses.
func (r *Resolver) discoverSeeds(ctx context.Context, base string) ([]Link, error) {
	var seeds []Link

	robotsURL := base + "robots.txt"
	delays := r.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	resp, _, err := FetchWithRetryDelays(ctx, robotsURL, r.Fetcher.Fetch, r.Logf, delays)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		r.logf("no robots.txt at %s: %v", robotsURL, err)
	default:
		declared, err := robotstxt.SitemapURLs(resp.Body)
		if err != nil {
			r.logf("ignoring robots.txt at %s: %v", robotsURL, err)
		}
		for _, u := range declared {
			loc, err := whatwg.ResolveLoc(robotsURL, u)
			if err != nil {
				r.logf("ignoring sitemap %q in %s: %v", u, robotsURL, err)
				continue
			}
			seeds = append(seeds, Link{URL: loc})
		}
	}

	for _, p := range WellKnownSitemapPaths {
		seeds = append(seeds, Link{URL: base + p, Optional: true})
	}
	return seeds, nil
}

// siteRoot reduces a homepage URL to the root of its site, with a trailing
// slash.
func siteRoot(homepageURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(homepageURL))
	if err != nil {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "invalid homepage URL %q: %v", homepageURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "invalid homepage URL %q: must be an http(s) URL", homepageURL)
	}
	return scheme + "://" + u.Host + "/", nil
}
