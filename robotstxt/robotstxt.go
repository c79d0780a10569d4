// Package robotstxt extracts sitemap locations from robots.txt files.
package robotstxt

import (
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"
)

// SitemapURLs returns the Sitemap: directives of a robots.txt body in the
// order they appear, without duplicates.
func SitemapURLs(body []byte) ([]string, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parsing robots.txt: %w", err)
	}

	seen := make(map[string]bool, len(data.Sitemaps))
	var urls []string
	for _, u := range data.Sitemaps {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, nil
}
