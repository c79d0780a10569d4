// Package whatwg resolves the locations found in sitemaps against the URL of
// the sitemap that contains them, using the WHATWG URL standard as browsers
// do.
package whatwg

import (
	"strings"

	"github.com/fwojciec/sitemapper"
	whatwgurl "github.com/nlnwa/whatwg-url/url"
)

var parser = whatwgurl.NewParser(whatwgurl.WithPercentEncodeSinglePercentSign())

// ResolveLoc resolves loc against the URL of the document it was found in.
// Absolute http(s) locations are returned trimmed but otherwise untouched so
// that page identity is preserved exactly as published.
//
// Returns EINVALID if loc is blank or does not resolve to an http(s) URL.
func ResolveLoc(documentURL, loc string) (string, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "empty location")
	}
	if IsHTTP(loc) {
		return loc, nil
	}

	u, err := parser.ParseRef(documentURL, loc)
	if err != nil {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "invalid location %q: %v", loc, err)
	}
	if p := u.Protocol(); p != "http:" && p != "https:" {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "location %q is not an http(s) URL", loc)
	}
	return u.Href(false), nil
}

// IsHTTP reports whether s is an absolute http or https URL.
func IsHTTP(s string) bool {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	_, rest, _ := strings.Cut(lower, "://")
	return rest != "" && rest[0] != '/'
}
