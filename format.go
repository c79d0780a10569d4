package sitemapper

import "errors"

// Format identifies the concrete format of a sitemap document.
type Format int

// Supported sitemap formats.
const (
	FormatUnknown Format = iota
	FormatURLSet
	FormatSitemapIndex
	FormatNewsURLSet
	FormatRSS
	FormatAtom
	FormatPlainText
	FormatGzip
)

// String returns the format tag.
func (f Format) String() string {
	switch f {
	case FormatURLSet:
		return "urlset"
	case FormatSitemapIndex:
		return "sitemapindex"
	case FormatNewsURLSet:
		return "news-urlset"
	case FormatRSS:
		return "rss-feed"
	case FormatAtom:
		return "atom-feed"
	case FormatPlainText:
		return "plain-text-url-list"
	case FormatGzip:
		return "gzip-wrapped"
	default:
		return "unknown"
	}
}

// ErrUnrecognizedFormat is returned by format detection when a non-empty
// document matches none of the supported formats.
var ErrUnrecognizedFormat = errors.New("unrecognized sitemap format")

// ParseResult is what a format parser extracts from one document.
// Most formats populate only one of Pages and Sitemaps.
type ParseResult struct {
	Pages    []*Page
	Sitemaps []string

	// Defaults lists the fields whose values were malformed and were
	// replaced by their default. Absent optional fields are not listed.
	Defaults []FieldDefault
}

// FieldDefault records a malformed field that a parser substituted with its
// default.
type FieldDefault struct {
	Loc   string // URL of the entry the field belongs to
	Field string // e.g. "priority", "lastmod"
	Value string // raw value found in the document
}
