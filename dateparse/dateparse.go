// Package dateparse parses the dates found in sitemaps and feeds.
//
// Sitemaps nominally use W3C Datetime and feeds use RFC 822 or RFC 3339, but
// real documents contain almost anything, so parsing falls back to
// github.com/araddon/dateparse for unusual layouts.
package dateparse

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts are tried before the heuristic parser, most common first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// Parse parses s as a date. The bool result is false if s is blank or
// cannot be parsed. Dates without a zone are interpreted as UTC.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
