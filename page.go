package sitemapper

import (
	"slices"
	"strings"
	"time"
)

// DefaultPriority is the priority of a page whose sitemap entry does not
// declare one.
const DefaultPriority = 0.5

// ChangeFrequency is how often a page is expected to change.
// The empty value means the sitemap did not say.
type ChangeFrequency string

// Change frequencies defined by the sitemaps protocol.
const (
	ChangeAlways  ChangeFrequency = "always"
	ChangeHourly  ChangeFrequency = "hourly"
	ChangeDaily   ChangeFrequency = "daily"
	ChangeWeekly  ChangeFrequency = "weekly"
	ChangeMonthly ChangeFrequency = "monthly"
	ChangeYearly  ChangeFrequency = "yearly"
	ChangeNever   ChangeFrequency = "never"
)

// ParseChangeFrequency parses a changefreq value case-insensitively.
// The bool result is false if s is not one of the defined frequencies.
func ParseChangeFrequency(s string) (ChangeFrequency, bool) {
	f := ChangeFrequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case ChangeAlways, ChangeHourly, ChangeDaily, ChangeWeekly, ChangeMonthly, ChangeYearly, ChangeNever:
		return f, true
	}
	return "", false
}

// Page is a single URL discovered in a sitemap document.
//
// Two pages describe the same resource iff their Key values are equal. All
// other fields are informational: the same URL may appear in several
// sitemaps with slightly different metadata.
type Page struct {
	URL             string
	Priority        float64
	LastModified    time.Time // zero if absent
	ChangeFrequency ChangeFrequency
	NewsStory       *NewsStory
	Image           *Image
}

// NewPage returns a page for url with the default priority.
func NewPage(url string) *Page {
	return &Page{
		URL:      url,
		Priority: DefaultPriority,
	}
}

// Key returns the identity key used for deduplication.
func (p *Page) Key() string {
	return p.URL
}

// Validate returns an error if the page contains invalid fields.
func (p *Page) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	if p.Priority < 0 || p.Priority > 1 {
		return Errorf(EINVALID, "page priority %v out of range [0, 1]", p.Priority)
	}
	return nil
}

// Equal reports whether p and other are structurally identical,
// including all metadata.
func (p *Page) Equal(other *Page) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.URL == other.URL &&
		p.Priority == other.Priority &&
		p.LastModified.Equal(other.LastModified) &&
		p.ChangeFrequency == other.ChangeFrequency &&
		p.NewsStory.Equal(other.NewsStory) &&
		p.Image.Equal(other.Image)
}

// NewsStory is a story annotation from a Google News sitemap.
//
// The news sitemap format nominally requires more fields, but real-world
// documents omit them, so only Title and PublishDate are mandatory.
type NewsStory struct {
	Title               string
	PublishDate         time.Time
	PublicationName     string
	PublicationLanguage string // ISO 639 code, 2 or 3 letters

	// Access is the accessibility of the article, e.g. "Subscription".
	Access string

	// Genres such as "PressRelease" or "UserGenerated".
	Genres   []string
	Keywords []string

	// StockTickers are prefixed by their exchange, e.g. "NASDAQ:AMAT".
	// The format allows up to 5; this is not enforced.
	StockTickers []string
}

// Equal reports whether s and other have identical fields.
func (s *NewsStory) Equal(other *NewsStory) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Title == other.Title &&
		s.PublishDate.Equal(other.PublishDate) &&
		s.PublicationName == other.PublicationName &&
		s.PublicationLanguage == other.PublicationLanguage &&
		s.Access == other.Access &&
		slices.Equal(s.Genres, other.Genres) &&
		slices.Equal(s.Keywords, other.Keywords) &&
		slices.Equal(s.StockTickers, other.StockTickers)
}

// Image is an image annotation attached to a page.
type Image struct {
	URL     string
	Title   string
	Caption string
}

// Key returns the identity key of the image, its URL.
func (i *Image) Key() string {
	return i.URL
}

// Equal reports whether i and other have identical fields.
func (i *Image) Equal(other *Image) bool {
	if i == nil || other == nil {
		return i == other
	}
	return *i == *other
}
