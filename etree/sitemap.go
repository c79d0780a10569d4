// Package etree parses XML sitemaps (urlset, Google News urlset and
// sitemapindex documents) using github.com/beevik/etree.
//
// Parsing is tolerant: real-world sitemaps routinely violate the protocol,
// so malformed optional fields fall back to their defaults instead of
// discarding the entry.
package etree

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/dateparse"
	"github.com/fwojciec/sitemapper/whatwg"
	"golang.org/x/net/html/charset"
)

// XML namespaces of the sitemap extensions.
const (
	NewsNamespace  = "http://www.google.com/schemas/sitemap-news/0.9"
	ImageNamespace = "http://www.google.com/schemas/sitemap-image/1.1"
)

// ParseURLSet extracts pages from a <urlset> document.
//
// When the document is malformed part way through, the entries parsed
// before the error are returned together with the error.
func ParseURLSet(documentURL string, body []byte) (*sitemapper.ParseResult, error) {
	return parseURLSet(documentURL, body, false)
}

// ParseNewsURLSet extracts pages from a Google News <urlset> document,
// attaching a NewsStory to every entry with a usable <news:news> block.
//
// A story is kept as long as it has a title and a publication date; other
// missing fields are left empty.
func ParseNewsURLSet(documentURL string, body []byte) (*sitemapper.ParseResult, error) {
	return parseURLSet(documentURL, body, true)
}

// ParseSitemapIndex extracts child sitemap URLs from a <sitemapindex>
// document. Entries without a usable <loc> are skipped.
func ParseSitemapIndex(documentURL string, body []byte) (*sitemapper.ParseResult, error) {
	root, readErr := readRoot(body)
	if root == nil {
		return nil, readErr
	}

	result := &sitemapper.ParseResult{}
	for _, el := range closed(children(root, "sitemap"), body, readErr) {
		loc, err := whatwg.ResolveLoc(documentURL, text(child(el, "loc")))
		if err != nil {
			continue
		}
		result.Sitemaps = append(result.Sitemaps, loc)
	}
	return result, readErr
}

func parseURLSet(documentURL string, body []byte, news bool) (*sitemapper.ParseResult, error) {
	root, readErr := readRoot(body)
	if root == nil {
		return nil, readErr
	}

	result := &sitemapper.ParseResult{}
	for _, el := range closed(children(root, "url"), body, readErr) {
		loc, err := whatwg.ResolveLoc(documentURL, text(child(el, "loc")))
		if err != nil {
			continue
		}
		page := parsePage(loc, el, result)
		if news {
			page.NewsStory = parseNewsStory(loc, el, result)
		}
		result.Pages = append(result.Pages, page)
	}
	return result, readErr
}

// parsePage maps a <url> element to a page, recording substituted fields
// on result.
func parsePage(loc string, el *etree.Element, result *sitemapper.ParseResult) *sitemapper.Page {
	page := sitemapper.NewPage(loc)

	if raw := text(child(el, "priority")); raw != "" {
		priority, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(priority) || priority < 0 || priority > 1 {
			result.Defaults = append(result.Defaults, sitemapper.FieldDefault{Loc: loc, Field: "priority", Value: raw})
		} else {
			page.Priority = priority
		}
	}

	if raw := text(child(el, "lastmod")); raw != "" {
		if t, ok := dateparse.Parse(raw); ok {
			page.LastModified = t
		} else {
			result.Defaults = append(result.Defaults, sitemapper.FieldDefault{Loc: loc, Field: "lastmod", Value: raw})
		}
	}

	if raw := text(child(el, "changefreq")); raw != "" {
		if f, ok := sitemapper.ParseChangeFrequency(raw); ok {
			page.ChangeFrequency = f
		} else {
			result.Defaults = append(result.Defaults, sitemapper.FieldDefault{Loc: loc, Field: "changefreq", Value: raw})
		}
	}

	page.Image = parseImage(el)
	return page
}

// parseImage returns the first <image:image> of a <url> element.
func parseImage(el *etree.Element) *sitemapper.Image {
	img := extension(el, "image", ImageNamespace)
	if img == nil {
		return nil
	}
	u := text(child(img, "loc"))
	if u == "" {
		return nil
	}
	return &sitemapper.Image{
		URL:     u,
		Title:   text(child(img, "title")),
		Caption: text(child(img, "caption")),
	}
}

func parseNewsStory(loc string, el *etree.Element, result *sitemapper.ParseResult) *sitemapper.NewsStory {
	n := extension(el, "news", NewsNamespace)
	if n == nil {
		return nil
	}

	title := text(child(n, "title"))
	rawDate := text(child(n, "publication_date"))
	published, ok := dateparse.Parse(rawDate)
	if title == "" || !ok {
		result.Defaults = append(result.Defaults, sitemapper.FieldDefault{
			Loc:   loc,
			Field: "news",
			Value: fmt.Sprintf("title=%q publication_date=%q", title, rawDate),
		})
		return nil
	}

	story := &sitemapper.NewsStory{
		Title:        title,
		PublishDate:  published,
		Access:       text(child(n, "access")),
		Genres:       splitList(text(child(n, "genres"))),
		Keywords:     splitList(text(child(n, "keywords"))),
		StockTickers: splitList(text(child(n, "stock_tickers"))),
	}
	if pub := child(n, "publication"); pub != nil {
		story.PublicationName = text(child(pub, "name"))
		story.PublicationLanguage = text(child(pub, "language"))
	}
	return story
}

// readRoot parses body and returns its root element. A document that fails
// part way through still returns the root with everything read so far,
// along with the error.
func readRoot(body []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	doc.ReadSettings.Permissive = true

	err := doc.ReadFromBytes(body)
	if err != nil {
		err = fmt.Errorf("parsing sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil && err == nil {
		err = fmt.Errorf("empty sitemap XML")
	}
	return root, err
}

// closeTags matches the end tags of sitemap entries, with or without a
// namespace prefix.
var closeTags = map[string]*regexp.Regexp{
	"url":     regexp.MustCompile(`</(?:[A-Za-z_][\w.-]*:)?url\s*>`),
	"sitemap": regexp.MustCompile(`</(?:[A-Za-z_][\w.-]*:)?sitemap\s*>`),
}

// closed drops entries whose end tag was never read. After a read error the
// last entry may hold the cut-off prefix of its text, so only as many
// entries as there are end tags in body are kept.
func closed(els []*etree.Element, body []byte, readErr error) []*etree.Element {
	if readErr == nil || len(els) == 0 {
		return els
	}
	re, ok := closeTags[els[0].Tag]
	if !ok {
		return els
	}
	if n := len(re.FindAllIndex(body, -1)); n < len(els) {
		return els[:n]
	}
	return els
}

// children returns the child elements of el with the given local name,
// regardless of namespace.
func children(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

// child returns the first child element of el with the given local name.
func child(el *etree.Element, local string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

// extension returns the first child of el in an extension namespace. Sites
// that forget to declare the namespace are matched by the conventional
// prefix.
func extension(el *etree.Element, local, namespace string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag != local {
			continue
		}
		if c.NamespaceURI() == namespace || c.Space == local {
			return c
		}
	}
	return nil
}

func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// splitList splits a comma-separated news field.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
