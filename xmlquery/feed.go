// Package xmlquery parses RSS and Atom feeds used as sitemaps, using
// github.com/antchfx/xmlquery.
package xmlquery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/dateparse"
	"github.com/fwojciec/sitemapper/whatwg"
)

// ParseRSS extracts pages from an RSS 0.9x/2.0 or RSS 1.0 (RDF) feed.
// Each <item> becomes a page keyed by its <link>; <pubDate> (or <dc:date>)
// becomes the last modification date. Items carrying both a title and a
// publication date also get a NewsStory.
//
// Items read before a parse error are returned together with the error.
func ParseRSS(documentURL string, body []byte) (*sitemapper.ParseResult, error) {
	return parseFeed(documentURL, body, "//item", rssItem)
}

// ParseAtom extracts pages from an Atom 0.3/1.0 feed. Each <entry> becomes a
// page keyed by its alternate <link href>; <published>, or <updated> when
// absent, becomes the last modification date.
//
// Entries read before a parse error are returned together with the error.
func ParseAtom(documentURL string, body []byte) (*sitemapper.ParseResult, error) {
	return parseFeed(documentURL, body, "//entry", atomEntry)
}

// entryFunc extracts the link, title and raw date of a feed entry.
type entryFunc func(n *xmlquery.Node) (link, title, date string)

func parseFeed(documentURL string, body []byte, xpath string, entry entryFunc) (*sitemapper.ParseResult, error) {
	sp, err := xmlquery.CreateStreamParser(bytes.NewReader(body), xpath)
	if err != nil {
		return nil, fmt.Errorf("creating feed parser: %w", err)
	}

	result := &sitemapper.ParseResult{}
	for {
		n, err := sp.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("parsing feed XML: %w", err)
		}

		rawLink, title, rawDate := entry(n)
		loc, err := whatwg.ResolveLoc(documentURL, rawLink)
		if err != nil {
			continue
		}
		page := sitemapper.NewPage(loc)
		if rawDate != "" {
			if t, ok := dateparse.Parse(rawDate); ok {
				page.LastModified = t
				if title != "" {
					page.NewsStory = &sitemapper.NewsStory{Title: title, PublishDate: t}
				}
			} else {
				result.Defaults = append(result.Defaults, sitemapper.FieldDefault{Loc: loc, Field: "lastmod", Value: rawDate})
			}
		}
		result.Pages = append(result.Pages, page)
	}
}

// atomNamespace is the namespace of Atom 1.0 elements, which RSS 2.0 feeds
// embed as <atom:link>.
const atomNamespace = "http://www.w3.org/2005/Atom"

func rssItem(n *xmlquery.Node) (link, title, date string) {
	link = rssLink(n)
	if link == "" {
		// RSS 1.0 items are identified by rdf:about.
		link = strings.TrimSpace(n.SelectAttr("rdf:about"))
	}
	date = text(n, "pubDate")
	if date == "" {
		date = text(n, "date")
	}
	return link, text(n, "title"), date
}

// rssLink returns the first non-empty RSS <link> of an item. Embedded
// <atom:link> elements are only used when the item has no RSS link.
func rssLink(n *xmlquery.Node) string {
	for _, l := range xmlquery.Find(n, "*[local-name()='link']") {
		if l.NamespaceURI == atomNamespace || l.Prefix == "atom" {
			continue
		}
		if link := strings.TrimSpace(l.InnerText()); link != "" {
			return link
		}
	}
	return alternateHref(n)
}

// alternateHref returns the href of the first Atom link of n whose rel is
// alternate or absent.
func alternateHref(n *xmlquery.Node) string {
	for _, l := range xmlquery.Find(n, "*[local-name()='link']") {
		rel := l.SelectAttr("rel")
		if rel != "" && rel != "alternate" {
			continue
		}
		if href := strings.TrimSpace(l.SelectAttr("href")); href != "" {
			return href
		}
	}
	return ""
}

func atomEntry(n *xmlquery.Node) (link, title, date string) {
	link = alternateHref(n)
	date = text(n, "published")
	if date == "" {
		date = text(n, "updated")
	}
	if date == "" {
		// Atom 0.3
		date = text(n, "issued")
	}
	return link, text(n, "title"), date
}

// text returns the trimmed text of the first child of n with the given
// local name.
func text(n *xmlquery.Node, local string) string {
	c := xmlquery.FindOne(n, "*[local-name()='"+local+"']")
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.InnerText())
}
