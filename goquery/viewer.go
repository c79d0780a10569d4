// Package goquery recovers raw sitemap documents from the HTML a browser
// renders around them.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitemapper"
)

// xmlViewerSelector matches the hidden element in which Chrome keeps the
// source of an XML document it displays as a tree.
const xmlViewerSelector = "#webkit-xml-viewer-source-xml"

// Unwrap returns the document a browser was displaying when it rendered
// html. XML shown in Chrome's tree viewer is returned as XML markup, and
// plain text shown in a lone <pre> element is returned as text. Any other
// page is returned unchanged so that format detection can reject it.
func Unwrap(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", sitemapper.Errorf(sitemapper.EINVALID, "failed to parse HTML: %v", err)
	}

	if viewer := doc.Find(xmlViewerSelector).First(); viewer.Length() > 0 {
		inner, err := viewer.Html()
		if err != nil {
			return "", sitemapper.Errorf(sitemapper.EINTERNAL, "failed to serialize XML viewer: %v", err)
		}
		return strings.TrimSpace(inner), nil
	}

	// Chrome renders text/plain responses as <body><pre>...</pre></body>.
	body := doc.Find("body")
	if children := body.Children(); children.Length() == 1 && children.Is("pre") {
		return children.Text(), nil
	}

	return html, nil
}
