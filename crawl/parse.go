package crawl

import (
	"fmt"
	"strings"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/etree"
	"github.com/fwojciec/sitemapper/whatwg"
	"github.com/fwojciec/sitemapper/xmlquery"
)

// parse runs the parser bound to format. A parser that fails part way
// through returns the entries it read along with the error. cut reports that
// body ends before the document did.
func parse(format sitemapper.Format, documentURL string, body []byte, cut bool) (*sitemapper.ParseResult, error) {
	switch format {
	case sitemapper.FormatURLSet:
		return etree.ParseURLSet(documentURL, body)
	case sitemapper.FormatNewsURLSet:
		return etree.ParseNewsURLSet(documentURL, body)
	case sitemapper.FormatSitemapIndex:
		return etree.ParseSitemapIndex(documentURL, body)
	case sitemapper.FormatRSS:
		return xmlquery.ParseRSS(documentURL, body)
	case sitemapper.FormatAtom:
		return xmlquery.ParseAtom(documentURL, body)
	case sitemapper.FormatPlainText:
		return parsePlainText(body, cut), nil
	default:
		return nil, fmt.Errorf("no parser for format %s", format)
	}
}

// parsePlainText reads one URL per line. Only the first whitespace-separated
// field of a line is considered and lines that are not absolute http(s)
// URLs are skipped. When the body was cut, a last line without its newline
// is incomplete and dropped.
func parsePlainText(body []byte, cut bool) *sitemapper.ParseResult {
	lines := strings.Split(string(body), "\n")
	if cut {
		lines = lines[:len(lines)-1]
	}

	result := &sitemapper.ParseResult{}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || !whatwg.IsHTTP(fields[0]) {
			continue
		}
		result.Pages = append(result.Pages, sitemapper.NewPage(fields[0]))
	}
	return result
}
