package crawl

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/fwojciec/sitemapper"
	"github.com/fwojciec/sitemapper/etree"
	"github.com/fwojciec/sitemapper/whatwg"
	"golang.org/x/net/html/charset"
)

// Detection limits.
const (
	// DefaultMaxDecompressedLength bounds the size of a decompressed
	// gzip-wrapped sitemap.
	DefaultMaxDecompressedLength = 100 << 20

	// maxGzipLayers is the deepest gzip nesting that is unwrapped.
	maxGzipLayers = 3
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// Detect classifies a fetched document. Gzip wrapping is removed first, so
// the returned format is that of the innermost document and the returned
// bytes are the ones to parse.
//
// A non-empty document that matches no supported format returns
// FormatUnknown and ErrUnrecognizedFormat.
func Detect(resp *sitemapper.Response) (sitemapper.Format, []byte, error) {
	return DetectWithLimit(resp, DefaultMaxDecompressedLength)
}

// DetectWithLimit is like Detect but bounds decompressed bodies to limit
// bytes. Decompressed output beyond the limit is dropped.
func DetectWithLimit(resp *sitemapper.Response, limit int64) (sitemapper.Format, []byte, error) {
	format, body, _, err := detect(resp, limit)
	return format, body, err
}

// detect classifies resp and also reports whether the returned bytes end
// before the document did, either because the response was truncated or
// because decompression stopped early.
func detect(resp *sitemapper.Response, limit int64) (sitemapper.Format, []byte, bool, error) {
	if limit <= 0 {
		limit = DefaultMaxDecompressedLength
	}

	body, cut := resp.Body, resp.Truncated
	for layer := 0; bytes.HasPrefix(body, gzipMagic); layer++ {
		if layer == maxGzipLayers {
			return sitemapper.FormatGzip, nil, cut, fmt.Errorf("more than %d nested gzip layers", maxGzipLayers)
		}
		out, short, err := gunzip(body, limit)
		if err != nil {
			return sitemapper.FormatGzip, nil, cut, err
		}
		body, cut = out, cut || short
	}

	format, body, err := classify(body, resp.ContentType())
	return format, body, cut, err
}

// gunzip decompresses b up to limit bytes. A stream that ends early still
// returns what was decompressed, so truncated downloads can be parsed
// partially; short reports that the output stops before the stream's end.
func gunzip(b []byte, limit int64) (out []byte, short bool, err error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, false, fmt.Errorf("decompressing gzip: %w", err)
	}
	defer zr.Close()

	out, err = io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		if len(out) == 0 {
			return nil, false, fmt.Errorf("decompressing gzip: %w", err)
		}
		short = true
	}
	if int64(len(out)) > limit {
		out, short = out[:limit], true
	}
	return out, short, nil
}

func classify(body []byte, contentType string) (sitemapper.Format, []byte, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(trimmed) == 0 {
		return sitemapper.FormatPlainText, body, nil
	}

	if trimmed[0] != '<' {
		if mediaType(contentType) == "text/plain" || hasURLLine(trimmed) {
			return sitemapper.FormatPlainText, body, nil
		}
		return sitemapper.FormatUnknown, body, sitemapper.ErrUnrecognizedFormat
	}

	root, err := rootElement(trimmed)
	if err != nil {
		return sitemapper.FormatUnknown, body, fmt.Errorf("%w: %v", sitemapper.ErrUnrecognizedFormat, err)
	}
	switch root {
	case "urlset":
		if bytes.Contains(trimmed, []byte(etree.NewsNamespace)) {
			return sitemapper.FormatNewsURLSet, body, nil
		}
		return sitemapper.FormatURLSet, body, nil
	case "sitemapindex":
		return sitemapper.FormatSitemapIndex, body, nil
	case "rss", "RDF":
		return sitemapper.FormatRSS, body, nil
	case "feed":
		return sitemapper.FormatAtom, body, nil
	}
	return sitemapper.FormatUnknown, body, fmt.Errorf("%w: root element <%s>", sitemapper.ErrUnrecognizedFormat, root)
}

// rootElement returns the local name of the first element of an XML
// document.
func rootElement(b []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no root element")
			}
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// hasURLLine reports whether any line of b begins with an http(s) URL.
func hasURLLine(b []byte) bool {
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && whatwg.IsHTTP(fields[0]) {
			return true
		}
	}
	return false
}
