package extractor

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extractor pulls hyperlink targets out of page bodies
type Extractor struct{}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the href of every anchor in body, in document order and
// without deduplication. The tokenizer never rejects input, so malformed
// markup (unquoted attributes, self-closing anchors, unterminated tags)
// yields whatever anchors it can still recognize.
func (e *Extractor) Extract(body string) []string {
	return e.ExtractFrom(strings.NewReader(body))
}

// ExtractFrom is Extract over a reader.
func (e *Extractor) ExtractFrom(r io.Reader) []string {
	links := []string{}
	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or a read error; either way the page is done
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			if href, ok := hrefAttr(tokenizer); ok {
				links = append(links, href)
			}
		}
	}
}

func hrefAttr(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return strings.TrimSpace(string(val)), true
		}
		if !more {
			return "", false
		}
	}
}
