package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ParseDocument parses raw HTML into a goquery document.
func ParseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// StripElements removes every element matching any of selectors. Selectors
// that fail to compile are skipped.
func StripElements(doc *goquery.Document, selectors []string) {
	for _, s := range selectors {
		m, err := cascadia.Compile(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		doc.FindMatcher(m).Remove()
	}
}
