package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// cssTexts returns the article text of every element matching selector.
func cssTexts(doc *goquery.Document, selector string) ([]string, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	var values []string
	doc.FindMatcher(sel).Each(func(i int, s *goquery.Selection) {
		if val := selectionText(s); val != "" {
			values = append(values, val)
		}
	})
	return values, nil
}

// selectionText joins the <p> descendants of s with blank lines. Elements
// without paragraphs fall back to their whole text, one line per text line.
func selectionText(s *goquery.Selection) string {
	var paras []string
	s.Find("p").Each(func(i int, p *goquery.Selection) {
		if t := collapseSpaces(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	if len(paras) > 0 {
		return strings.Join(paras, "\n\n")
	}
	return blockText(s.Text())
}

// blockText trims every line of raw and drops the empty ones.
func blockText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// contentBlocks are the elements that carry article text in cleaned
// readability output. Tables are kept row by row.
const contentBlocks = "p, h1, h2, h3, h4, li, blockquote, pre, tr"

// ContentText turns cleaned article HTML into paragraphs separated by blank
// lines. Repeated blocks are emitted once.
func ContentText(contentHTML string) string {
	doc, err := ParseDocument(contentHTML)
	if err != nil {
		return ""
	}
	seen := make(map[string]bool)
	var blocks []string
	doc.Find(contentBlocks).Each(func(i int, s *goquery.Selection) {
		// nested blocks (p inside li, li inside blockquote) are taken once, at the innermost level
		if s.Find(contentBlocks).Length() > 0 {
			return
		}
		t := collapseSpaces(s.Text())
		if goquery.NodeName(s) == "tr" {
			var cells []string
			s.Find("th, td").Each(func(j int, c *goquery.Selection) {
				if ct := collapseSpaces(c.Text()); ct != "" {
					cells = append(cells, ct)
				}
			})
			t = strings.Join(cells, " | ")
		}
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		blocks = append(blocks, t)
	})
	if len(blocks) == 0 {
		return blockText(doc.Text())
	}
	return strings.Join(blocks, "\n\n")
}
