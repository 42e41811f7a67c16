package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// LineEndingMiddleware converts CRLF and CR to LF.
type LineEndingMiddleware struct{}

func (m *LineEndingMiddleware) Name() string { return "line_endings" }

func (m *LineEndingMiddleware) Process(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// MarkupStripMiddleware removes script/style blocks with their content, then
// any leftover tags.
type MarkupStripMiddleware struct {
	blockRe *regexp.Regexp
	tagRe   *regexp.Regexp
}

func NewMarkupStripMiddleware() *MarkupStripMiddleware {
	return &MarkupStripMiddleware{
		blockRe: regexp.MustCompile(`(?is)<(script|style|noscript)\b[^>]*>.*?</(script|style|noscript)\s*>`),
		tagRe:   regexp.MustCompile(`</?[a-zA-Z][^<>]*>|<!--.*?-->`),
	}
}

func (m *MarkupStripMiddleware) Name() string { return "markup_strip" }

func (m *MarkupStripMiddleware) Process(text string) string {
	text = m.blockRe.ReplaceAllString(text, "")
	return m.tagRe.ReplaceAllString(text, "")
}

// DecodeMiddleware strips markup, decodes HTML entities and applies Unicode
// NFKC, repeating until none of them changes the text. Decoding can expose new
// tags or entities ("&amp;lt;b&amp;gt;"), so a single round is not enough for
// nested escaping. Every round that changes the text consumes an entity or a
// tag, which bounds the loop.
type DecodeMiddleware struct {
	strip *MarkupStripMiddleware
}

func NewDecodeMiddleware() *DecodeMiddleware {
	return &DecodeMiddleware{strip: NewMarkupStripMiddleware()}
}

func (m *DecodeMiddleware) Name() string { return "decode" }

func (m *DecodeMiddleware) Process(text string) string {
	for {
		next := norm.NFKC.String(html.UnescapeString(m.strip.Process(text)))
		if next == text {
			return text
		}
		text = next
	}
}

// BoilerplateMiddleware removes trailing boilerplate fragments. Every pattern
// is compiled case-insensitive and multi-line and must end with "$" so it only
// eats the tail of a line.
type BoilerplateMiddleware struct {
	patterns []*regexp.Regexp
}

func NewBoilerplateMiddleware(patterns []string) (*BoilerplateMiddleware, error) {
	m := &BoilerplateMiddleware{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, "$") {
			p += "$"
		}
		re, err := regexp.Compile("(?im)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid remove pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

func (m *BoilerplateMiddleware) Name() string { return "boilerplate" }

func (m *BoilerplateMiddleware) Process(text string) string {
	for _, re := range m.patterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// SpaceCollapseMiddleware squeezes runs of horizontal whitespace to one space
// and drops zero-width characters.
type SpaceCollapseMiddleware struct {
	spaceRe *regexp.Regexp
	zeroRe  *regexp.Regexp
}

func NewSpaceCollapseMiddleware() *SpaceCollapseMiddleware {
	return &SpaceCollapseMiddleware{
		spaceRe: regexp.MustCompile(`[\t\f\v \p{Zs}]+`),
		zeroRe:  regexp.MustCompile(`[\x{200B}-\x{200D}\x{2060}\x{FEFF}]`),
	}
}

func (m *SpaceCollapseMiddleware) Name() string { return "space_collapse" }

func (m *SpaceCollapseMiddleware) Process(text string) string {
	text = m.zeroRe.ReplaceAllString(text, "")
	return m.spaceRe.ReplaceAllString(text, " ")
}

// LineFilterMiddleware trims every line and drops short lines with no letter
// or digit, such as stray bullets and separators. Empty lines are kept; they
// separate paragraphs.
type LineFilterMiddleware struct {
	MinLength int
}

func (m *LineFilterMiddleware) Name() string { return "line_filter" }

func (m *LineFilterMiddleware) Process(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && utf8.RuneCountInString(line) < m.MinLength && !hasAlnum(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// NewlineCollapseMiddleware caps consecutive newlines.
type NewlineCollapseMiddleware struct {
	re  *regexp.Regexp
	rep string
}

func NewNewlineCollapseMiddleware(maxNewlines int) *NewlineCollapseMiddleware {
	if maxNewlines < 1 {
		maxNewlines = 2
	}
	return &NewlineCollapseMiddleware{
		re:  regexp.MustCompile(fmt.Sprintf(`\n{%d,}`, maxNewlines+1)),
		rep: strings.Repeat("\n", maxNewlines),
	}
}

func (m *NewlineCollapseMiddleware) Name() string { return "newline_collapse" }

func (m *NewlineCollapseMiddleware) Process(text string) string {
	return m.re.ReplaceAllString(text, m.rep)
}

// TrimMiddleware trims surrounding whitespace.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(text string) string {
	return strings.TrimSpace(text)
}
