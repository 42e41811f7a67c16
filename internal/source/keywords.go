package source

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// KeywordFilter matches casefolded keywords on word boundaries. Keywords
// whose edge is a Han, Hiragana or Katakana character skip the boundary
// check on that side, since those scripts do not separate words.
type KeywordFilter struct {
	keywords []string
}

// NewKeywordFilter creates a filter. Empty keywords are dropped. A filter
// with no keywords matches everything.
func NewKeywordFilter(keywords []string) *KeywordFilter {
	f := &KeywordFilter{}
	for _, kw := range keywords {
		if kw = f.normalize(kw); kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
	return f
}

// Casers are stateful, so each call builds its own.
func (f *KeywordFilter) normalize(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(s)))
}

// Match returns the first keyword found in any of the texts.
func (f *KeywordFilter) Match(texts ...string) (string, bool) {
	if len(f.keywords) == 0 {
		return "", true
	}
	for _, t := range texts {
		t = f.normalize(t)
		if t == "" {
			continue
		}
		for _, kw := range f.keywords {
			if containsWord(t, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

func containsWord(text, kw string) bool {
	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)

	for start := 0; start <= len(text)-len(kw); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)

		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		leftOK := i == 0 || !isWordRune(before) || unspaced(first)
		rightOK := end == len(text) || !isWordRune(after) || unspaced(last)
		if leftOK && rightOK {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func unspaced(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
