package extract

import (
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// minDetectRunes is the shortest text language detection is attempted on.
const minDetectRunes = 50

// DetectLanguage returns the ISO 639-1 code for text, or "" when the text is
// too short or the detector has no two-letter code for its guess.
func DetectLanguage(text string) string {
	if utf8.RuneCountInString(text) < minDetectRunes {
		return ""
	}
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6391()
}
