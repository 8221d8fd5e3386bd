package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the maximum number of runes in a normalized card name
const MaxNameLength = 50

// Name sanitizes OCR output or user input into a card-name query.
// Only letters, digits, spaces, hyphens and apostrophes survive, whitespace
// runs collapse to a single space and the result is capped at MaxNameLength
// runes. An empty result means there is nothing to look up.
func Name(raw string) string {
	// NFC first so accented letters built from combining marks are kept whole
	raw = norm.NFC.String(raw)

	var b strings.Builder
	pendingSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	// stripping can leave neighbours that compose, e.g. the two halves of a
	// Hangul syllable split by punctuation
	out := []rune(norm.NFC.String(b.String()))
	if len(out) > MaxNameLength {
		out = out[:MaxNameLength]
	}
	return strings.TrimRight(string(out), " ")
}
