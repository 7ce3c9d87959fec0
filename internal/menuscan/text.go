package menuscan

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and strips diacritics. OCR frequently drops accents, so
// all comparisons against the knowledge tables run on folded text.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(foldChain, s); err == nil {
		return out
	}
	return s
}

// cleanName keeps letters, digits and spaces only, with runs of whitespace
// collapsed. Search queries are built from cleaned names.
func cleanName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
