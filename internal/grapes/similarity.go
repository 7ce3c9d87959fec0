package grapes

import "strings"

// Similarity tiers. Tuned product behavior, do not adjust casually.
const (
	scoreExact     = 1.0 // same variety, case-insensitive
	scoreSameGroup = 0.6 // same style group
	scoreSameColor = 0.3 // different group, same color
)

// Similarity scores how close two varieties drink to each other, in [0,1].
// Unknown varieties and red/white crossings score 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return scoreExact
	}

	for _, terms := range styleGroups {
		if matchesAny(a, terms) && matchesAny(b, terms) {
			return scoreSameGroup
		}
	}

	aRed, bRed := matchesAny(a, redVarieties), matchesAny(b, redVarieties)
	aWhite, bWhite := matchesAny(a, whiteVarieties), matchesAny(b, whiteVarieties)
	if (aRed && bRed) || (aWhite && bWhite) {
		return scoreSameColor
	}
	return 0
}
