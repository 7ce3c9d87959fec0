// Package grapes is the static grape-variety knowledge base: style groups,
// coarse red/white classification, and a similarity metric between
// varieties. Everything works on lowercase strings and tolerates compound
// varietal names by matching substrings in both directions.
package grapes

import "strings"

// styleGroups partitions known varieties into style families. Group
// membership drives the 0.6 similarity tier; the red/white sets below are
// unions over these groups.
var styleGroups = map[string][]string{
	"full-bodied red": {
		"cabernet sauvignon", "syrah", "shiraz", "malbec", "petite sirah",
		"mourvèdre", "tannat", "touriga nacional", "nero d'avola",
		"aglianico", "petit verdot", "carménère", "nebbiolo",
	},
	"medium-bodied red": {
		"merlot", "tempranillo", "sangiovese", "zinfandel", "montepulciano",
		"cabernet franc", "carignan", "grenache", "garnacha", "barbera",
		"primitivo", "mencía", "bonarda", "dolcetto",
	},
	"light-bodied red": {
		"pinot noir", "gamay", "cinsault", "frappato", "zweigelt",
		"schiava", "nerello mascalese", "trousseau",
	},
	"full-bodied white": {
		"chardonnay", "viognier", "marsanne", "roussanne", "sémillon",
		"trebbiano", "fiano", "grenache blanc",
	},
	"light-bodied white": {
		"sauvignon blanc", "pinot grigio", "pinot gris", "albariño",
		"grüner veltliner", "vermentino", "verdejo", "melon de bourgogne",
		"picpoul", "assyrtiko", "chenin blanc", "garganega", "verdicchio",
	},
	"aromatic white": {
		"riesling", "gewürztraminer", "moscato", "muscat", "torrontés",
		"müller-thurgau", "viura",
	},
	"rosé": {
		"rosé", "rosado", "rosato", "white zinfandel",
	},
	"sparkling": {
		"champagne", "prosecco", "cava", "lambrusco", "franciacorta",
		"crémant", "sparkling",
	},
	"dessert and fortified": {
		"port", "sherry", "madeira", "sauternes", "tokaji", "ice wine",
		"moscatel", "pedro ximénez", "vin santo",
	},
}

var redGroups = []string{"full-bodied red", "medium-bodied red", "light-bodied red"}
var whiteGroups = []string{"full-bodied white", "light-bodied white", "aromatic white"}

var (
	redVarieties   []string
	whiteVarieties []string
	allTerms       map[string]bool
)

func init() {
	for _, g := range redGroups {
		redVarieties = append(redVarieties, styleGroups[g]...)
	}
	for _, g := range whiteGroups {
		whiteVarieties = append(whiteVarieties, styleGroups[g]...)
	}
	allTerms = make(map[string]bool)
	for _, terms := range styleGroups {
		for _, t := range terms {
			allTerms[t] = true
		}
	}
}

// IsVarietyTerm reports whether s, lowercased and trimmed, exactly names a
// known variety. Menu section headers are detected with this.
func IsVarietyTerm(s string) bool {
	return allTerms[strings.ToLower(strings.TrimSpace(s))]
}

// Terms returns every known variety term, lowercase.
func Terms() []string {
	out := make([]string, 0, len(allTerms))
	for t := range allTerms {
		out = append(out, t)
	}
	return out
}

// FindIn returns the longest known variety term contained in text, or "".
// Used to infer a variety from a label name during ingest.
func FindIn(text string) string {
	t := strings.ToLower(text)
	best := ""
	for term := range allTerms {
		if len(term) > len(best) && strings.Contains(t, term) {
			best = term
		}
	}
	return best
}

// matchTerm reports a bidirectional substring hit, so "cabernet sauvignon
// blend" matches the "cabernet sauvignon" entry and a bare "cabernet
// sauvignon" still matches compound table entries.
func matchTerm(variety, term string) bool {
	return strings.Contains(variety, term) || strings.Contains(term, variety)
}

func matchesAny(variety string, terms []string) bool {
	for _, t := range terms {
		if matchTerm(variety, t) {
			return true
		}
	}
	return false
}

// IsRed classifies a wine as red. An explicit wine type decides on its own;
// only without one do we fall back to the variety sets.
func IsRed(variety, wineType string) bool {
	if t := strings.TrimSpace(wineType); t != "" {
		return strings.EqualFold(t, "red")
	}
	v := strings.ToLower(strings.TrimSpace(variety))
	if v == "" {
		return false
	}
	return matchesAny(v, redVarieties)
}

// IsWhite mirrors IsRed for white wines.
func IsWhite(variety, wineType string) bool {
	if t := strings.TrimSpace(wineType); t != "" {
		return strings.EqualFold(t, "white")
	}
	v := strings.ToLower(strings.TrimSpace(variety))
	if v == "" {
		return false
	}
	return matchesAny(v, whiteVarieties)
}
