// Package menuscan extracts wine entries from OCR output of restaurant
// menus and resolves them against the journal and the catalog. The
// classifier is a reject cascade tuned for precision: menus are full of
// prices, section labels and boilerplate, and a missed wine costs less than
// a bogus match.
package menuscan

import (
	"regexp"
	"strings"
	"unicode"

	"vinohub/internal/grapes"
)

// Candidate is a surviving menu line: the raw text and the grape variety
// inherited from the nearest section header above it, when there was one.
type Candidate struct {
	Name    string `json:"name"`
	Variety string `json:"variety,omitempty"`
}

const (
	minLineLen = 4
	maxLineLen = 100
)

// Menu boilerplate, EN/ES. Substring match on folded text.
var noisePhrases = []string{
	"by the glass", "by the bottle", "half bottle", "wine list",
	"glass pour", "tasting menu", "wine pairing", "pairing suggestion",
	"corkage", "ask your server", "happy hour", "gratuity", "service charge",
	"red wines", "white wines", "sparkling wines", "dessert wines",
	"house wine", "sommelier selection",
	"por copa", "por botella", "media botella", "carta de vinos",
	"vinos tintos", "vinos blancos", "vinos rosados", "espumantes",
	"espumosos", "degustación", "maridaje", "descorche", "consulte",
	"sugerencia", "promoción", "bebidas", "cervezas", "jugos", "gaseosas",
	"www.", ".com", "http", "@",
}

// Bare region labels that menus use as section headers. Exact match on the
// folded line.
var regionLabels = []string{
	"rioja", "ribera del duero", "priorat", "rueda", "rías baixas", "jerez",
	"bordeaux", "burgundy", "borgoña", "loire", "alsace", "provence",
	"rhône", "beaujolais",
	"tuscany", "toscana", "piedmont", "piamonte", "veneto", "sicilia",
	"napa valley", "sonoma", "willamette valley", "finger lakes",
	"mendoza", "patagonia", "salta", "valle de uco",
	"maipo", "colchagua", "casablanca", "aconcagua", "itata",
	"douro", "alentejo", "vinho verde",
	"marlborough", "central otago", "barossa", "mclaren vale", "yarra valley",
	"stellenbosch", "swartland", "mosel", "rheingau", "pfalz",
}

// Producer markers that make a line read like a wine entry.
var wineryKeywords = []string{
	"château", "domaine", "maison", "clos", "cuvée",
	"bodega", "bodegas", "viña", "viñedo", "viñedos", "finca", "hacienda",
	"reserva", "gran reserva", "reserve",
	"winery", "estate", "estates", "cellars", "vineyard", "vineyards",
	"weingut", "cantina", "tenuta", "castello", "poderi", "quinta",
}

var pricePatterns = []*regexp.Regexp{
	// leading currency: "$45", "€ 12.50", "s/ 1,200", "usd 30"
	regexp.MustCompile(`^(?:[$€£¥]|s/\.?|usd|eur|pen|clp|ars|mxn)\s*\d[\d.,]*$`),
	// trailing currency: "45 €", "1200 pesos"
	regexp.MustCompile(`^\d[\d.,]*\s*(?:[$€£¥]|usd|eur|soles|pesos)$`),
	// grouped thousands: "28,500", "1.250,00"
	regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?$`),
	// plain decimal: "45.00"
	regexp.MustCompile(`^\d+[.,]\d{2}$`),
	// letter-prefixed item codes: "v12", "gl-45"
	regexp.MustCompile(`^[a-z]{1,2}[-.]?\d{1,4}$`),
}

var yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// folded lookup tables, built once
var (
	foldedNoise    []string
	foldedKeywords []string
	foldedRegions  map[string]bool
	headerTerms    map[string]string // folded variety term → canonical lowercase tag
)

func init() {
	for _, p := range noisePhrases {
		foldedNoise = append(foldedNoise, fold(p))
	}
	for _, kw := range wineryKeywords {
		foldedKeywords = append(foldedKeywords, fold(kw))
	}
	foldedRegions = make(map[string]bool, len(regionLabels))
	for _, r := range regionLabels {
		foldedRegions[fold(r)] = true
	}
	headerTerms = make(map[string]string)
	for _, t := range grapes.Terms() {
		headerTerms[fold(t)] = strings.ToLower(t)
	}
}

// ExtractCandidates classifies OCR lines in order and returns the surviving
// entries, deduplicated by name (first occurrence and its variety tag win).
// Section-header lines set the variety context for the lines after them and
// are never emitted themselves.
func ExtractCandidates(lines []string) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)
	variety := ""

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		n := len([]rune(line))
		if n < minLineLen || n > maxLineLen {
			continue
		}

		folded := fold(line)

		if tag, ok := headerTerms[folded]; ok {
			variety = tag
			continue
		}
		if !isWineEntry(line, folded) {
			continue
		}

		if seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, Candidate{Name: line, Variety: variety})
	}
	return out
}

// isWineEntry runs the reject cascade and the final accept rule on one
// already length-checked, non-header line.
func isWineEntry(line, folded string) bool {
	for _, phrase := range foldedNoise {
		if strings.Contains(folded, phrase) {
			return false
		}
	}

	if strings.Contains(line, "$") {
		return false
	}
	for _, p := range pricePatterns {
		if p.MatchString(folded) {
			return false
		}
	}

	if numericNoiseOnly(line) {
		return false
	}

	if fields := strings.Fields(folded); len(fields) == 1 {
		tok := []rune(fields[0])
		if len(tok) < 6 && unicode.IsDigit(tok[0]) {
			return false
		}
	}

	if foldedRegions[folded] {
		return false
	}

	// Accept: producer marker, a plausible vintage year, or the
	// "Winery, Name" comma convention.
	for _, kw := range foldedKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	if yearPattern.MatchString(folded) {
		return true
	}
	return strings.Contains(line, ",")
}

func numericNoiseOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && r != ',' && r != '.' {
			return false
		}
	}
	return true
}
