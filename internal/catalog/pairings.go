package catalog

import (
	"encoding/json"
	"strings"
)

// ParsePairings normalizes the food-pairing formats seen in source data into
// an ordered list. Accepted: a JSON array, a Python-style bracket list
// ("['Beef','Lamb']"), or a bare comma/semicolon separated string. The raw
// bracket form never travels past this function. Unparseable input yields
// nil, not an error.
func ParsePairings(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return cleanPairings(arr)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		return cleanPairings(strings.Split(inner, ","))
	}

	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}
	return cleanPairings(strings.Split(s, sep))
}

func cleanPairings(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
