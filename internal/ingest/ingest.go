package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"vinohub/pkg/models"
)

// Source is implemented by each external data source (API / local mirror).
// Each source is responsible for fetching its own data format and mapping it
// into WineCanonical.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.WineCanonical, error)
}

// Aggregator coordinates calls to multiple sources and merges them into a
// single canonical set of catalog entries.
type Aggregator struct {
	Sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources}
}

// FetchAndMerge fetches all wines from all sources and merges them into a
// single slice of WineCanonical using deterministic conflict resolution
// rules.
func (a *Aggregator) FetchAndMerge(ctx context.Context) ([]models.WineCanonical, error) {
	byKey := make(map[string]models.WineCanonical)

	for _, src := range a.Sources {
		log.Info().Str("source", src.Name()).Msg("fetching")
		wines, err := src.FetchAll(ctx)
		if err != nil {
			log.Warn().Str("source", src.Name()).Err(err).Msg("source failed")
			// keep going: one broken source should not kill the whole sync
			continue
		}

		for _, w := range wines {
			key := canonicalKey(w)
			if key == "" {
				continue
			}

			if existing, ok := byKey[key]; ok {
				byKey[key] = mergeWine(existing, w)
			} else {
				byKey[key] = w
			}
		}
	}

	result := make([]models.WineCanonical, 0, len(byKey))
	for _, w := range byKey {
		result = append(result, w)
	}
	return result, nil
}

// canonicalKey defines how entries that represent the same wine are grouped
// across sources: normalized producer plus label, plus the vintage when one
// is known. Different vintages are different catalog entries.
func canonicalKey(w models.WineCanonical) string {
	key := normalizeKey(w.Winery + " " + w.Name)
	if key == "" {
		return ""
	}
	if w.Vintage != nil {
		key = fmt.Sprintf("%s %d", key, *w.Vintage)
	}
	return key
}

// Slug is the catalog ID derived from the canonical key.
func Slug(w models.WineCanonical) string {
	return strings.ReplaceAll(canonicalKey(w), " ", "-")
}

// normalizeKey converts a string to a canonical form: lowercase, remove
// non-letter/digit characters and compress spaces.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// mergeWine defines the conflict resolution rules when two sources describe
// the same wine:
//
// - Descriptive fields fill in wherever the base is missing them.
// - The rating backed by more reviews wins, count and average together.
// - The base vintage is kept; a vintage only fills in when the base has none.
// - Pairings are a set union, base order first.
// - SourceIDs merge.
func mergeWine(base, incoming models.WineCanonical) models.WineCanonical {
	if base.Winery == "" {
		base.Winery = incoming.Winery
	}
	if base.Variety == "" {
		base.Variety = incoming.Variety
	}
	if base.Region == "" {
		base.Region = incoming.Region
	}
	if base.Country == "" {
		base.Country = incoming.Country
	}
	if base.Type == "" {
		base.Type = incoming.Type
	}
	if base.Body == "" {
		base.Body = incoming.Body
	}
	if base.Acidity == "" {
		base.Acidity = incoming.Acidity
	}
	if base.Price == nil {
		base.Price = incoming.Price
	}
	if base.Vintage == nil {
		base.Vintage = incoming.Vintage
	}

	if incoming.Rating != nil && (base.Rating == nil || incoming.RatingCount > base.RatingCount) {
		base.Rating = incoming.Rating
		base.RatingCount = incoming.RatingCount
	}

	base.Pairings = mergeStringSlices(base.Pairings, incoming.Pairings)

	if base.SourceIDs == nil {
		base.SourceIDs = make(map[string]string)
	}
	for k, v := range incoming.SourceIDs {
		base.SourceIDs[k] = v
	}

	return base
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}

func mergeStringSlices(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	for _, v := range b {
		out = appendIfMissing(out, v)
	}
	return out
}
