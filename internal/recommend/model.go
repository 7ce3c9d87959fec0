// Package recommend turns a user's rating history into predicted scores for
// wines they have not tried. The model is rebuilt from the full history on
// every request so a new rating shows up in the very next prediction.
package recommend

import (
	"strings"

	"vinohub/internal/grapes"
	"vinohub/pkg/models"
)

// Candidate is the scoring view of a wine: only the dimensions the engine
// reads. Handlers build one from a catalog record or a journal wine.
type Candidate struct {
	Variety   string
	Winery    string
	Region    string
	Country   string
	Type      string
	Community *float64
}

func CandidateFromCatalog(w models.CatalogWine) Candidate {
	return Candidate{
		Variety:   w.Variety,
		Winery:    w.Winery,
		Region:    w.Region,
		Country:   w.Country,
		Type:      w.Type,
		Community: w.Rating,
	}
}

func CandidateFromWine(w models.Wine) Candidate {
	return Candidate{
		Variety:   w.Variety,
		Winery:    w.Winery,
		Region:    w.Region,
		Country:   w.Country,
		Type:      w.Type,
		Community: w.Rating,
	}
}

// TastedWine is one history entry: a rating and the wine it was given to.
// A nil Wine (dangling reference) drops the entry from the model.
type TastedWine struct {
	Rating float64
	Wine   *Candidate
}

// Model holds per-dimension mean ratings from the user's history. Keys are
// lowercased; a dimension value never seen has no entry. Never persisted.
type Model struct {
	VarietyScores map[string]float64
	WineryScores  map[string]float64
	RegionScores  map[string]float64
	CountryScores map[string]float64
	RatingCount   int

	RedCount   int
	WhiteCount int
	RedAvg     float64
	WhiteAvg   float64
}

// Calculate builds a Model from the full rating history.
func Calculate(history []TastedWine) *Model {
	type acc struct {
		sum   float64
		count int
	}
	variety := make(map[string]*acc)
	winery := make(map[string]*acc)
	region := make(map[string]*acc)
	country := make(map[string]*acc)
	add := func(m map[string]*acc, key string, rating float64) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.sum += rating
		a.count++
	}

	model := &Model{}
	var redSum, whiteSum float64
	for _, t := range history {
		if t.Wine == nil {
			continue
		}
		model.RatingCount++
		add(variety, t.Wine.Variety, t.Rating)
		add(winery, t.Wine.Winery, t.Rating)
		add(region, t.Wine.Region, t.Rating)
		add(country, t.Wine.Country, t.Rating)

		if grapes.IsRed(t.Wine.Variety, t.Wine.Type) {
			model.RedCount++
			redSum += t.Rating
		} else if grapes.IsWhite(t.Wine.Variety, t.Wine.Type) {
			model.WhiteCount++
			whiteSum += t.Rating
		}
	}

	mean := func(m map[string]*acc) map[string]float64 {
		out := make(map[string]float64, len(m))
		for k, a := range m {
			out[k] = a.sum / float64(a.count)
		}
		return out
	}
	model.VarietyScores = mean(variety)
	model.WineryScores = mean(winery)
	model.RegionScores = mean(region)
	model.CountryScores = mean(country)
	if model.RedCount > 0 {
		model.RedAvg = redSum / float64(model.RedCount)
	}
	if model.WhiteCount > 0 {
		model.WhiteAvg = whiteSum / float64(model.WhiteCount)
	}
	return model
}
