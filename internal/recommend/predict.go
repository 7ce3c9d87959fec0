package recommend

import (
	"math"
	"strings"

	"vinohub/internal/grapes"
)

// Evidence weights and blend constants. These are the product's tuned
// behavior, not implementation detail.
const (
	weightVariety = 3.0
	weightWinery  = 2.5
	weightRegion  = 2.0
	weightCountry = 1.0

	colorBiasThreshold = 0.7  // history share of one color before penalties start
	colorPenaltySlope  = 1.67 // penalty per unit of ratio above the threshold
	colorPenaltyCap    = 0.5
	scoreFloor         = 1.0

	weightPerRating   = 0.05 // personal confidence gained per historical rating
	personalWeightCap = 0.8  // community keeps at least 20%
)

// Prediction is the blended score plus the signals behind it, for callers
// that want to show a breakdown.
type Prediction struct {
	Score          float64
	Personal       float64
	HasPersonal    bool
	Community      float64
	HasCommunity   bool
	PersonalWeight float64
	ColorPenalty   float64
}

// Predict returns the blended score for a candidate, or ok=false when there
// is no personal and no community signal.
func Predict(m *Model, w Candidate) (float64, bool) {
	p, ok := Explain(m, w)
	return p.Score, ok
}

// Explain runs the full prediction and keeps the intermediate signals.
func Explain(m *Model, w Candidate) (Prediction, bool) {
	var p Prediction

	// Personal signal: weighted evidence across the four dimensions.
	var scoreSum, weightSum float64
	collect := func(score, weight float64) {
		scoreSum += score * weight
		weightSum += weight
	}

	if v := lowered(w.Variety); v != "" {
		if s, ok := m.VarietyScores[v]; ok {
			collect(s, weightVariety)
		} else {
			bestKey, bestSim := "", 0.0
			for key := range m.VarietyScores {
				if sim := grapes.Similarity(key, v); sim > bestSim {
					bestKey, bestSim = key, sim
				}
			}
			if bestSim > 0 {
				collect(m.VarietyScores[bestKey], weightVariety*bestSim)
			}
		}
	}
	if v := lowered(w.Winery); v != "" {
		if s, ok := m.WineryScores[v]; ok {
			collect(s, weightWinery)
		}
	}
	if v := lowered(w.Region); v != "" {
		if s, ok := m.RegionScores[v]; ok {
			collect(s, weightRegion)
		}
	}
	if v := lowered(w.Country); v != "" {
		if s, ok := m.CountryScores[v]; ok {
			collect(s, weightCountry)
		}
	}

	if weightSum > 0 {
		p.Personal = scoreSum / weightSum
		p.HasPersonal = true
	}
	if w.Community != nil {
		p.Community = *w.Community
		p.HasCommunity = true
	}

	// Color bias: once the history leans hard toward one color, candidates
	// of the other color take a penalty. With no personal evidence the
	// penalized community score stands in for it.
	if total := m.RedCount + m.WhiteCount; total >= 3 {
		redRatio := float64(m.RedCount) / float64(total)
		whiteRatio := 1 - redRatio

		applied := false
		var penalty float64
		if grapes.IsWhite(w.Variety, w.Type) && redRatio >= colorBiasThreshold {
			penalty = colorPenalty(redRatio)
			applied = true
		} else if grapes.IsRed(w.Variety, w.Type) && whiteRatio >= colorBiasThreshold {
			penalty = colorPenalty(whiteRatio)
			applied = true
		}

		if applied {
			p.ColorPenalty = penalty
			if p.HasPersonal {
				p.Personal = math.Max(scoreFloor, p.Personal-penalty)
			} else if p.HasCommunity {
				p.Personal = math.Max(scoreFloor, p.Community-penalty)
				p.HasPersonal = true
			}
		}
	}

	// Blend. With only one side present that side passes through unweighted.
	p.PersonalWeight = math.Min(personalWeightCap, float64(m.RatingCount)*weightPerRating)
	switch {
	case p.HasPersonal && p.HasCommunity:
		p.Score = p.Personal*p.PersonalWeight + p.Community*(1-p.PersonalWeight)
	case p.HasPersonal:
		p.Score = p.Personal
	case p.HasCommunity:
		p.Score = p.Community
	default:
		return Prediction{}, false
	}
	return p, true
}

// colorPenalty maps a history color ratio to a penalty: 0 at the threshold,
// capped at colorPenaltyCap as the ratio approaches 1.
func colorPenalty(ratio float64) float64 {
	if ratio < colorBiasThreshold {
		return 0
	}
	return math.Min(colorPenaltyCap, (ratio-colorBiasThreshold)*colorPenaltySlope)
}

func lowered(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
