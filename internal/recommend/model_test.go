package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tasted(rating float64, w Candidate) TastedWine {
	return TastedWine{Rating: rating, Wine: &w}
}

func TestCalculateMeans(t *testing.T) {
	t.Parallel()

	history := []TastedWine{
		tasted(5, Candidate{Variety: "Malbec", Winery: "Catena", Region: "Mendoza", Country: "Argentina", Type: "red"}),
		tasted(3, Candidate{Variety: "malbec", Winery: "Norton", Region: "Mendoza", Country: "Argentina", Type: "red"}),
		tasted(4, Candidate{Variety: "Chardonnay", Winery: "Catena", Country: "Argentina", Type: "white"}),
	}

	m := Calculate(history)

	assert.Equal(t, 3, m.RatingCount)
	// keys are lowercased, case variants share one bucket
	assert.InDelta(t, 4.0, m.VarietyScores["malbec"], 1e-9)
	assert.InDelta(t, 4.0, m.VarietyScores["chardonnay"], 1e-9)
	assert.InDelta(t, 4.5, m.WineryScores["catena"], 1e-9)
	assert.InDelta(t, 3.0, m.WineryScores["norton"], 1e-9)
	assert.InDelta(t, 4.0, m.RegionScores["mendoza"], 1e-9)
	assert.InDelta(t, 4.0, m.CountryScores["argentina"], 1e-9)

	// the white wine has no region, so no empty-string bucket appears
	assert.Len(t, m.RegionScores, 1)

	assert.Equal(t, 2, m.RedCount)
	assert.Equal(t, 1, m.WhiteCount)
	assert.InDelta(t, 4.0, m.RedAvg, 1e-9)
	assert.InDelta(t, 4.0, m.WhiteAvg, 1e-9)
}

func TestCalculateSkipsDanglingEntries(t *testing.T) {
	t.Parallel()

	history := []TastedWine{
		{Rating: 5, Wine: nil},
		tasted(4, Candidate{Variety: "merlot", Type: "red"}),
	}

	m := Calculate(history)

	assert.Equal(t, 1, m.RatingCount)
	assert.InDelta(t, 4.0, m.VarietyScores["merlot"], 1e-9)
}

func TestCalculateColorByTypeBeforeVariety(t *testing.T) {
	t.Parallel()

	// explicit type decides, even when the variety says otherwise
	m := Calculate([]TastedWine{
		tasted(4, Candidate{Variety: "chardonnay", Type: "red"}),
	})

	assert.Equal(t, 1, m.RedCount)
	assert.Equal(t, 0, m.WhiteCount)
}

func TestCalculateEmptyHistory(t *testing.T) {
	t.Parallel()

	m := Calculate(nil)

	require.NotNil(t, m)
	assert.Equal(t, 0, m.RatingCount)
	assert.Empty(t, m.VarietyScores)
	assert.Zero(t, m.RedAvg)
	assert.Zero(t, m.WhiteAvg)
}
