package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func repeat(n int, rating float64, w Candidate) []TastedWine {
	out := make([]TastedWine, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, tasted(rating, w))
	}
	return out
}

func TestExplainBlendsPersonalAndCommunity(t *testing.T) {
	t.Parallel()

	// five ratings give the personal side a 0.25 weight
	m := Calculate(repeat(5, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}))

	p, ok := Explain(m, Candidate{Variety: "cabernet sauvignon", Community: fp(3.5)})

	require.True(t, ok)
	assert.True(t, p.HasPersonal)
	assert.True(t, p.HasCommunity)
	assert.InDelta(t, 4.0, p.Personal, 1e-9)
	assert.InDelta(t, 3.5, p.Community, 1e-9)
	assert.InDelta(t, 0.25, p.PersonalWeight, 1e-9)
	assert.InDelta(t, 3.625, p.Score, 1e-9)
	assert.Zero(t, p.ColorPenalty)
}

func TestExplainPersonalWeightCaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ratings    int
		wantWeight float64
	}{
		{name: "below cap", ratings: 10, wantWeight: 0.5},
		{name: "at cap", ratings: 16, wantWeight: 0.8},
		{name: "over cap", ratings: 40, wantWeight: 0.8},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := Calculate(repeat(tt.ratings, 5.0, Candidate{Variety: "merlot", Type: "red"}))

			p, ok := Explain(m, Candidate{Variety: "merlot", Community: fp(2.5)})

			require.True(t, ok)
			assert.InDelta(t, tt.wantWeight, p.PersonalWeight, 1e-9)
			assert.InDelta(t, 5.0*tt.wantWeight+2.5*(1-tt.wantWeight), p.Score, 1e-9)
		})
	}
}

func TestExplainWeighsDimensions(t *testing.T) {
	t.Parallel()

	m := Calculate([]TastedWine{
		tasted(5, Candidate{Variety: "cabernet sauvignon", Winery: "Opus One", Type: "red"}),
		tasted(3, Candidate{Variety: "merlot", Winery: "Caymus", Type: "red"}),
	})

	// malbec is unseen; its closest history variety is cabernet sauvignon
	// at 0.6, so the variety weight shrinks to 3.0*0.6 against the full
	// 2.5 for the winery hit.
	p, ok := Explain(m, Candidate{Variety: "malbec", Winery: "Caymus"})

	require.True(t, ok)
	assert.True(t, p.HasPersonal)
	assert.False(t, p.HasCommunity)
	assert.InDelta(t, (5.0*1.8+3.0*2.5)/(1.8+2.5), p.Score, 1e-9)
}

func TestExplainColorPenalty(t *testing.T) {
	t.Parallel()

	t.Run("community stands in under a red-heavy history", func(t *testing.T) {
		t.Parallel()
		m := Calculate(repeat(3, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}))

		// all-red history, white candidate: penalty caps at 0.5
		p, ok := Explain(m, Candidate{Variety: "chardonnay", Community: fp(4.0)})

		require.True(t, ok)
		assert.InDelta(t, 0.5, p.ColorPenalty, 1e-9)
		assert.True(t, p.HasPersonal)
		assert.InDelta(t, 3.5, p.Personal, 1e-9)
		assert.InDelta(t, 3.5*0.15+4.0*0.85, p.Score, 1e-9)
	})

	t.Run("applies with zero penalty exactly at the threshold", func(t *testing.T) {
		t.Parallel()
		history := append(
			repeat(7, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}),
			repeat(3, 5.0, Candidate{Variety: "chardonnay", Type: "white"})...,
		)
		m := Calculate(history)

		p, ok := Explain(m, Candidate{Type: "white", Community: fp(4.2)})

		require.True(t, ok)
		assert.True(t, p.HasPersonal)
		assert.Zero(t, p.ColorPenalty)
		assert.InDelta(t, 4.2, p.Personal, 1e-9)
		assert.InDelta(t, 4.2, p.Score, 1e-9)
	})

	t.Run("reduces personal evidence", func(t *testing.T) {
		t.Parallel()
		history := append(
			repeat(9, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}),
			tasted(5, Candidate{Variety: "chardonnay", Type: "white"}),
		)
		m := Calculate(history)

		p, ok := Explain(m, Candidate{Variety: "chardonnay"})

		require.True(t, ok)
		assert.InDelta(t, 0.334, p.ColorPenalty, 1e-6)
		assert.InDelta(t, 5.0-p.ColorPenalty, p.Score, 1e-9)
	})

	t.Run("never drops below the floor", func(t *testing.T) {
		t.Parallel()
		m := Calculate(repeat(3, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}))

		p, ok := Explain(m, Candidate{Type: "white", Community: fp(1.2)})

		require.True(t, ok)
		assert.InDelta(t, 1.0, p.Personal, 1e-9)
		assert.InDelta(t, 1.0*0.15+1.2*0.85, p.Score, 1e-9)
	})

	t.Run("no gate under three classified ratings", func(t *testing.T) {
		t.Parallel()
		m := Calculate(repeat(2, 4.0, Candidate{Variety: "cabernet sauvignon", Type: "red"}))

		p, ok := Explain(m, Candidate{Type: "white", Community: fp(3.8)})

		require.True(t, ok)
		assert.False(t, p.HasPersonal)
		assert.Zero(t, p.ColorPenalty)
		assert.InDelta(t, 3.8, p.Score, 1e-9)
	})
}

func TestExplainSingleSidePassesThrough(t *testing.T) {
	t.Parallel()

	t.Run("community only", func(t *testing.T) {
		t.Parallel()
		m := Calculate(nil)

		p, ok := Explain(m, Candidate{Variety: "riesling", Community: fp(4.4)})

		require.True(t, ok)
		assert.False(t, p.HasPersonal)
		// no blend: the community score is not scaled by the weight
		assert.InDelta(t, 4.4, p.Score, 1e-9)
	})

	t.Run("personal only", func(t *testing.T) {
		t.Parallel()
		m := Calculate(repeat(2, 4.5, Candidate{Variety: "merlot", Type: "red"}))

		p, ok := Explain(m, Candidate{Variety: "merlot"})

		require.True(t, ok)
		assert.False(t, p.HasCommunity)
		assert.InDelta(t, 4.5, p.Score, 1e-9)
	})
}

func TestPredictNoSignal(t *testing.T) {
	t.Parallel()

	m := Calculate(repeat(4, 4.0, Candidate{Variety: "malbec", Type: "red"}))

	// unseen winery-only candidate with no community rating
	_, ok := Predict(m, Candidate{Winery: "Unknown Estate"})

	assert.False(t, ok)
}
