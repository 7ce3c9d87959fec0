package grapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "malbec", b: "malbec", want: 1.0},
		{name: "identical ignoring case", a: "Cabernet Sauvignon", b: "cabernet sauvignon", want: 1.0},
		{name: "identical with whitespace", a: "  merlot ", b: "merlot", want: 1.0},
		{name: "same full-bodied red group", a: "cabernet sauvignon", b: "syrah", want: 0.6},
		{name: "same medium-bodied red group", a: "merlot", b: "tempranillo", want: 0.6},
		{name: "same aromatic white group", a: "riesling", b: "moscato", want: 0.6},
		{name: "compound name matches group entry", a: "cabernet sauvignon blend", b: "malbec", want: 0.6},
		{name: "reds across groups", a: "cabernet sauvignon", b: "pinot noir", want: 0.3},
		{name: "whites across groups", a: "chardonnay", b: "riesling", want: 0.3},
		{name: "red against white", a: "cabernet sauvignon", b: "chardonnay", want: 0},
		{name: "unknown variety", a: "frobnitz", b: "merlot", want: 0},
		{name: "both unknown", a: "frobnitz", b: "zork", want: 0},
		{name: "empty left", a: "", b: "merlot", want: 0},
		{name: "empty right", a: "merlot", b: "", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
			// the metric is symmetric
			assert.InDelta(t, tt.want, Similarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestIsRedIsWhite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		variety   string
		wineType  string
		wantRed   bool
		wantWhite bool
	}{
		{name: "type red wins", variety: "chardonnay", wineType: "red", wantRed: true, wantWhite: false},
		{name: "type white wins", variety: "malbec", wineType: "White", wantRed: false, wantWhite: true},
		{name: "type rosé is neither", variety: "malbec", wineType: "rosé", wantRed: false, wantWhite: false},
		{name: "variety fallback red", variety: "Pinot Noir", wantRed: true},
		{name: "variety fallback white", variety: "sauvignon blanc", wantWhite: true},
		{name: "compound variety", variety: "old vine zinfandel", wantRed: true},
		{name: "unknown variety", variety: "frobnitz"},
		{name: "nothing known"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantRed, IsRed(tt.variety, tt.wineType))
			assert.Equal(t, tt.wantWhite, IsWhite(tt.variety, tt.wineType))
		})
	}
}

func TestIsVarietyTerm(t *testing.T) {
	t.Parallel()

	assert.True(t, IsVarietyTerm("Cabernet Sauvignon"))
	assert.True(t, IsVarietyTerm("  riesling "))
	assert.False(t, IsVarietyTerm("cabernet sauvignon 2019"))
	assert.False(t, IsVarietyTerm("house red"))
	assert.False(t, IsVarietyTerm(""))
}

func TestFindIn(t *testing.T) {
	t.Parallel()

	// longest contained term wins
	assert.Equal(t, "cabernet sauvignon", FindIn("Silver Ridge Cabernet Sauvignon Reserve"))
	assert.Equal(t, "pinot grigio", FindIn("Villa Bella PINOT GRIGIO"))
	assert.Equal(t, "", FindIn("Blend No. 7"))
}
