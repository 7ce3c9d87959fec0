package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinohub/pkg/models"
)

type fakeSource struct {
	name  string
	wines []models.WineCanonical
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchAll(context.Context) ([]models.WineCanonical, error) {
	return f.wines, f.err
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Catena Zapata", "catena zapata"},
		{"  Côtes---du///Rhône  19 ", "côtes du rhône 19"},
		{"Château d'Yquem", "château d yquem"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKey(tt.in), "input %q", tt.in)
	}
}

func TestCanonicalKeyAndSlug(t *testing.T) {
	t.Parallel()

	w := models.WineCanonical{Name: "Malbec Clásico", Winery: "Catena Zapata"}
	assert.Equal(t, "catena zapata malbec clásico", canonicalKey(w))
	assert.Equal(t, "catena-zapata-malbec-clásico", Slug(w))

	// different vintages are different catalog entries
	w.Vintage = iptr(2019)
	assert.Equal(t, "catena zapata malbec clásico 2019", canonicalKey(w))

	assert.Equal(t, "", canonicalKey(models.WineCanonical{Name: "  ", Winery: "!!"}))
}

func TestMergeWineFillsMissing(t *testing.T) {
	t.Parallel()

	base := models.WineCanonical{Name: "Emporda", Winery: "Maselva", Vintage: iptr(2012)}
	incoming := models.WineCanonical{
		Name: "Emporda", Winery: "ignored", Variety: "garnacha",
		Region: "Emporda", Country: "Spain", Type: "red", Body: "full",
		Acidity: "medium", Price: fptr(18), Vintage: iptr(1999),
	}

	got := mergeWine(base, incoming)

	assert.Equal(t, "Maselva", got.Winery)
	assert.Equal(t, "garnacha", got.Variety)
	assert.Equal(t, "Emporda", got.Region)
	assert.Equal(t, "Spain", got.Country)
	assert.Equal(t, "red", got.Type)
	assert.Equal(t, "full", got.Body)
	assert.Equal(t, "medium", got.Acidity)
	require.NotNil(t, got.Price)
	assert.InDelta(t, 18, *got.Price, 1e-9)
	// the base vintage wins once set
	require.NotNil(t, got.Vintage)
	assert.Equal(t, 2012, *got.Vintage)
}

func TestMergeWineRatingByReviewCount(t *testing.T) {
	t.Parallel()

	base := models.WineCanonical{Rating: fptr(4.2), RatingCount: 50}

	got := mergeWine(base, models.WineCanonical{Rating: fptr(4.6), RatingCount: 200})
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 4.6, *got.Rating, 1e-9)
	assert.Equal(t, 200, got.RatingCount)

	got = mergeWine(base, models.WineCanonical{Rating: fptr(3.0), RatingCount: 10})
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 4.2, *got.Rating, 1e-9)
	assert.Equal(t, 50, got.RatingCount)

	// an unrated duplicate never clobbers a rated one
	got = mergeWine(base, models.WineCanonical{RatingCount: 999})
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 4.2, *got.Rating, 1e-9)

	got = mergeWine(models.WineCanonical{}, models.WineCanonical{Rating: fptr(3.9), RatingCount: 5})
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 3.9, *got.Rating, 1e-9)
}

func TestMergeWinePairingsAndSourceIDs(t *testing.T) {
	t.Parallel()

	base := models.WineCanonical{
		Pairings:  []string{"Beef", "Lamb"},
		SourceIDs: map[string]string{"a": "1"},
	}
	incoming := models.WineCanonical{
		Pairings:  []string{"Lamb", "Hard cheese"},
		SourceIDs: map[string]string{"b": "9"},
	}

	got := mergeWine(base, incoming)
	assert.Equal(t, []string{"Beef", "Lamb", "Hard cheese"}, got.Pairings)
	assert.Equal(t, map[string]string{"a": "1", "b": "9"}, got.SourceIDs)
}

func TestFetchAndMerge(t *testing.T) {
	t.Parallel()

	a := &fakeSource{name: "a", wines: []models.WineCanonical{
		{
			Name: "Catena Malbec", Winery: "Catena Zapata", Vintage: iptr(2019),
			Rating: fptr(4.2), RatingCount: 50, Pairings: []string{"Beef"},
			SourceIDs: map[string]string{"a": "1"},
		},
		{Name: ""}, // unkeyable, dropped
	}}
	b := &fakeSource{name: "b", wines: []models.WineCanonical{
		{
			Name: "catena  malbec!", Winery: "CATENA ZAPATA", Vintage: iptr(2019),
			Region: "Mendoza", Country: "Argentina",
			Rating: fptr(4.6), RatingCount: 200, Pairings: []string{"Beef", "Lamb"},
			SourceIDs: map[string]string{"b": "9"},
		},
		{Name: "Solo White", Winery: "Cloudy Bay", SourceIDs: map[string]string{"b": "10"}},
	}}
	broken := &fakeSource{name: "broken", err: errors.New("boom")}

	agg := NewAggregator(a, broken, b)
	got, err := agg.FetchAndMerge(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]models.WineCanonical{}
	for _, w := range got {
		byName[w.Name] = w
	}

	merged, ok := byName["Catena Malbec"]
	require.True(t, ok)
	assert.Equal(t, "Mendoza", merged.Region)
	assert.Equal(t, "Argentina", merged.Country)
	require.NotNil(t, merged.Rating)
	assert.InDelta(t, 4.6, *merged.Rating, 1e-9)
	assert.Equal(t, 200, merged.RatingCount)
	assert.Equal(t, []string{"Beef", "Lamb"}, merged.Pairings)
	assert.Equal(t, map[string]string{"a": "1", "b": "9"}, merged.SourceIDs)

	_, ok = byName["Solo White"]
	assert.True(t, ok)
}

func TestFetchAndMergeKeepsVintagesApart(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "a", wines: []models.WineCanonical{
		{Name: "Opus One", Winery: "Opus One Winery", Vintage: iptr(2018)},
		{Name: "Opus One", Winery: "Opus One Winery", Vintage: iptr(2019)},
	}}

	got, err := NewAggregator(src).FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
