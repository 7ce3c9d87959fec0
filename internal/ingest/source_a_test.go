package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitVintage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantName string
		wantYear *int
	}{
		{"Emporda 2012", "Emporda", iptr(2012)},
		{"Reserve Especial 1998", "Reserve Especial", iptr(1998)},
		{"Cuvée Royale", "Cuvée Royale", nil},
		// implausible years pass through as part of the label
		{"No. 7 1850", "No. 7 1850", nil},
		{"2019", "2019", nil},
		{"Estate 20199", "Estate 20199", nil},
	}
	for _, tt := range tests {
		name, year := splitVintage(tt.in)
		assert.Equal(t, tt.wantName, name, "input %q", tt.in)
		if tt.wantYear == nil {
			assert.Nil(t, year, "input %q", tt.in)
		} else {
			require.NotNil(t, year, "input %q", tt.in)
			assert.Equal(t, *tt.wantYear, *year, "input %q", tt.in)
		}
	}
}

func TestSplitLocation(t *testing.T) {
	t.Parallel()

	region, country := splitLocation("Mendoza\n·\nArgentina")
	assert.Equal(t, "Mendoza", region)
	assert.Equal(t, "Argentina", country)

	region, country = splitLocation("Emporda · Spain")
	assert.Equal(t, "Emporda", region)
	assert.Equal(t, "Spain", country)

	// a single segment is a country
	region, country = splitLocation("Portugal")
	assert.Equal(t, "", region)
	assert.Equal(t, "Portugal", country)

	region, country = splitLocation("  ")
	assert.Equal(t, "", region)
	assert.Equal(t, "", country)
}

func TestParseReviewCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 88, parseReviewCount("88 ratings"))
	assert.Equal(t, 5, parseReviewCount(" 5 ratings "))
	assert.Equal(t, 0, parseReviewCount("ratings"))
	assert.Equal(t, 0, parseReviewCount(""))
}

func TestFlexFloat(t *testing.T) {
	t.Parallel()

	var e aEntry
	require.NoError(t, json.Unmarshal([]byte(`{"rating":{"average":4.9}}`), &e))
	assert.InDelta(t, 4.9, float64(e.Rating.Average), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":{"average":"4.7"}}`), &e))
	assert.InDelta(t, 4.7, float64(e.Rating.Average), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":{"average":null}}`), &e))
	assert.Zero(t, float64(e.Rating.Average))

	assert.Error(t, json.Unmarshal([]byte(`{"rating":{"average":"n/a"}}`), &e))
}

func TestSourceAFetchAll(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/reds", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"winery":"Maselva","wine":"Emporda 2012","location":"Emporda\n·\nSpain",
			 "rating":{"average":"4.9","reviews":"88 ratings"}},
			{"id":2,"winery":"Ghost","wine":"","location":"Spain",
			 "rating":{"average":0,"reviews":""}}
		]`)
	})
	mux.HandleFunc("/whites", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"id":7,"winery":"Vinessens","wine":"El Telar Chardonnay","location":"Alicante · Spain",
			 "rating":{"average":4.1,"reviews":"12 ratings"}}
		]`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSourceA(srv.URL)
	got, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	red := got[0]
	assert.Equal(t, "Emporda", red.Name)
	assert.Equal(t, "Maselva", red.Winery)
	require.NotNil(t, red.Vintage)
	assert.Equal(t, 2012, *red.Vintage)
	assert.Equal(t, "Emporda", red.Region)
	assert.Equal(t, "Spain", red.Country)
	assert.Equal(t, "red", red.Type)
	require.NotNil(t, red.Rating)
	assert.InDelta(t, 4.9, *red.Rating, 1e-9)
	assert.Equal(t, 88, red.RatingCount)
	assert.Equal(t, map[string]string{"sampleapis": "reds/1"}, red.SourceIDs)

	white := got[1]
	assert.Equal(t, "El Telar Chardonnay", white.Name)
	assert.Equal(t, "chardonnay", white.Variety)
	assert.Nil(t, white.Vintage)
	assert.Equal(t, "white", white.Type)
}

func TestSourceAFetchAllBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewSourceA(srv.URL).FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
