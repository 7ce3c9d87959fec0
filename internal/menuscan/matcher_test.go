package menuscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinohub/pkg/models"
)

type fakeCatalog struct {
	results map[string][]models.CatalogWine
	queries []string
}

func (f *fakeCatalog) Search(_ context.Context, query string, _ int) ([]models.CatalogWine, error) {
	f.queries = append(f.queries, query)
	return f.results[query], nil
}

type fakeJournal struct {
	wines  map[string][]models.Wine
	userID string
}

func (f *fakeJournal) SearchByName(_ context.Context, userID, name string) ([]models.Wine, error) {
	f.userID = userID
	return f.wines[name], nil
}

func TestResolveReusesPriorMatch(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{}}
	m := &Matcher{Catalog: catalog}

	resolved := &models.CatalogWine{ID: "opus-one", Name: "Opus One"}
	prior := []Match{{Candidate: Candidate{Name: "Opus One"}, Catalog: resolved}}

	got := m.Resolve(context.Background(), "u1", Candidate{Name: "Opus One 2018"}, prior)

	require.NotNil(t, got)
	assert.Same(t, resolved, got.Catalog)
	assert.Equal(t, "Opus One 2018", got.Candidate.Name)
	// the scan-local reuse never touches the stores
	assert.Empty(t, catalog.queries)
}

func TestResolvePrefersJournalOverCatalog(t *testing.T) {
	t.Parallel()

	journal := &fakeJournal{wines: map[string][]models.Wine{
		"Opus One 2018": {{ID: "w1", Name: "Opus One", Winery: "Opus One Winery"}},
	}}
	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Opus One 2018": {{ID: "opus-one", Name: "Opus One"}},
	}}
	m := &Matcher{Catalog: catalog, Journal: journal}

	got := m.Resolve(context.Background(), "u1", Candidate{Name: "Opus One 2018"}, nil)

	require.NotNil(t, got)
	require.NotNil(t, got.Wine)
	assert.Nil(t, got.Catalog)
	assert.Equal(t, "w1", got.Wine.ID)
	assert.Equal(t, "u1", journal.userID)
	assert.Empty(t, catalog.queries)
}

func TestResolveSearchesCatalogWithVariety(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Silver Ridge 2019 merlot": {{ID: "silver-ridge", Name: "Silver Ridge"}},
	}}
	m := &Matcher{Catalog: catalog}

	got := m.Resolve(context.Background(), "u1", Candidate{Name: "Silver Ridge 2019", Variety: "merlot"}, nil)

	require.NotNil(t, got)
	require.NotNil(t, got.Catalog)
	assert.Equal(t, "silver-ridge", got.Catalog.ID)
	assert.Equal(t, []string{"Silver Ridge 2019 merlot"}, catalog.queries)
}

func TestResolveCommaReorder(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Malbec Clásico Catena": {{ID: "catena-malbec", Name: "Malbec Clásico"}},
	}}
	m := &Matcher{Catalog: catalog}

	got := m.Resolve(context.Background(), "u1", Candidate{Name: "Catena, Malbec Clásico"}, nil)

	require.NotNil(t, got)
	require.NotNil(t, got.Catalog)
	assert.Equal(t, "catena-malbec", got.Catalog.ID)
	// whole cleaned line first, then "name winery" reordered
	assert.Equal(t, []string{"Catena Malbec Clásico", "Malbec Clásico Catena"}, catalog.queries)
}

func TestResolveWineryOnlyFallback(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Bodega Norton": {{ID: "norton", Name: "Norton Reserva"}},
	}}
	m := &Matcher{Catalog: catalog}

	got := m.Resolve(context.Background(), "u1", Candidate{Name: "Bodega Norton, Finca Perdriel"}, nil)

	require.NotNil(t, got)
	require.NotNil(t, got.Catalog)
	assert.Equal(t, "norton", got.Catalog.ID)
	assert.Equal(t, []string{
		"Bodega Norton Finca Perdriel",
		"Finca Perdriel Bodega Norton",
		"Bodega Norton",
	}, catalog.queries)
}

func TestResolveMiss(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{}}
	m := &Matcher{Catalog: catalog}

	assert.Nil(t, m.Resolve(context.Background(), "u1", Candidate{Name: "Mystery Pour 2020"}, nil))
}

func TestResolveWithoutStores(t *testing.T) {
	t.Parallel()

	m := &Matcher{}

	assert.Nil(t, m.Resolve(context.Background(), "u1", Candidate{Name: "Cloudy Bay 2021"}, nil))
}

func TestResolveEmptyName(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{results: map[string][]models.CatalogWine{}}
	m := &Matcher{Catalog: catalog}

	assert.Nil(t, m.Resolve(context.Background(), "u1", Candidate{Name: "***"}, nil))
	assert.Empty(t, catalog.queries)
}
