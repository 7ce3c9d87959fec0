package importer

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinohub/internal/ratings"
	"vinohub/internal/wines"
	"vinohub/pkg/database"
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

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)`,
		id, "taster-"+id, id+"@example.com", "x")
	require.NoError(t, err)
}

func fp(v float64) *float64 { return &v }

func TestMatchRowWineryHint(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Margaux 2015": {
			{ID: "wrong", Name: "Margaux 2015", Winery: "Wrong Estate"},
			{ID: "right", Name: "Margaux 2015", Winery: "Château Margaux"},
		},
	}}
	r := &Reconciler{Catalog: fc}

	got := r.matchRow(context.Background(), "Margaux 2015", "margaux", "")
	require.NotNil(t, got)
	assert.Equal(t, "right", got.ID)
}

func TestMatchRowCountryHint(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Gran Reserva": {
			{ID: "cl", Name: "Gran Reserva", Country: "Chile"},
			{ID: "fr", Name: "Gran Reserva", Country: "FRANCE"},
		},
	}}
	r := &Reconciler{Catalog: fc}

	got := r.matchRow(context.Background(), "Gran Reserva", "", "France")
	require.NotNil(t, got)
	assert.Equal(t, "fr", got.ID)

	// a country hint that matches nothing rejects the row outright
	assert.Nil(t, r.matchRow(context.Background(), "Gran Reserva", "", "Portugal"))
}

func TestMatchRowWineryFallbackSearch(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Opus One Winery": {{ID: "opus", Name: "Opus One Proprietary Red"}},
	}}
	r := &Reconciler{Catalog: fc}

	got := r.matchRow(context.Background(), "Opus One", "Opus One Winery", "")
	require.NotNil(t, got)
	assert.Equal(t, "opus", got.ID)
	assert.Equal(t, []string{"Opus One", "Opus One Winery"}, fc.queries)
}

func TestMatchRowWineryFallbackNeedsNameOverlap(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Opus One Winery": {{ID: "other", Name: "Completely Different Red"}},
	}}
	r := &Reconciler{Catalog: fc}

	assert.Nil(t, r.matchRow(context.Background(), "Opus One", "Opus One Winery", ""))
}

func TestMatchRowNoHintsGuard(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Catena Malbec": {{ID: "cm", Name: "Catena Malbec Reserva"}},
		"Another Wine":  {{ID: "ub", Name: "Unrelated Bottle"}},
	}}
	r := &Reconciler{Catalog: fc}

	got := r.matchRow(context.Background(), "Catena Malbec", "", "")
	require.NotNil(t, got)
	assert.Equal(t, "cm", got.ID)

	// without hints the top hit must overlap the target name
	assert.Nil(t, r.matchRow(context.Background(), "Another Wine", "", ""))
}

func TestMatchRowEmptyName(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{}}
	r := &Reconciler{Catalog: fc}

	assert.Nil(t, r.matchRow(context.Background(), "   ", "Some Winery", ""))
	assert.Empty(t, fc.queries)
}

func TestImportRatings(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Test Wine":   {{ID: "test-wine", Name: "Test Wine", Winery: "Test Winery", Variety: "malbec", Country: "Argentina"}},
		"Silent Wine": {{ID: "silent-wine", Name: "Silent Wine", Winery: "Quiet Cellars"}},
	}}
	rec := NewReconciler(fc, wines.NewRepo(db), ratings.NewRepo(db))

	tasted := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	rows := []Row{
		{Line: 2, Name: "Test Wine", Winery: "Test Winery", Rating: fp(4.5), Note: "bold", TastedAt: &tasted},
		{Line: 3, Name: "Test Wine", Winery: "Test Winery", Rating: fp(5.0)},
		{Line: 4, Name: "Unknown Bottle", Rating: fp(3.0)},
		{Line: 5, Name: "Silent Wine", Winery: "Quiet Cellars"},
	}

	sum, err := rec.ImportRatings(context.Background(), "u1", rows)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, 1, sum.Imported)
	// the second Test Wine row is an already-rated duplicate
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []string{"Unknown Bottle"}, sum.Unmatched)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "no rating value")

	// exactly one rating landed, carrying the original tasting date
	got, err := ratings.NewRepo(db).ListByUser(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 4.5, got[0].Rating, 1e-9)
	assert.Equal(t, "bold", got[0].Note)
	assert.WithinDuration(t, tasted, got[0].CreatedAt, time.Second)

	// both matched rows materialized journal wines
	list, total, err := wines.NewRepo(db).List(context.Background(), "u1", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	byCatalog := map[string]bool{}
	for _, w := range list {
		byCatalog[w.CatalogID] = true
	}
	assert.True(t, byCatalog["test-wine"])
	assert.True(t, byCatalog["silent-wine"])
}

func TestImportRatingsRerunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")

	fc := &fakeCatalog{results: map[string][]models.CatalogWine{
		"Test Wine": {{ID: "test-wine", Name: "Test Wine", Winery: "Test Winery"}},
	}}
	rec := NewReconciler(fc, wines.NewRepo(db), ratings.NewRepo(db))

	rows := []Row{{Line: 2, Name: "Test Wine", Winery: "Test Winery", Rating: fp(4.0)}}

	sum, err := rec.ImportRatings(context.Background(), "u1", rows)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)

	sum, err = rec.ImportRatings(context.Background(), "u1", rows)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Imported)
	assert.Equal(t, 1, sum.Skipped)

	got, err := ratings.NewRepo(db).ListByUser(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRowsToCanonical(t *testing.T) {
	t.Parallel()

	vintage := 2019
	rows := []Row{
		{
			Name: "Test Wine", Winery: "Test Winery", Variety: "malbec",
			Region: "Mendoza", Country: "Argentina", Vintage: &vintage,
			Rating: fp(4.5), Average: fp(4.1), Price: fp(20), Type: "red",
			Pairings: []string{"beef"},
		},
		{Note: "nothing to key on"},
	}

	out := RowsToCanonical(rows)
	require.Len(t, out, 1)

	w := out[0]
	assert.Equal(t, "test-winery-test-wine-2019", w.ID)
	assert.Equal(t, "Test Wine", w.Name)
	// the community average feeds the catalog rating, the personal one is dropped
	require.NotNil(t, w.Rating)
	assert.InDelta(t, 4.1, *w.Rating, 1e-9)
	assert.Equal(t, map[string]string{"csv": "test-winery-test-wine-2019"}, w.SourceIDs)
}
