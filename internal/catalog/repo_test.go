package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinohub/pkg/database"
)

type seedWine struct {
	id, name, winery, variety, region, country string
	vintage                                    any
	rating                                     any
	ratingCount                                int
	wineType                                   string
	pairings                                   string
}

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	seeds := []seedWine{
		{"catena-malbec-2019", "Catena Malbec", "Catena Zapata", "malbec", "Mendoza", "Argentina", 2019, 4.5, 120, "red", `["Beef","Lamb"]`},
		{"opus-one-2018", "Opus One", "Opus One Winery", "cabernet sauvignon", "Napa Valley", "United States", 2018, 4.8, 300, "red", `[]`},
		{"cloudy-bay-sauvignon-blanc", "Cloudy Bay Sauvignon Blanc", "Cloudy Bay", "sauvignon blanc", "Marlborough", "New Zealand", nil, 4.2, 80, "white", `[]`},
		{"norton-reserva-malbec", "Norton Reserva Malbec", "Bodega Norton", "malbec", "Mendoza", "Argentina", nil, 4.0, 50, "red", `[]`},
		{"mystery-bottle", "Mystery Bottle", "", "", "", "", nil, nil, 0, "", `[]`},
	}
	for _, s := range seeds {
		insertCatalogWine(t, db, s)
	}
	return NewRepo(db), db
}

func insertCatalogWine(t *testing.T, db *sql.DB, s seedWine) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO catalog_wines (id, name, winery, variety, region, country,
			vintage, rating, rating_count, wine_type, pairings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.id, s.name, s.winery, s.variety, s.region, s.country,
		s.vintage, s.rating, s.ratingCount, s.wineType, s.pairings)
	require.NoError(t, err)
}

func TestSearchRanksByRating(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.Search(context.Background(), "malbec", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "catena-malbec-2019", got[0].ID)
	assert.Equal(t, "norton-reserva-malbec", got[1].ID)

	got, err = repo.Search(context.Background(), "malbec", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "catena-malbec-2019", got[0].ID)
}

func TestSearchTokensAndAcross(t *testing.T) {
	repo, _ := newTestRepo(t)

	// every token must hit, in any searchable field
	got, err := repo.Search(context.Background(), "malbec norton", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "norton-reserva-malbec", got[0].ID)

	got, err = repo.Search(context.Background(), "malbec atacama", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.List(ctx, ListQuery{Variety: "malbec", Country: "argentina", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = repo.List(ctx, ListQuery{Type: "WHITE", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cloudy-bay-sauvignon-blanc", got[0].ID)

	total, err := repo.Count(ctx, ListQuery{Q: "malbec"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestListPagination(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	page, err := repo.List(ctx, ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "opus-one-2018", page[0].ID)
	assert.Equal(t, "catena-malbec-2019", page[1].ID)

	page, err = repo.List(ctx, ListQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "cloudy-bay-sauvignon-blanc", page[0].ID)
	assert.Equal(t, "norton-reserva-malbec", page[1].ID)

	// the unrated bottle sorts last
	page, err = repo.List(ctx, ListQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mystery-bottle", page[0].ID)
}

func TestGetByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.GetByID(ctx, "catena-malbec-2019")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Catena Malbec", w.Name)
	assert.Equal(t, "Catena Zapata", w.Winery)
	require.NotNil(t, w.Vintage)
	assert.Equal(t, 2019, *w.Vintage)
	require.NotNil(t, w.Rating)
	assert.InDelta(t, 4.5, *w.Rating, 1e-9)
	assert.Equal(t, 120, w.RatingCount)
	assert.Equal(t, []string{"Beef", "Lamb"}, w.Pairings)

	w, err = repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestTopRated(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.TopRated(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "opus-one-2018", got[0].ID)
	assert.Equal(t, "catena-malbec-2019", got[1].ID)
	assert.Equal(t, "cloudy-bay-sauvignon-blanc", got[2].ID)
}

func TestDistinctValues(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.DistinctValues(ctx, "variety")
	require.NoError(t, err)
	assert.Equal(t, []string{"cabernet sauvignon", "malbec", "sauvignon blanc"}, got)

	got, err = repo.DistinctValues(ctx, "type")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "white"}, got)

	_, err = repo.DistinctValues(ctx, "price")
	assert.Error(t, err)

	// cached: a row added after the first read is not visible until expiry
	insertCatalogWine(t, db, seedWine{
		id: "new-one", name: "New One", variety: "tempranillo", wineType: "red", pairings: `[]`,
	})
	got, err = repo.DistinctValues(ctx, "variety")
	require.NoError(t, err)
	assert.Equal(t, []string{"cabernet sauvignon", "malbec", "sauvignon blanc"}, got)
}
