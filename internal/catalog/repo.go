package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"vinohub/pkg/models"
)

// Repo reads the reference catalog. Writes happen through ingest and the
// CSV importer, never through the API.
type Repo struct {
	DB     *sql.DB
	facets *cache.Cache
}

type ListQuery struct {
	Q       string // keyword search across name/winery/variety/region/country
	Variety string
	Country string
	Type    string
	Limit   int
	Offset  int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{
		DB:     db,
		facets: cache.New(5*time.Minute, 10*time.Minute),
	}
}

const selectCols = `
	SELECT id, name, winery, variety, region, country, vintage, rating,
	       rating_count, price, wine_type, body, acidity, pairings
	FROM catalog_wines
`

// Search is the text-search contract used by the matcher, the importer and
// the recommender: whitespace tokens, every token must hit at least one
// field, ranked by community rating descending.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]models.CatalogWine, error) {
	return r.List(ctx, ListQuery{Q: query, Limit: limit})
}

func (r *Repo) TopRated(ctx context.Context, limit int) ([]models.CatalogWine, error) {
	return r.List(ctx, ListQuery{Limit: limit})
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.CatalogWine, error) {
	row := r.DB.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	w, err := scanWine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return w, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.CatalogWine, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.CatalogWine, 0, q.Limit)
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

var facetColumns = map[string]string{
	"variety": "variety",
	"country": "country",
	"region":  "region",
	"winery":  "winery",
	"type":    "wine_type",
}

// DistinctValues lists the sorted distinct values of a facet field. Results
// are cached for a few minutes; the catalog only changes on sync/import.
func (r *Repo) DistinctValues(ctx context.Context, field string) ([]string, error) {
	col, ok := facetColumns[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return nil, fmt.Errorf("unknown facet field %q", field)
	}

	if v, ok := r.facets.Get(col); ok {
		return v.([]string), nil
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT `+col+` FROM catalog_wines WHERE `+col+` != '' ORDER BY `+col+` ASC`)
	if err != nil {
		return nil, fmt.Errorf("facet query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("facet scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	r.facets.Set(col, out, cache.DefaultExpiration)
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWine(row rowScanner) (*models.CatalogWine, error) {
	var (
		w            models.CatalogWine
		winery       sql.NullString
		variety      sql.NullString
		region       sql.NullString
		country      sql.NullString
		vintage      sql.NullInt64
		rating       sql.NullFloat64
		price        sql.NullFloat64
		wineType     sql.NullString
		body         sql.NullString
		acidity      sql.NullString
		pairingsJSON string
	)

	if err := row.Scan(
		&w.ID, &w.Name, &winery, &variety, &region, &country, &vintage,
		&rating, &w.RatingCount, &price, &wineType, &body, &acidity, &pairingsJSON,
	); err != nil {
		return nil, err
	}

	w.Winery = winery.String
	w.Variety = variety.String
	w.Region = region.String
	w.Country = country.String
	if vintage.Valid {
		v := int(vintage.Int64)
		w.Vintage = &v
	}
	if rating.Valid {
		v := rating.Float64
		w.Rating = &v
	}
	if price.Valid {
		v := price.Float64
		w.Price = &v
	}
	w.Type = wineType.String
	w.Body = body.String
	w.Acidity = acidity.String

	_ = json.Unmarshal([]byte(pairingsJSON), &w.Pairings)
	return &w, nil
}

// buildListSQL builds either COUNT(*) or SELECT list. The keyword query is
// split on whitespace; every token must match at least one searchable field
// (AND across tokens, OR across fields).
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := selectCols
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM catalog_wines`
	}

	var where []string
	var args []any

	for _, tok := range strings.Fields(strings.ToLower(q.Q)) {
		where = append(where,
			"(LOWER(name) LIKE ? OR LOWER(winery) LIKE ? OR LOWER(variety) LIKE ? OR LOWER(region) LIKE ? OR LOWER(country) LIKE ?)")
		kw := "%" + tok + "%"
		args = append(args, kw, kw, kw, kw, kw)
	}

	if strings.TrimSpace(q.Variety) != "" {
		where = append(where, "LOWER(variety) LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(q.Variety))+"%")
	}
	if strings.TrimSpace(q.Country) != "" {
		where = append(where, "LOWER(country) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(q.Country)))
	}
	if strings.TrimSpace(q.Type) != "" {
		where = append(where, "LOWER(wine_type) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(q.Type)))
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY rating DESC, name ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}
