package wines

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vinohub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const selectCols = `
	SELECT id, user_id, catalog_id, name, winery, variety, region, country,
	       vintage, rating, price, wine_type, body, acidity, pairings,
	       created_at, updated_at
	FROM wines
`

func (r *Repo) Create(ctx context.Context, w models.Wine) error {
	pairings, _ := json.Marshal(w.Pairings)
	if w.Pairings == nil {
		pairings = []byte("[]")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO wines (id, user_id, catalog_id, name, winery, variety,
			region, country, vintage, rating, price, wine_type, body,
			acidity, pairings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.UserID, nullString(w.CatalogID), w.Name, w.Winery, w.Variety,
		w.Region, w.Country, nullInt(w.Vintage), nullFloat(w.Rating),
		nullFloat(w.Price), w.Type, w.Body, w.Acidity, string(pairings))
	if err != nil {
		return fmt.Errorf("create wine: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, userID, id string) (*models.Wine, error) {
	row := r.DB.QueryRowContext(ctx, selectCols+`
		WHERE id = ? AND user_id = ?
	`, id, userID)
	w, err := scanWine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get wine: %w", err)
	}
	return w, nil
}

func (r *Repo) List(ctx context.Context, userID, q string, limit, offset int) ([]models.Wine, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := "WHERE user_id = ?"
	args := []any{userID}
	if kw := strings.TrimSpace(strings.ToLower(q)); kw != "" {
		where += " AND (LOWER(name) LIKE ? OR LOWER(winery) LIKE ? OR LOWER(variety) LIKE ?)"
		pat := "%" + kw + "%"
		args = append(args, pat, pat, pat)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM wines "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wines: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx,
		selectCols+where+" ORDER BY updated_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wines: %w", err)
	}
	defer rows.Close()

	out := make([]models.Wine, 0, limit)
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan wine row: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// SearchByName finds journal wines whose name contains the fragment or is
// contained by it. The menu matcher uses this as its local-store strategy.
func (r *Repo) SearchByName(ctx context.Context, userID, name string) ([]models.Wine, error) {
	kw := strings.ToLower(strings.TrimSpace(name))
	if kw == "" {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, selectCols+`
		WHERE user_id = ?
		  AND (LOWER(name) LIKE '%' || ? || '%' OR ? LIKE '%' || LOWER(name) || '%')
		ORDER BY updated_at DESC
		LIMIT 5
	`, userID, kw, kw)
	if err != nil {
		return nil, fmt.Errorf("search wines: %w", err)
	}
	defer rows.Close()

	var out []models.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wine row: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) FindByCatalogID(ctx context.Context, userID, catalogID string) (*models.Wine, error) {
	if catalogID == "" {
		return nil, nil
	}
	row := r.DB.QueryRowContext(ctx, selectCols+`
		WHERE user_id = ? AND catalog_id = ?
	`, userID, catalogID)
	w, err := scanWine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find by catalog id: %w", err)
	}
	return w, nil
}

func (r *Repo) FindByNameVintage(ctx context.Context, userID, name string, vintage *int) (*models.Wine, error) {
	var row *sql.Row
	if vintage == nil {
		row = r.DB.QueryRowContext(ctx, selectCols+`
			WHERE user_id = ? AND LOWER(name) = ? AND vintage IS NULL
		`, userID, strings.ToLower(strings.TrimSpace(name)))
	} else {
		row = r.DB.QueryRowContext(ctx, selectCols+`
			WHERE user_id = ? AND LOWER(name) = ? AND vintage = ?
		`, userID, strings.ToLower(strings.TrimSpace(name)), *vintage)
	}
	w, err := scanWine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find by name+vintage: %w", err)
	}
	return w, nil
}

// Materialize returns the journal wine backing a catalog record, creating it
// on first contact. Reuse order: catalog id, then name+vintage.
func (r *Repo) Materialize(ctx context.Context, userID string, cw models.CatalogWine) (*models.Wine, bool, error) {
	if w, err := r.FindByCatalogID(ctx, userID, cw.ID); err != nil {
		return nil, false, err
	} else if w != nil {
		return w, false, nil
	}
	if w, err := r.FindByNameVintage(ctx, userID, cw.Name, cw.Vintage); err != nil {
		return nil, false, err
	} else if w != nil {
		return w, false, nil
	}

	w := models.Wine{
		ID:        uuid.NewString(),
		UserID:    userID,
		CatalogID: cw.ID,
		Name:      cw.Name,
		Winery:    cw.Winery,
		Variety:   cw.Variety,
		Region:    cw.Region,
		Country:   cw.Country,
		Vintage:   cw.Vintage,
		Rating:    cw.Rating,
		Price:     cw.Price,
		Type:      cw.Type,
		Body:      cw.Body,
		Acidity:   cw.Acidity,
		Pairings:  cw.Pairings,
	}
	if err := r.Create(ctx, w); err != nil {
		return nil, false, err
	}
	saved, err := r.GetByID(ctx, userID, w.ID)
	if err != nil || saved == nil {
		return &w, true, nil
	}
	return saved, true, nil
}

func (r *Repo) Update(ctx context.Context, w models.Wine) (bool, error) {
	pairings, _ := json.Marshal(w.Pairings)
	if w.Pairings == nil {
		pairings = []byte("[]")
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE wines
		SET name = ?, winery = ?, variety = ?, region = ?, country = ?,
		    vintage = ?, price = ?, wine_type = ?, body = ?, acidity = ?,
		    pairings = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, w.Name, w.Winery, w.Variety, w.Region, w.Country, nullInt(w.Vintage),
		nullFloat(w.Price), w.Type, w.Body, w.Acidity, string(pairings),
		w.ID, w.UserID)
	if err != nil {
		return false, fmt.Errorf("update wine: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM wines
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete wine: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWine(row rowScanner) (*models.Wine, error) {
	var (
		w            models.Wine
		catalogID    sql.NullString
		vintage      sql.NullInt64
		rating       sql.NullFloat64
		price        sql.NullFloat64
		pairingsJSON string
	)
	if err := row.Scan(
		&w.ID, &w.UserID, &catalogID, &w.Name, &w.Winery, &w.Variety,
		&w.Region, &w.Country, &vintage, &rating, &price, &w.Type, &w.Body,
		&w.Acidity, &pairingsJSON, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	w.CatalogID = catalogID.String
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
	_ = json.Unmarshal([]byte(pairingsJSON), &w.Pairings)
	return &w, nil
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
