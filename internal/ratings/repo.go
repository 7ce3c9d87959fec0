package ratings

import (
	"context"
	"database/sql"
	"fmt"

	"vinohub/internal/recommend"
	"vinohub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, rt models.Rating) (*models.Rating, error) {
	var (
		res sql.Result
		err error
	)
	if rt.CreatedAt.IsZero() {
		res, err = r.DB.ExecContext(ctx, `
			INSERT INTO ratings (user_id, wine_id, rating, note, vintage)
			VALUES (?, ?, ?, ?, ?)
		`, rt.UserID, rt.WineID, rt.Rating, rt.Note, nullInt(rt.Vintage))
	} else {
		// imports carry the original tasting date
		res, err = r.DB.ExecContext(ctx, `
			INSERT INTO ratings (user_id, wine_id, rating, note, vintage, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rt.UserID, rt.WineID, rt.Rating, rt.Note, nullInt(rt.Vintage), rt.CreatedAt.UTC())
	}
	if err != nil {
		return nil, fmt.Errorf("insert rating: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Rating, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, wine_id, rating, note, vintage, created_at
		FROM ratings
		WHERE id = ?
	`, id)

	rt, err := scanRating(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan rating: %w", err)
	}
	return rt, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, wine_id, rating, note, vintage, created_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	return collectRatings(rows, limit)
}

func (r *Repo) ListByWine(ctx context.Context, userID, wineID string, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, wine_id, rating, note, vintage, created_at
		FROM ratings
		WHERE user_id = ? AND wine_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, wineID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ratings by wine: %w", err)
	}
	defer rows.Close()

	return collectRatings(rows, limit)
}

func (r *Repo) CountByWine(ctx context.Context, userID, wineID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ratings
		WHERE user_id = ? AND wine_id = ?
	`, userID, wineID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}

func (r *Repo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM ratings
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete rating: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// TastingHistory joins every rating the user has logged with the wine it
// belongs to, in the shape the preference model consumes. Ratings whose
// wine disappeared are dropped by the join.
func (r *Repo) TastingHistory(ctx context.Context, userID string) ([]recommend.TastedWine, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.rating, w.name, w.winery, w.variety, w.region, w.country, w.wine_type
		FROM ratings r
		JOIN wines w ON w.id = r.wine_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("tasting history: %w", err)
	}
	defer rows.Close()

	var out []recommend.TastedWine
	for rows.Next() {
		var (
			t    recommend.TastedWine
			w    recommend.Candidate
			name string // wines.name is selected but Candidate has no field for it
		)
		if err := rows.Scan(&t.Rating, &name, &w.Winery, &w.Variety, &w.Region, &w.Country, &w.Type); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		t.Wine = &w
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRating(row rowScanner) (*models.Rating, error) {
	var (
		rt      models.Rating
		note    sql.NullString
		vintage sql.NullInt64
	)
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.WineID, &rt.Rating, &note, &vintage, &rt.CreatedAt); err != nil {
		return nil, err
	}
	rt.Note = note.String
	if vintage.Valid {
		v := int(vintage.Int64)
		rt.Vintage = &v
	}
	return &rt, nil
}

func collectRatings(rows *sql.Rows, limit int) ([]models.Rating, error) {
	out := make([]models.Rating, 0, limit)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		out = append(out, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
