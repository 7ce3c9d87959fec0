package cellar

import (
	"context"
	"database/sql"
	"fmt"

	"vinohub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert writes the user's shelf entry for a wine, replacing any
// previous status and quantity.
func (r *Repo) Upsert(ctx context.Context, item models.CellarItem) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO cellar_items (user_id, wine_id, status, quantity, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, wine_id)
		DO UPDATE SET status = excluded.status,
		              quantity = excluded.quantity,
		              updated_at = CURRENT_TIMESTAMP
	`, item.UserID, item.WineID, item.Status, item.Quantity)
	if err != nil {
		return fmt.Errorf("upsert cellar item: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, wineID string) (*models.CellarItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, wine_id, status, quantity, updated_at
		FROM cellar_items
		WHERE user_id = ? AND wine_id = ?
	`, userID, wineID)

	var item models.CellarItem
	if err := row.Scan(&item.UserID, &item.WineID, &item.Status, &item.Quantity, &item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get cellar item: %w", err)
	}
	return &item, nil
}

func (r *Repo) List(ctx context.Context, userID, status string, limit, offset int) ([]models.CellarItem, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := "WHERE user_id = ?"
	args := []any{userID}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cellar_items "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cellar items: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, wine_id, status, quantity, updated_at
		FROM cellar_items `+where+`
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cellar items: %w", err)
	}
	defer rows.Close()

	out := make([]models.CellarItem, 0, limit)
	for rows.Next() {
		var item models.CellarItem
		if err := rows.Scan(&item.UserID, &item.WineID, &item.Status, &item.Quantity, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan cellar row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, userID, wineID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM cellar_items
		WHERE user_id = ? AND wine_id = ?
	`, userID, wineID)
	if err != nil {
		return false, fmt.Errorf("delete cellar item: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
