package scans

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vinohub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, scan models.Scan) error {
	detected, _ := json.Marshal(scan.Detected)
	if scan.Detected == nil {
		detected = []byte("[]")
	}
	matches, _ := json.Marshal(scan.Matches)
	if scan.Matches == nil {
		matches = []byte("[]")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO scans (id, user_id, image_path, detected, matches)
		VALUES (?, ?, ?, ?, ?)
	`, scan.ID, scan.UserID, nullString(scan.ImagePath), string(detected), string(matches))
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, userID, id string) (*models.Scan, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, image_path, detected, matches, created_at
		FROM scans
		WHERE id = ? AND user_id = ?
	`, id, userID)

	scan, err := scanRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return scan, nil
}

func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]models.Scan, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scans WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scans: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, image_path, detected, matches, created_at
		FROM scans
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	out := make([]models.Scan, 0, limit)
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, *scan)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM scans
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete scan: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*models.Scan, error) {
	var (
		scan         models.Scan
		imagePath    sql.NullString
		detectedJSON string
		matchesJSON  string
	)
	if err := row.Scan(&scan.ID, &scan.UserID, &imagePath, &detectedJSON, &matchesJSON, &scan.CreatedAt); err != nil {
		return nil, err
	}
	scan.ImagePath = imagePath.String
	_ = json.Unmarshal([]byte(detectedJSON), &scan.Detected)
	_ = json.Unmarshal([]byte(matchesJSON), &scan.Matches)
	return &scan, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
