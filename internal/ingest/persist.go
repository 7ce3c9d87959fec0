package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vinohub/pkg/models"
)

// SaveToCatalog upserts canonical entries into the catalog_wines table.
// Entries without an ID get their slug assigned here, so callers can hand
// over source output directly.
func SaveToCatalog(ctx context.Context, db *sql.DB, wines []models.WineCanonical) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_wines (id, name, winery, variety, region, country,
			vintage, rating, rating_count, price, wine_type, body, acidity,
			pairings, source_ids, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  winery = excluded.winery,
		  variety = excluded.variety,
		  region = excluded.region,
		  country = excluded.country,
		  vintage = excluded.vintage,
		  rating = excluded.rating,
		  rating_count = excluded.rating_count,
		  price = excluded.price,
		  wine_type = excluded.wine_type,
		  body = excluded.body,
		  acidity = excluded.acidity,
		  pairings = excluded.pairings,
		  source_ids = excluded.source_ids,
		  updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, w := range wines {
		if w.ID == "" {
			w.ID = Slug(w)
		}
		if w.ID == "" {
			continue
		}

		pairingsJSON, err := json.Marshal(w.Pairings)
		if err != nil {
			return fmt.Errorf("marshal pairings for %s: %w", w.ID, err)
		}
		if w.Pairings == nil {
			pairingsJSON = []byte("[]")
		}
		sourceIDsJSON, err := json.Marshal(w.SourceIDs)
		if err != nil {
			return fmt.Errorf("marshal source ids for %s: %w", w.ID, err)
		}
		if w.SourceIDs == nil {
			sourceIDsJSON = []byte("{}")
		}

		if _, err := stmt.ExecContext(
			ctx,
			w.ID,
			w.Name,
			w.Winery,
			w.Variety,
			w.Region,
			w.Country,
			nullInt(w.Vintage),
			nullFloat(w.Rating),
			w.RatingCount,
			nullFloat(w.Price),
			w.Type,
			w.Body,
			w.Acidity,
			string(pairingsJSON),
			string(sourceIDsJSON),
		); err != nil {
			return fmt.Errorf("exec upsert for %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
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
