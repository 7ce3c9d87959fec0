package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"vinohub/pkg/config"
	"vinohub/pkg/database"
	"vinohub/pkg/logging"
	"vinohub/pkg/models"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		outPath    = flag.String("out", "", "output JSON path (default: mirror.path from config)")
		limit      = flag.Int("limit", 500, "how many catalog entries to export")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	path := *outPath
	if path == "" {
		path = cfg.Mirror.Path
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbCfg := database.DefaultConfig()
	if cfg.Database.Path != "" {
		dbCfg = database.Config{Path: cfg.Database.Path}
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	wines, err := exportCatalog(ctx, db, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir failed")
	}

	b, err := json.MarshalIndent(wines, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal failed")
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}

	log.Info().Int("wines", len(wines)).Str("path", path).Msg("mirror exported")
}

// exportCatalog reads catalog rows back into the canonical form the mirror
// source consumes, so an exported file round-trips through catalog-sync.
func exportCatalog(ctx context.Context, db *sql.DB, limit int) ([]models.WineCanonical, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, winery, variety, region, country, vintage, rating,
		       rating_count, price, wine_type, body, acidity, pairings, source_ids
		FROM catalog_wines
		ORDER BY name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WineCanonical
	for rows.Next() {
		var (
			w           models.WineCanonical
			vintage     sql.NullInt64
			rating      sql.NullFloat64
			price       sql.NullFloat64
			pairingsRaw string
			sourcesRaw  string
		)
		if err := rows.Scan(
			&w.ID, &w.Name, &w.Winery, &w.Variety, &w.Region, &w.Country,
			&vintage, &rating, &w.RatingCount, &price, &w.Type, &w.Body,
			&w.Acidity, &pairingsRaw, &sourcesRaw,
		); err != nil {
			return nil, err
		}

		if vintage.Valid {
			v := int(vintage.Int64)
			w.Vintage = &v
		}
		if rating.Valid {
			r := rating.Float64
			w.Rating = &r
		}
		if price.Valid {
			p := price.Float64
			w.Price = &p
		}
		_ = json.Unmarshal([]byte(pairingsRaw), &w.Pairings)
		_ = json.Unmarshal([]byte(sourcesRaw), &w.SourceIDs)

		out = append(out, w)
	}
	return out, rows.Err()
}
