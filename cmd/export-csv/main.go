package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"vinohub/pkg/config"
	"vinohub/pkg/database"
	"vinohub/pkg/logging"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file")
		winesOut    = flag.String("wines", "data/wines.csv", "output CSV path for journal wines")
		tastingsOut = flag.String("tastings", "data/tastings.csv", "output CSV path for tastings")
		userID      = flag.String("user", "", "only export rows for this user id")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	if err := exportWines(ctx, db, *winesOut, *userID); err != nil {
		log.Fatal().Err(err).Msg("export wines failed")
	}
	if err := exportTastings(ctx, db, *tastingsOut, *userID); err != nil {
		log.Fatal().Err(err).Msg("export tastings failed")
	}

	log.Info().Str("wines", *winesOut).Str("tastings", *tastingsOut).Msg("export done")
}

func exportWines(ctx context.Context, db *sql.DB, outPath, userID string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "user_id", "name", "winery", "variety", "region", "country", "type", "vintage", "average", "price", "pairings"}); err != nil {
		return err
	}

	query := `
        SELECT id, user_id, name, winery, variety, region, country, wine_type,
               vintage, rating, price, pairings
        FROM wines
    `
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY name"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, uid, name, winery, variety, region, country, wineType string
			vintage                                                   sql.NullInt64
			rating, price                                             sql.NullFloat64
			pairingsRaw                                               string
		)
		if err := rows.Scan(&id, &uid, &name, &winery, &variety, &region, &country, &wineType, &vintage, &rating, &price, &pairingsRaw); err != nil {
			return err
		}

		var pairings []string
		_ = json.Unmarshal([]byte(pairingsRaw), &pairings)

		if err := w.Write([]string{
			id,
			uid,
			name,
			winery,
			variety,
			region,
			country,
			wineType,
			intOrEmpty(vintage),
			floatOrEmpty(rating),
			floatOrEmpty(price),
			strings.Join(pairings, "; "),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// exportTastings writes one row per rating, joined with the wine it was
// given to. The header uses the words import-csv recognizes, so the file
// round-trips: "rating" is the personal score, "average" the community one.
func exportTastings(ctx context.Context, db *sql.DB, outPath, userID string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "name", "winery", "variety", "region", "country", "type", "vintage", "rating", "average", "price", "note", "date"}); err != nil {
		return err
	}

	query := `
        SELECT r.user_id, w.name, w.winery, w.variety, w.region, w.country,
               w.wine_type, w.vintage, r.rating, w.rating, w.price, r.note, r.created_at
        FROM ratings r
        JOIN wines w ON w.id = r.wine_id
    `
	args := []any{}
	if userID != "" {
		query += " WHERE r.user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uid, name, winery, variety, region, country, wineType string
			vintage                                               sql.NullInt64
			personal                                              float64
			average, price                                        sql.NullFloat64
			note                                                  sql.NullString
			createdAt                                             sql.NullTime
		)
		if err := rows.Scan(&uid, &name, &winery, &variety, &region, &country, &wineType, &vintage, &personal, &average, &price, &note, &createdAt); err != nil {
			return err
		}

		date := ""
		if createdAt.Valid {
			date = createdAt.Time.UTC().Format(time.RFC3339)
		}

		if err := w.Write([]string{
			uid,
			name,
			winery,
			variety,
			region,
			country,
			wineType,
			intOrEmpty(vintage),
			strconv.FormatFloat(personal, 'f', -1, 64),
			floatOrEmpty(average),
			floatOrEmpty(price),
			note.String,
			date,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func intOrEmpty(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

func floatOrEmpty(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}
