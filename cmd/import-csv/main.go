package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"vinohub/internal/auth"
	"vinohub/internal/catalog"
	"vinohub/internal/importer"
	"vinohub/internal/ingest"
	"vinohub/internal/ratings"
	"vinohub/internal/wines"
	"vinohub/pkg/config"
	"vinohub/pkg/database"
	"vinohub/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		file       = flag.String("file", "", "input CSV path")
		user       = flag.String("user", "", "user id, email, or username (ratings mode)")
		mode       = flag.String("mode", "ratings", "ratings: import tastings into a user's journal; catalog: upsert catalog entries")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if *file == "" {
		log.Fatal().Msg("-file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("open file failed")
	}
	defer f.Close()

	rows, err := importer.ReadRows(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read csv failed")
	}

	switch *mode {
	case "ratings":
		importRatings(ctx, db, *user, rows)
	case "catalog":
		importCatalog(ctx, db, rows)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func importRatings(ctx context.Context, db *sql.DB, user string, rows []importer.Row) {
	if user == "" {
		log.Fatal().Msg("-user is required in ratings mode")
	}

	userID, err := resolveUser(ctx, auth.NewRepo(db), user)
	if err != nil {
		log.Fatal().Err(err).Str("user", user).Msg("resolve user failed")
	}

	rec := importer.NewReconciler(catalog.NewRepo(db), wines.NewRepo(db), ratings.NewRepo(db))

	summary, err := rec.ImportRatings(ctx, userID, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	for _, note := range summary.Unmatched {
		log.Warn().Msg(note)
	}
	for _, note := range summary.Errors {
		log.Warn().Msg(note)
	}
	log.Info().
		Int("rows", summary.Rows).
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("unmatched", len(summary.Unmatched)).
		Msg("ratings imported")
}

func importCatalog(ctx context.Context, db *sql.DB, rows []importer.Row) {
	entries := importer.RowsToCanonical(rows)
	if err := ingest.SaveToCatalog(ctx, db, entries); err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}
	log.Info().Int("wines", len(entries)).Msg("catalog entries upserted")
}

// resolveUser accepts whatever handle is easiest to type on a command line.
func resolveUser(ctx context.Context, repo *auth.Repo, handle string) (string, error) {
	if u, err := repo.GetByID(ctx, handle); err == nil && u != nil {
		return u.ID, nil
	}
	if u, err := repo.GetByEmail(ctx, handle); err == nil && u != nil {
		return u.ID, nil
	}
	u, err := repo.GetByUsername(ctx, handle)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", errors.New("user not found")
	}
	return u.ID, nil
}
