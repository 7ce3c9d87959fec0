package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"vinohub/internal/ingest"
	"vinohub/pkg/config"
	"vinohub/pkg/database"
	"vinohub/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		sourceA    = flag.String("source-a", "https://api.sampleapis.com/wines", "sampleapis base URL (empty disables)")
		mirrorURL  = flag.String("mirror", "http://localhost:9000", "mirror server base URL (empty disables)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
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

	var sources []ingest.Source
	if *sourceA != "" {
		sources = append(sources, ingest.NewSourceA(*sourceA))
	}
	if *mirrorURL != "" {
		sources = append(sources, ingest.NewSourceB(*mirrorURL))
	}
	if len(sources) == 0 {
		log.Fatal().Msg("no sources enabled")
	}

	agg := ingest.NewAggregator(sources...)

	wines, err := agg.FetchAndMerge(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}

	log.Info().Int("wines", len(wines)).Msg("merged catalog entries")

	if err := ingest.SaveToCatalog(ctx, db, wines); err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}

	log.Info().Str("db", dbCfg.Path).Msg("catalog populated")
}
