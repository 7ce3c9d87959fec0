package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"vinohub/pkg/logging"
)

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	path := flag.String("path", "data/catalog-mirror.json", "mirror JSON produced by export-mirror")
	flag.Parse()

	logging.Setup(logging.Config{Level: "info", Format: "console"})

	// serves the exported catalog at GET /wines, the shape the mirror
	// ingest source expects
	http.HandleFunc("/wines", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(*path)
		if err != nil {
			http.Error(w, "cannot read mirror file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// validate JSON so a bad file doesn't silently break
		var tmp any
		if err := json.Unmarshal(b, &tmp); err != nil {
			http.Error(w, "mirror file invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})

	log.Info().Str("addr", *addr).Str("path", *path).Msg("mirror server listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("mirror server failed")
	}
}
