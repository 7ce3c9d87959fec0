package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vinohub/internal/auth"
	"vinohub/internal/catalog"
	"vinohub/internal/cellar"
	"vinohub/internal/menuscan"
	"vinohub/internal/notify"
	"vinohub/internal/ocr"
	"vinohub/internal/ratings"
	"vinohub/internal/recommend"
	"vinohub/internal/scanfeed"
	"vinohub/internal/scans"
	synchub "vinohub/internal/sync"
	"vinohub/internal/wines"
	"vinohub/pkg/config"
	"vinohub/pkg/database"
	"vinohub/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	dbCfg := database.DefaultConfig()
	if cfg.Database.Path != "" {
		dbCfg = database.Config{Path: cfg.Database.Path}
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies(cfg.Server.TrustedProxies)

	// Long-running listeners start first so binding errors show up early.
	hub := synchub.NewHub()
	tcpSrv := synchub.NewServer(cfg.Sync.TCPAddr, hub)

	feed := scanfeed.NewHub(0)

	registry := notify.NewRegistry()
	udpSrv := notify.NewServer(cfg.Notify.UDPAddr, registry)

	router.GET("/ws/sync", synchub.WSHandler(hub))
	router.GET("/ws/scanfeed/:scanID", scanfeed.WSHandler(feed))
	router.GET("/api/scanfeed/:scanID", scanfeed.HistoryHandler(feed))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug/sync", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Stats())
	})

	// Repos
	authRepo := auth.NewRepo(db)
	catalogRepo := catalog.NewRepo(db)
	winesRepo := wines.NewRepo(db)
	ratingsRepo := ratings.NewRepo(db)
	cellarRepo := cellar.NewRepo(db)
	scansRepo := scans.NewRepo(db)

	// Catalog (public)
	catalogHandler := catalog.NewHandler(catalogRepo)
	catalogHandler.RegisterRoutes(router.Group("/api/catalog"))

	// Auth
	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.TokenTTL,
	}
	authHandler := auth.NewHandler(authRepo, tokens)
	authHandler.RegisterRoutes(router.Group("/api/auth"))

	// Protected API
	api := router.Group("/api")
	api.Use(auth.Middleware(tokens, authRepo))

	api.GET("/users/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
		})
	})

	winesHandler := wines.NewHandler(winesRepo, hub)
	winesGroup := api.Group("/wines")
	winesHandler.RegisterRoutes(winesGroup)

	ratingsHandler := ratings.NewHandler(ratingsRepo, winesRepo, catalogRepo, hub)
	ratingsHandler.RegisterRoutes(api.Group("/ratings"))
	ratingsHandler.RegisterWineRoutes(winesGroup)

	cellarHandler := cellar.NewHandler(cellarRepo, winesRepo, hub)
	cellarHandler.RegisterRoutes(api.Group("/cellar"))

	recommendHandler := recommend.NewHandler(ratingsRepo, catalogRepo)
	recommendHandler.RegisterRoutes(api)

	var recognizer ocr.Recognizer = ocr.Disabled{}
	if cfg.OCR.URL != "" {
		recognizer = ocr.NewClient(cfg.OCR.URL, cfg.OCR.Timeout)
	}
	matcher := &menuscan.Matcher{Catalog: catalogRepo, Journal: winesRepo}
	scansHandler := scans.NewHandler(scansRepo, matcher, recognizer, feed, hub, udpSrv, cfg.Scans.Dir)
	scansHandler.RegisterRoutes(api.Group("/scans"))

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := udpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.Server.Addr).Msg("http api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := tcpSrv.Close(); err != nil {
		log.Error().Err(err).Msg("tcp shutdown error")
	}
	if err := udpSrv.Close(); err != nil {
		log.Error().Err(err).Msg("udp shutdown error")
	}

	wg.Wait()
	log.Info().Msg("servers stopped")
}
