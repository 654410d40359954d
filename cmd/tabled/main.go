package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"table-tracking-backend/config"
	"table-tracking-backend/internal/api"
	"table-tracking-backend/internal/db"
	"table-tracking-backend/internal/logging"
	"table-tracking-backend/internal/notification"
	"table-tracking-backend/internal/store"
	"table-tracking-backend/internal/tariff"
	"table-tracking-backend/internal/tracker"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		boot := logging.NewLogger("console", "info")
		boot.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	logger := logging.NewLogger(cfg.Logging.Format, cfg.Logging.Level)
	logger.Info().Str("path", configPath).Msg("configuration loaded")
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := time.LoadLocation(cfg.Venue.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Venue.Timezone).Msg("unknown venue timezone")
	}

	rates, err := tariff.FromConfig(cfg.Tariff, loc)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid tariff")
	}

	tables := tracker.New(rates, tracker.Options{
		Slots:          cfg.Venue.Slots,
		MaxPerCategory: cfg.Venue.MaxPerCategory,
		PerHead:        cfg.Tariff.PerHead,
		Clock:          time.Now,
	})
	logger.Info().Int("slots", tables.SlotCount()).Str("timezone", loc.String()).Msg("venue ready")

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	appStore := store.NewGormStore(gormDB)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier api.Notifier
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
		pool.Start(ctx)
		notifier = pool
		logger.Info().Int("workers", cfg.WorkerPool.Size).Msg("push notifications enabled")
	} else {
		logger.Warn().Msg("VAPID keys not configured, push notifications disabled")
	}

	handler := api.NewHandler(api.Options{
		Tracker:  tables,
		Store:    appStore,
		Tariff:   rates,
		PerHead:  cfg.Tariff.PerHead,
		Location: loc,
		Clock:    time.Now,
		Notifier: notifier,
		WebPush:  webpushOptions,
		Log:      logger,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	// Active parties are not persisted; only archived receipts survive a restart.
	logger.Info().Msg("server gracefully stopped")
}
