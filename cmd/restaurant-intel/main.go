package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restaurant-intel/internal/cfg"
	"restaurant-intel/internal/common"
	"restaurant-intel/internal/dataset"
	"restaurant-intel/internal/metrics"
	"restaurant-intel/internal/predict"
	"restaurant-intel/internal/storage"
	"restaurant-intel/internal/web"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if os.Getenv(common.EnvAppEnv) != "production" {
		_ = godotenv.Load()
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	// Artifacts are required; there is no degraded mode.
	enc, err := predict.LoadEncoders(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.EncodersPath).Msg("failed to load label encoders")
	}
	options, err := dataset.Load(c.DatasetPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("failed to load reference dataset")
	}
	price, rating, err := predict.NewPredictors(ctx, c, mw)
	if err != nil {
		log.Fatal().Err(err).Str("backend", c.InferenceBackend).Msg("failed to load models")
	}

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	var outcomes predict.OutcomeStore
	var history web.HistoryStore
	if store != nil {
		outcomes = store
		history = store
	}

	svc := predict.NewService(enc, price, rating, mw, outcomes, c.InferenceBackend)
	server := web.NewServer(web.Config{
		Port:           c.HTTPPort,
		Currency:       c.Currency,
		AllowedOrigins: c.AllowedOrigins,
		Predictor:      svc,
		Options:        options,
		History:        history,
		Metrics:        mw,
		Gatherer:       prometheus.DefaultGatherer,
	})
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	log.Info().
		Int("port", c.HTTPPort).
		Str("backend", c.InferenceBackend).
		Int("dataset_rows", options.Rows()).
		Bool("history", store != nil).
		Msg("restaurant-intel ready")

	waitForShutdown(ctx, cancel, server)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
}

// initializeStorage opens the outcome log if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}
	return store
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *web.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
