package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpulse/internal/api"
	"stockpulse/internal/cache"
	"stockpulse/internal/config"
	"stockpulse/internal/database"
	"stockpulse/internal/llm"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/proxy"
	"stockpulse/internal/services/snapshot"
	"stockpulse/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL, cfg.DatabaseDriver)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	m := metrics.New()
	stores := database.NewStoreRepository(db.DB)
	credentials := database.NewCredentialRepository(db.DB)

	snapshotCache, closeCache := newCache(cfg, logger)
	defer closeCache()

	publisher := worker.NewPublisher(cfg)
	defer publisher.Close()

	server := api.New(cfg, logger, api.Services{
		Stores:      stores,
		Credentials: credentials,
		Snapshots: snapshot.NewService(stores, snapshotCache, snapshot.Options{
			ShopifyAPIVersion: cfg.ShopifyAPIVersion,
			SquareBaseURL:     cfg.SquareBaseURL,
		}, m, logger),
		Advisor:   llm.NewClient(credentials, llm.Options{BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel}, m, logger),
		Publisher: publisher,
		Relay:     proxy.NewRelay(nil, cfg.ShopifyAPIVersion, logger),
		Metrics:   m,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}

// newCache uses Redis when REDIS_URL is set so API and worker share snapshots.
func newCache(cfg *config.Config, logger *logger.Logger) (cache.SnapshotCache, func()) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.SnapshotTTL), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.SnapshotTTL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis: %v", err)
	}
	return r, func() { _ = r.Close() }
}
