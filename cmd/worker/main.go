package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"stockpulse/internal/cache"
	"stockpulse/internal/config"
	"stockpulse/internal/database"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/services/snapshot"
	"stockpulse/internal/worker"
	"stockpulse/internal/worker/processors"
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

	db, err := database.New(cfg.DatabaseURL, cfg.DatabaseDriver)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var snapshotCache cache.SnapshotCache = cache.NewMemory(cfg.SnapshotTTL)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.SnapshotTTL, logger)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		defer r.Close()
		snapshotCache = r
	} else {
		logger.Warn("REDIS_URL not set, worker invalidations will not reach the API cache")
	}

	m := metrics.New()
	stores := database.NewStoreRepository(db.DB)
	snapshots := snapshot.NewService(stores, snapshotCache, snapshot.Options{
		ShopifyAPIVersion: cfg.ShopifyAPIVersion,
		SquareBaseURL:     cfg.SquareBaseURL,
	}, m, logger)

	processor := processors.NewEventProcessor(stores, snapshots, cfg.SnapshotPrefetch, logger)
	w := worker.New(cfg, logger, processor, m)
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting worker...")
	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped: %v", err)
	}
	logger.Info("Worker shut down")
}
