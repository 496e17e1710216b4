// Package snapshot loads a user's products and orders from their active store,
// reading through the snapshot cache.
package snapshot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stockpulse/internal/cache"
	"stockpulse/internal/connectors"
	shopifyconnector "stockpulse/internal/connectors/shopify"
	squareconnector "stockpulse/internal/connectors/square"
	"stockpulse/internal/database"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
)

var ErrUnsupportedPlatform = connectors.ErrUnsupportedPlatform

// ActiveStores resolves the store a snapshot is fetched from.
type ActiveStores interface {
	Active(ctx context.Context, userID string) (*models.Store, error)
}

type Options struct {
	ShopifyAPIVersion string
	SquareBaseURL     string
	HTTPClient        *http.Client
}

type Service struct {
	stores     ActiveStores
	cache      cache.SnapshotCache
	connectors connectors.Registry
	metrics    *metrics.Metrics
	logger     *logger.Logger
	now        func() time.Time
}

func NewService(stores ActiveStores, c cache.SnapshotCache, opts Options, m *metrics.Metrics, log *logger.Logger) *Service {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.ShopifyAPIVersion == "" {
		opts.ShopifyAPIVersion = proxy.DefaultAPIVersion
	}
	return &Service{
		stores: stores,
		cache:  c,
		connectors: connectors.NewRegistry(
			shopifyconnector.New(opts.ShopifyAPIVersion, opts.HTTPClient, log),
			squareconnector.New(opts.SquareBaseURL, opts.HTTPClient, log),
		),
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

// Snapshot returns the cached snapshot for userID or fetches a fresh one.
func (s *Service) Snapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	snap, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("snapshot cache read failed for %s: %v", userID, err)
	}
	if ok {
		s.metrics.CacheHits.WithLabelValues(s.cache.Name()).Inc()
		return snap, nil
	}
	s.metrics.CacheMisses.WithLabelValues(s.cache.Name()).Inc()
	return s.Refresh(ctx, userID)
}

// Refresh fetches from the active store and replaces the cached snapshot.
func (s *Service) Refresh(ctx context.Context, userID string) (*models.Snapshot, error) {
	store, err := s.stores.Active(ctx, userID)
	if errors.Is(err, database.ErrStoreNotFound) {
		return nil, proxy.ErrNoActiveStore
	}
	if err != nil {
		return nil, err
	}

	start := s.now()
	snap, err := s.fetch(ctx, store)
	s.metrics.UpstreamDuration.WithLabelValues(string(store.Platform)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, snap); err != nil {
		s.logger.Warn("snapshot cache write failed for %s: %v", userID, err)
	}
	s.logger.Info("refreshed snapshot for %s: %d products, %d orders", userID, len(snap.Products), len(snap.Orders))
	return snap, nil
}

func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}

func (s *Service) fetch(ctx context.Context, store *models.Store) (*models.Snapshot, error) {
	connector, err := s.connectors.For(store.Platform)
	if err != nil {
		return nil, err
	}
	snap, err := connector.Fetch(ctx, store)
	if err != nil {
		return nil, err
	}
	snap.FetchedAt = s.now()
	return snap, nil
}
