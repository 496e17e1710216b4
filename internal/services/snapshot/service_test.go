package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/cache"
	"stockpulse/internal/database"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
)

type staticStores map[string]*models.Store

func (s staticStores) Active(_ context.Context, userID string) (*models.Store, error) {
	if st, ok := s[userID]; ok {
		return st, nil
	}
	return nil, database.ErrStoreNotFound
}

func newShopifyUpstream(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/products.json"):
			_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"Hoodie","variants":[{"id":11,"sku":"H-1","price":"20.00","inventory_quantity":4}]}]}`))
		case strings.HasSuffix(r.URL.Path, "/orders.json"):
			_, _ = w.Write([]byte(`{"orders":[{"id":7,"created_at":"2024-05-01T00:00:00Z","line_items":[{"product_id":1,"variant_id":11,"quantity":2,"price":"20.00"}]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSnapshotReadsThroughCache(t *testing.T) {
	var calls int32
	srv := newShopifyUpstream(t, &calls)
	stores := staticStores{"u1": {ID: "s1", UserID: "u1", Platform: models.PlatformShopify, ShopURL: strings.TrimPrefix(srv.URL, "https://"), APIToken: "t"}}
	m := metrics.New()
	svc := NewService(stores, cache.NewMemory(5*time.Minute), Options{HTTPClient: srv.Client()}, m, logger.Nop())
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, models.PlatformShopify, snap.Platform)
	assert.Equal(t, "1", snap.Orders[0].LineItems[0].ProductID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	_, err = svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("memory")))

	require.NoError(t, svc.Invalidate(ctx, "u1"))
	_, err = svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestSnapshotNoActiveStore(t *testing.T) {
	svc := NewService(staticStores{}, cache.NewMemory(time.Minute), Options{}, metrics.New(), logger.Nop())

	_, err := svc.Snapshot(context.Background(), "nobody")
	assert.ErrorIs(t, err, proxy.ErrNoActiveStore)
}

func TestSnapshotUpstreamFailureIsNotCached(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/orders.json") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	stores := staticStores{"u1": {ID: "s1", UserID: "u1", ShopURL: strings.TrimPrefix(srv.URL, "https://"), APIToken: "t"}}
	c := cache.NewMemory(time.Minute)
	svc := NewService(stores, c, Options{HTTPClient: srv.Client()}, metrics.New(), logger.Nop())

	_, err := svc.Snapshot(context.Background(), "u1")
	require.Error(t, err)

	_, ok, _ := c.Get(context.Background(), "u1")
	assert.False(t, ok)
}

func TestSnapshotUnsupportedPlatform(t *testing.T) {
	stores := staticStores{"u1": {ID: "s1", UserID: "u1", Platform: "etsy"}}
	svc := NewService(stores, cache.NewMemory(time.Minute), Options{}, metrics.New(), logger.Nop())

	_, err := svc.Refresh(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestSnapshotSquare(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/catalog/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"objects":[{"id":"I1","type":"ITEM","item_data":{"name":"Beans","variations":[{"id":"V1","type":"ITEM_VARIATION","item_variation_data":{"sku":"B-1","price_money":{"amount":500}}}]}}]}`))
	})
	mux.HandleFunc("/v2/inventory/counts/batch-retrieve", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"counts":[{"catalog_object_id":"V1","quantity":"12"}]}`))
	})
	mux.HandleFunc("/v2/locations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"locations":[{"id":"L1"}]}`))
	})
	mux.HandleFunc("/v2/orders/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[{"id":"O1","created_at":"2024-05-01T00:00:00Z","line_items":[{"catalog_object_id":"V1","quantity":"3"}]}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stores := staticStores{"u1": {ID: "s1", UserID: "u1", Platform: models.PlatformSquare, ShopURL: "cafe", APIToken: "sq"}}
	svc := NewService(stores, cache.NewMemory(time.Minute), Options{SquareBaseURL: srv.URL, HTTPClient: srv.Client()}, metrics.New(), logger.Nop())

	snap, err := svc.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.PlatformSquare, snap.Platform)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, 12, snap.Products[0].Variants[0].InventoryQuantity)
	assert.Equal(t, "I1", snap.Orders[0].LineItems[0].ProductID)
}
