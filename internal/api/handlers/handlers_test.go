package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/api/middleware"
	"stockpulse/internal/database"
	"stockpulse/internal/export"
	"stockpulse/internal/forecast"
	"stockpulse/internal/llm"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
	"stockpulse/internal/query"
	"stockpulse/internal/services/shopify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSnapshots struct {
	snap        *models.Snapshot
	err         error
	invalidated []string
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSnapshots) Invalidate(ctx context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fakeAdvisor struct {
	answer string
	recs   []models.Recommendation
	err    error
	seen   string
}

func (f *fakeAdvisor) Answer(ctx context.Context, userID, question, contextBlock string) (string, error) {
	f.seen = contextBlock
	return f.answer, f.err
}

func (f *fakeAdvisor) Recommend(ctx context.Context, userID, contextBlock string) ([]models.Recommendation, error) {
	f.seen = contextBlock
	return f.recs, f.err
}

type fakeStores struct {
	stores  map[string]*models.Store
	created []*models.Store
}

func (f *fakeStores) Get(ctx context.Context, userID, storeID string) (*models.Store, error) {
	if s, ok := f.stores[storeID]; ok && s.UserID == userID {
		return s, nil
	}
	return nil, database.ErrStoreNotFound
}

func (f *fakeStores) Active(ctx context.Context, userID string) (*models.Store, error) {
	for _, s := range f.stores {
		if s.UserID == userID && s.IsActive {
			return s, nil
		}
	}
	return nil, database.ErrStoreNotFound
}

func (f *fakeStores) List(ctx context.Context, userID string) ([]models.Store, error) {
	var out []models.Store
	for _, s := range f.stores {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStores) Create(ctx context.Context, store *models.Store) error {
	store.ID = "new"
	f.created = append(f.created, store)
	return nil
}

func (f *fakeStores) Activate(ctx context.Context, userID, storeID string) error {
	if _, err := f.Get(ctx, userID, storeID); err != nil {
		return err
	}
	return nil
}

func (f *fakeStores) Delete(ctx context.Context, userID, storeID string) error {
	if _, err := f.Get(ctx, userID, storeID); err != nil {
		return err
	}
	delete(f.stores, storeID)
	return nil
}

type fakeCredentials struct{ saved map[string]string }

func (f *fakeCredentials) SaveOpenAIKey(ctx context.Context, userID, apiKey string) error {
	f.saved[userID] = apiKey
	return nil
}

type fakePublisher struct {
	events []models.InventoryEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event models.InventoryEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func sampleSnapshot() *models.Snapshot {
	now := time.Now().UTC()
	return &models.Snapshot{
		Platform:  models.PlatformShopify,
		FetchedAt: now,
		Products: []models.RawProduct{
			{ID: "1", Title: "Hoodie", ProductType: "Apparel", Variants: []models.RawVariant{
				{ID: "11", SKU: "H-1", InventoryQuantity: 4, Price: decimal.NewFromInt(20)},
			}},
			{ID: "2", Title: "Mug", ProductType: "Kitchen", Variants: []models.RawVariant{
				{ID: "21", SKU: "M-1", InventoryQuantity: 80, Price: decimal.NewFromInt(8)},
			}},
		},
		Orders: []models.RawOrder{
			{ID: "100", CreatedAt: now.AddDate(0, 0, -3), LineItems: []models.RawLineItem{
				{ProductID: "1", VariantID: "11", Quantity: 3, Price: decimal.NewFromInt(20)},
			}},
		},
	}
}

func withUser(register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequireUser())
	register(r)
	return r
}

func do(r http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(proxy.HeaderUserID, "u1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProxyHandler(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/api/2024-01/orders.json":
			assert.Equal(t, "tok", r.Header.Get(proxy.HeaderAccessToken))
			assert.Equal(t, "any", r.URL.Query().Get("status"))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Link", `<https://x/orders.json?page_info=abc>; rel="next"`)
			_, _ = w.Write([]byte(`{"orders":[]}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":"missing scope"}`))
		}
	}))
	defer upstream.Close()

	shop := strings.TrimPrefix(upstream.URL, "https://")
	stores := &fakeStores{stores: map[string]*models.Store{
		"s1": {ID: "s1", UserID: "u1", ShopURL: shop, APIToken: "tok", IsActive: true},
	}}
	m := metrics.New()
	h := NewProxyHandler(proxy.NewRelay(upstream.Client(), "", logger.Nop()), stores, m, logger.Nop())
	r := gin.New()
	r.Any("/api/shopify/*path", h.Handle)

	w := do(r, http.MethodGet, "/api/shopify/2024-01/orders", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"orders":[]}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Link"), "page_info=abc")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues("GET", "200")))

	w = do(r, http.MethodGet, "/api/shopify/products", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"missing scope"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/shopify/products", nil, map[string]string{proxy.HeaderUserID: "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"no active store"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/shopify/products", nil, map[string]string{proxy.HeaderUserID: " "})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStoreHandlerCreateNormalizesShopify(t *testing.T) {
	stores := &fakeStores{stores: map[string]*models.Store{}}
	snaps := &fakeSnapshots{}
	h := NewStoreHandler(stores, snaps, logger.Nop())
	r := withUser(func(r *gin.Engine) { r.POST("/stores", h.Create) })

	w := do(r, http.MethodPost, "/stores", []byte(`{"shop_url":"https://Demo.myshopify.com/admin","api_token":"t","is_active":true}`), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, stores.created, 1)
	assert.Equal(t, "demo.myshopify.com", stores.created[0].ShopURL)
	assert.Equal(t, models.PlatformShopify, stores.created[0].Platform)
	assert.Equal(t, "u1", stores.created[0].UserID)
	assert.NotContains(t, w.Body.String(), `"t"`)
	assert.Equal(t, []string{"u1"}, snaps.invalidated)

	w = do(r, http.MethodPost, "/stores", []byte(`{"platform":"etsy","shop_url":"x","api_token":"t"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/stores", []byte(`{"shop_url":"x"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreHandlerActivateAndDelete(t *testing.T) {
	stores := &fakeStores{stores: map[string]*models.Store{"s1": {ID: "s1", UserID: "u1"}}}
	snaps := &fakeSnapshots{}
	h := NewStoreHandler(stores, snaps, logger.Nop())
	r := withUser(func(r *gin.Engine) {
		r.PUT("/stores/:id/activate", h.Activate)
		r.DELETE("/stores/:id", h.Delete)
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/stores/s1/activate", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/stores/s2/activate", nil, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/stores/s1", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/stores/s1", nil, nil).Code)
	assert.Equal(t, []string{"u1", "u1"}, snaps.invalidated)
}

func TestCredentialHandler(t *testing.T) {
	creds := &fakeCredentials{saved: map[string]string{}}
	h := NewCredentialHandler(creds, logger.Nop())
	r := withUser(func(r *gin.Engine) { r.PUT("/credentials/openai", h.SaveOpenAI) })

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/credentials/openai", []byte(`{"api_key":"  "}`), nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/credentials/openai", []byte(`{"api_key":"sk-1"}`), nil).Code)
	assert.Equal(t, "sk-1", creds.saved["u1"])
}

func newInventoryRouter(snaps *fakeSnapshots) *gin.Engine {
	h := NewInventoryHandler(snaps, forecast.NewEngine(), export.New(logger.Nop()), logger.Nop())
	return withUser(func(r *gin.Engine) {
		r.GET("/inventory", h.List)
		r.GET("/inventory/forecasts", h.Forecasts)
		r.GET("/inventory/alerts", h.Alerts)
		r.GET("/inventory/export", h.Export)
	})
}

func TestInventoryHandlerList(t *testing.T) {
	r := newInventoryRouter(&fakeSnapshots{snap: sampleSnapshot()})

	w := do(r, http.MethodGet, "/inventory", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data  []models.MergedProduct `json:"data"`
		Total int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 3, body.Data[0].Sales)

	w = do(r, http.MethodGet, "/inventory?category=kitchen", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "M-1", body.Data[0].SKU)
}

func TestInventoryHandlerErrors(t *testing.T) {
	r := newInventoryRouter(&fakeSnapshots{err: proxy.ErrNoActiveStore})
	w := do(r, http.MethodGet, "/inventory", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"no active store"}`, w.Body.String())

	r = newInventoryRouter(&fakeSnapshots{err: &proxy.UpstreamError{StatusCode: 401, Message: "bad token"}})
	w = do(r, http.MethodGet, "/inventory/alerts", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "bad token")

	r = newInventoryRouter(&fakeSnapshots{snap: sampleSnapshot()})
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/inventory/forecasts?reorder_point=x", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/inventory/forecasts?future_periods=-1", nil, nil).Code)
}

func TestInventoryHandlerForecastsAndAlerts(t *testing.T) {
	r := newInventoryRouter(&fakeSnapshots{snap: sampleSnapshot()})

	w := do(r, http.MethodGet, "/inventory/forecasts?reorder_point=10&future_periods=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var forecasts struct {
		Data []models.ProductForecast `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecasts))
	require.Len(t, forecasts.Data, 2)
	assert.Len(t, forecasts.Data[0].Forecast.Points, 14)

	w = do(r, http.MethodGet, "/inventory/alerts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alertBody struct {
		Data []models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alertBody))
	types := map[models.AlertType]string{}
	for _, a := range alertBody.Data {
		types[a.Type] = a.SKU
	}
	assert.Equal(t, "H-1", types[models.AlertTypeLowStock])
	assert.Equal(t, "M-1", types[models.AlertTypeOverstock])

	w = do(r, http.MethodGet, "/inventory/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func newQueryRouter(snaps *fakeSnapshots, advisor *fakeAdvisor, m *metrics.Metrics) *gin.Engine {
	h := NewQueryHandler(snaps, query.NewClassifier(), forecast.NewEngine(), advisor, m, logger.Nop())
	return withUser(func(r *gin.Engine) {
		r.POST("/query", h.Ask)
		r.POST("/recommendations", h.Recommend)
	})
}

func TestQueryHandlerWithoutKeyReturnsContext(t *testing.T) {
	m := metrics.New()
	advisor := &fakeAdvisor{err: llm.ErrNoAPIKey}
	r := newQueryRouter(&fakeSnapshots{snap: sampleSnapshot()}, advisor, m)

	w := do(r, http.MethodPost, "/query", []byte(`{"query":"Which products are running low?"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, query.IntentLowStock, resp.Query.Intent)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "H-1", resp.Products[0].Product.SKU)
	assert.Contains(t, resp.Context, "Hoodie")
	assert.False(t, resp.AIEnabled)
	assert.Empty(t, resp.Answer)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryIntents.WithLabelValues("low_stock")))
}

func TestQueryHandlerAnswers(t *testing.T) {
	advisor := &fakeAdvisor{answer: "Restock the Hoodie."}
	r := newQueryRouter(&fakeSnapshots{snap: sampleSnapshot()}, advisor, metrics.New())

	w := do(r, http.MethodPost, "/query", []byte(`{"query":"tell me about hoodie"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.AIEnabled)
	assert.Equal(t, "Restock the Hoodie.", resp.Answer)
	assert.Equal(t, resp.Context, advisor.seen)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/query", []byte(`{"query":" "}`), nil).Code)

	advisor.err = errors.New("openai down")
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/query", []byte(`{"query":"hi"}`), nil).Code)
}

func TestRecommendationsMergeRulesAndAI(t *testing.T) {
	advisor := &fakeAdvisor{recs: []models.Recommendation{{Type: "PRICING", Priority: models.PriorityLow, Title: "Raise mug price", Source: "ai"}}}
	r := newQueryRouter(&fakeSnapshots{snap: sampleSnapshot()}, advisor, metrics.New())

	w := do(r, http.MethodPost, "/recommendations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data      []models.Recommendation `json:"data"`
		AIEnabled bool                    `json:"ai_enabled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.AIEnabled)
	sources := map[string]int{}
	for _, rec := range body.Data {
		sources[rec.Source]++
	}
	assert.Equal(t, 1, sources["ai"])
	assert.GreaterOrEqual(t, sources["rules"], 2)

	advisor.err = errors.New("timeout")
	w = do(r, http.MethodPost, "/recommendations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ai_error":"timeout"`)
	assert.Contains(t, w.Body.String(), `"ai_enabled":false`)
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	pub := &fakePublisher{}
	h := NewWebhookHandler("shh", pub, logger.Nop())
	h.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.POST("/webhooks/shopify", h.Shopify)

	payload := []byte(`{"id":1,"inventory_item_id":5}`)
	headers := map[string]string{
		shopify.HeaderTopic:      "inventory_levels/update",
		shopify.HeaderShopDomain: "demo.myshopify.com",
		shopify.HeaderHmac:       sign(payload, "shh"),
	}

	w := do(r, http.MethodPost, "/webhooks/shopify", payload, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "inventory_levels/update", pub.events[0].Topic)
	assert.Equal(t, "demo.myshopify.com", pub.events[0].ShopDomain)
	assert.JSONEq(t, string(payload), string(pub.events[0].Payload))

	headers[shopify.HeaderHmac] = sign(payload, "wrong")
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/webhooks/shopify", payload, headers).Code)

	headers[shopify.HeaderHmac] = sign(payload, "shh")
	delete(headers, shopify.HeaderTopic)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/webhooks/shopify", payload, headers).Code)

	headers[shopify.HeaderTopic] = "orders/create"
	pub.err = errors.New("broker down")
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/webhooks/shopify", payload, headers).Code)
}
