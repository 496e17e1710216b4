package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/api/handlers"
	"stockpulse/internal/api/middleware"
	"stockpulse/internal/config"
	"stockpulse/internal/export"
	"stockpulse/internal/forecast"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/proxy"
	"stockpulse/internal/query"
)

// StoreRepository is the store registry as the API uses it.
type StoreRepository interface {
	proxy.StoreLookup
	handlers.StoreRegistry
}

// Snapshots reads and invalidates cached store snapshots.
type Snapshots interface {
	handlers.SnapshotSource
	handlers.SnapshotInvalidator
}

// Services are the process-scoped dependencies handlers are built from.
type Services struct {
	Stores      StoreRepository
	Credentials handlers.CredentialSaver
	Snapshots   Snapshots
	Advisor     handlers.Advisor
	Publisher   handlers.EventPublisher
	Relay       *proxy.Relay
	Metrics     *metrics.Metrics
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, svc Services) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	engine := forecast.NewEngine()
	proxyHandler := handlers.NewProxyHandler(svc.Relay, svc.Stores, svc.Metrics, logger)
	storeHandler := handlers.NewStoreHandler(svc.Stores, svc.Snapshots, logger)
	credentialHandler := handlers.NewCredentialHandler(svc.Credentials, logger)
	inventoryHandler := handlers.NewInventoryHandler(svc.Snapshots, engine, export.New(logger), logger)
	queryHandler := handlers.NewQueryHandler(svc.Snapshots, query.NewClassifier(), engine, svc.Advisor, svc.Metrics, logger)
	webhookHandler := handlers.NewWebhookHandler(cfg.ShopifyWebhookSecret, svc.Publisher, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	limiter := middleware.NewRateLimiter(cfg.ProxyRatePerSecond, cfg.ProxyBurst)
	router.Any("/api/shopify/*path", middleware.RequireUser(), limiter.Middleware(), proxyHandler.Handle)

	router.POST("/api/v1/webhooks/shopify", webhookHandler.Shopify)

	v1 := router.Group("/api/v1", middleware.RequireUser())
	{
		stores := v1.Group("/stores")
		{
			stores.GET("", storeHandler.List)
			stores.POST("", storeHandler.Create)
			stores.PUT("/:id/activate", storeHandler.Activate)
			stores.DELETE("/:id", storeHandler.Delete)
		}

		v1.PUT("/credentials/openai", credentialHandler.SaveOpenAI)

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", inventoryHandler.List)
			inventory.GET("/forecasts", inventoryHandler.Forecasts)
			inventory.GET("/alerts", inventoryHandler.Alerts)
			inventory.GET("/export", inventoryHandler.Export)
		}

		v1.POST("/query", queryHandler.Ask)
		v1.POST("/recommendations", queryHandler.Recommend)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the gin engine for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}
