package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/api/middleware"
	"stockpulse/internal/database"
	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
)

// StoreRegistry is the store persistence the handler needs.
type StoreRegistry interface {
	List(ctx context.Context, userID string) ([]models.Store, error)
	Create(ctx context.Context, store *models.Store) error
	Activate(ctx context.Context, userID, storeID string) error
	Delete(ctx context.Context, userID, storeID string) error
}

// CredentialSaver stores a user's OpenAI key.
type CredentialSaver interface {
	SaveOpenAIKey(ctx context.Context, userID, apiKey string) error
}

type StoreHandler struct {
	stores    StoreRegistry
	snapshots SnapshotInvalidator
	logger    *logger.Logger
}

func NewStoreHandler(stores StoreRegistry, snapshots SnapshotInvalidator, logger *logger.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, snapshots: snapshots, logger: logger}
}

type createStoreRequest struct {
	Platform models.Platform `json:"platform"`
	ShopURL  string          `json:"shop_url" binding:"required"`
	APIToken string          `json:"api_token" binding:"required"`
	IsActive bool            `json:"is_active"`
}

func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.stores.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to list stores: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stores})
}

func (h *StoreHandler) Create(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform := models.Platform(strings.ToLower(strings.TrimSpace(string(req.Platform))))
	switch platform {
	case "", models.PlatformShopify:
		platform = models.PlatformShopify
		req.ShopURL = proxy.NormalizeShopDomain(req.ShopURL)
	case models.PlatformSquare:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform " + string(req.Platform)})
		return
	}

	userID := middleware.UserID(c)
	store := &models.Store{
		UserID:   userID,
		Platform: platform,
		ShopURL:  req.ShopURL,
		APIToken: strings.TrimSpace(req.APIToken),
		IsActive: req.IsActive,
	}
	if err := h.stores.Create(c.Request.Context(), store); err != nil {
		h.logger.Error("Failed to create store: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store"})
		return
	}
	if store.IsActive {
		h.invalidate(c, userID)
	}
	c.JSON(http.StatusCreated, gin.H{"data": store})
}

func (h *StoreHandler) Activate(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.stores.Activate(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	h.invalidate(c, userID)
	c.JSON(http.StatusOK, gin.H{"message": "Store activated"})
}

func (h *StoreHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.stores.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	h.invalidate(c, userID)
	c.JSON(http.StatusOK, gin.H{"message": "Store deleted"})
}

func (h *StoreHandler) storeError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrStoreNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}
	h.logger.Error("Store operation failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store"})
}

func (h *StoreHandler) invalidate(c *gin.Context, userID string) {
	if err := h.snapshots.Invalidate(c.Request.Context(), userID); err != nil {
		h.logger.Warn("Failed to invalidate snapshot for %s: %v", userID, err)
	}
}

type CredentialHandler struct {
	credentials CredentialSaver
	logger      *logger.Logger
}

func NewCredentialHandler(credentials CredentialSaver, logger *logger.Logger) *CredentialHandler {
	return &CredentialHandler{credentials: credentials, logger: logger}
}

type openAIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func (h *CredentialHandler) SaveOpenAI(c *gin.Context) {
	var req openAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}
	if err := h.credentials.SaveOpenAIKey(c.Request.Context(), middleware.UserID(c), req.APIKey); err != nil {
		h.logger.Error("Failed to save OpenAI key: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OpenAI key saved"})
}
