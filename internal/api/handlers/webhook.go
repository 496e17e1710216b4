package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
	"stockpulse/internal/services/shopify"
)

const (
	headerWebhookID = "X-Shopify-Webhook-Id"
	maxWebhookBody  = 5 << 20
)

// WebhookHandler accepts Shopify webhooks and queues them for the worker.
type WebhookHandler struct {
	secret    string
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewWebhookHandler(secret string, publisher EventPublisher, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, publisher: publisher, logger: logger, now: time.Now}
}

func (h *WebhookHandler) Shopify(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if h.secret != "" && !shopify.ValidateWebhook(payload, c.GetHeader(shopify.HeaderHmac), h.secret) {
		h.logger.Warn("Rejected webhook with invalid signature from %s", c.GetHeader(shopify.HeaderShopDomain))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	event := models.InventoryEvent{
		Topic:      strings.ToLower(strings.TrimSpace(c.GetHeader(shopify.HeaderTopic))),
		ShopDomain: proxy.NormalizeShopDomain(c.GetHeader(shopify.HeaderShopDomain)),
		WebhookID:  c.GetHeader(headerWebhookID),
		ReceivedAt: h.now().UTC(),
		Payload:    json.RawMessage(payload),
	}
	if event.Topic == "" || event.ShopDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook topic or shop domain"})
		return
	}
	if !json.Valid(payload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is not valid JSON"})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish %s webhook for %s: %v", event.Topic, event.ShopDomain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue webhook"})
		return
	}

	h.logger.Info("Queued %s webhook for %s", event.Topic, event.ShopDomain)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
