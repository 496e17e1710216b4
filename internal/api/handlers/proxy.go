package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/proxy"
)

// ProxyHandler relays /api/shopify/* calls to the Shopify Admin API.
type ProxyHandler struct {
	relay   *proxy.Relay
	stores  proxy.StoreLookup
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewProxyHandler(relay *proxy.Relay, stores proxy.StoreLookup, m *metrics.Metrics, logger *logger.Logger) *ProxyHandler {
	return &ProxyHandler{relay: relay, stores: stores, metrics: m, logger: logger}
}

func (h *ProxyHandler) Handle(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	status := h.serve(c)
	h.metrics.ProxyRequests.WithLabelValues(c.Request.Method, strconv.Itoa(status)).Inc()
}

func (h *ProxyHandler) serve(c *gin.Context) int {
	creds, err := proxy.ResolveCredentials(c.Request.Context(), h.stores, c.Request.Header)
	switch {
	case errors.Is(err, proxy.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return http.StatusUnauthorized
	case errors.Is(err, proxy.ErrNoActiveStore):
		c.JSON(http.StatusNotFound, gin.H{"error": proxy.ErrNoActiveStore.Error()})
		return http.StatusNotFound
	case err != nil:
		h.logger.Error("Failed to resolve shop credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return http.StatusInternalServerError
	}

	resp, err := h.relay.Forward(c.Request.Context(), c.Request, c.Param("path"), creds)
	if err != nil {
		var upstream *proxy.UpstreamError
		msg := err.Error()
		if errors.As(err, &upstream) {
			msg = upstream.Message
		}
		h.logger.Warn("Shopify proxy %s %s failed: %v", c.Request.Method, c.Param("path"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return http.StatusInternalServerError
	}

	if resp.Link != "" {
		c.Header("Link", resp.Link)
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
	return resp.StatusCode
}
