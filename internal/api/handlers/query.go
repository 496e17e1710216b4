package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/alerts"
	"stockpulse/internal/api/middleware"
	"stockpulse/internal/forecast"
	"stockpulse/internal/inventory"
	"stockpulse/internal/llm"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/query"
)

// QueryHandler answers free-text inventory questions.
type QueryHandler struct {
	snapshots  SnapshotSource
	classifier *query.Classifier
	engine     *forecast.Engine
	advisor    Advisor
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewQueryHandler(snapshots SnapshotSource, classifier *query.Classifier, engine *forecast.Engine, advisor Advisor, m *metrics.Metrics, logger *logger.Logger) *QueryHandler {
	return &QueryHandler{
		snapshots:  snapshots,
		classifier: classifier,
		engine:     engine,
		advisor:    advisor,
		metrics:    m,
		logger:     logger,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Query     query.Context `json:"classification"`
	Products  []query.Entry `json:"products"`
	Context   string        `json:"context"`
	Answer    string        `json:"answer,omitempty"`
	AIEnabled bool          `json:"ai_enabled"`
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	userID := middleware.UserID(c)
	snap, err := h.snapshots.Snapshot(c.Request.Context(), userID)
	if err != nil {
		snapshotError(c, err)
		return
	}

	qc := h.classifier.Classify(req.Query)
	h.metrics.QueryIntents.WithLabelValues(string(qc.Intent)).Inc()

	products := inventory.Reconcile(snap.Products, snap.Orders, inventory.Options{})
	entries := query.Select(qc, products, snap.Orders)
	resp := queryResponse{
		Query:    qc,
		Products: entries,
		Context:  query.BuildContext(qc, entries, len(products)),
	}

	answer, err := h.advisor.Answer(c.Request.Context(), userID, req.Query, resp.Context)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
	case err != nil:
		h.logger.Error("LLM answer failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	default:
		resp.Answer = answer
		resp.AIEnabled = true
	}
	c.JSON(http.StatusOK, resp)
}

// Recommend merges rule-based recommendations with LLM ones when a key is
// stored. LLM failures degrade to rules only.
func (h *QueryHandler) Recommend(c *gin.Context) {
	params, err := parseForecastParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	snap, err := h.snapshots.Snapshot(c.Request.Context(), userID)
	if err != nil {
		snapshotError(c, err)
		return
	}

	products := inventory.Reconcile(snap.Products, snap.Orders, inventory.Options{})
	forecasts := h.engine.ForecastProducts(products, snap.Orders, params.ReorderPoint, params.FuturePeriods)
	recs := alerts.Recommend(alerts.Generate(forecasts, alerts.DefaultThresholds()))

	qc := query.Context{Intent: query.IntentFullInventory, Limit: query.MaxResults}
	contextBlock := query.BuildContext(qc, query.Select(qc, products, snap.Orders), len(products))

	aiEnabled := false
	var aiError string
	ai, err := h.advisor.Recommend(c.Request.Context(), userID, contextBlock)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
	case err != nil:
		h.logger.Warn("LLM recommendations failed for %s: %v", userID, err)
		aiError = err.Error()
	default:
		aiEnabled = true
		recs = append(recs, ai...)
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}

	body := gin.H{"data": recs, "total": len(recs), "ai_enabled": aiEnabled}
	if aiError != "" {
		body["ai_error"] = aiError
	}
	c.JSON(http.StatusOK, body)
}
