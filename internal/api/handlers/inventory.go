package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/alerts"
	"stockpulse/internal/api/middleware"
	"stockpulse/internal/export"
	"stockpulse/internal/forecast"
	"stockpulse/internal/inventory"
	"stockpulse/internal/logger"
	"stockpulse/internal/models"
)

const defaultFuturePeriods = 3

type InventoryHandler struct {
	snapshots  SnapshotSource
	engine     *forecast.Engine
	exporter   *export.Exporter
	thresholds alerts.Thresholds
	logger     *logger.Logger
}

func NewInventoryHandler(snapshots SnapshotSource, engine *forecast.Engine, exporter *export.Exporter, logger *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		snapshots:  snapshots,
		engine:     engine,
		exporter:   exporter,
		thresholds: alerts.DefaultThresholds(),
		logger:     logger,
	}
}

type forecastParams struct {
	ReorderPoint  float64
	FuturePeriods int
}

func parseForecastParams(c *gin.Context) (forecastParams, error) {
	p := forecastParams{FuturePeriods: defaultFuturePeriods}
	if v := c.Query("reorder_point"); v != "" {
		rp, err := strconv.ParseFloat(v, 64)
		if err != nil || rp < 0 {
			return p, fmt.Errorf("invalid reorder_point %q", v)
		}
		p.ReorderPoint = rp
	}
	if v := c.Query("future_periods"); v != "" {
		fp, err := strconv.Atoi(v)
		if err != nil || fp < 0 || fp > 24 {
			return p, fmt.Errorf("invalid future_periods %q", v)
		}
		p.FuturePeriods = fp
	}
	return p, nil
}

// merged loads the snapshot and reconciles it with the request's filters.
func (h *InventoryHandler) merged(c *gin.Context) (*models.Snapshot, []models.MergedProduct, bool) {
	snap, err := h.snapshots.Snapshot(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		snapshotError(c, err)
		return nil, nil, false
	}
	products := inventory.Reconcile(snap.Products, snap.Orders, inventory.Options{
		Category: c.Query("category"),
		Window:   inventory.ParseDateRange(c.Query("from"), c.Query("to")),
	})
	return snap, products, true
}

func (h *InventoryHandler) forecasts(c *gin.Context) ([]models.ProductForecast, bool) {
	params, err := parseForecastParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	snap, products, ok := h.merged(c)
	if !ok {
		return nil, false
	}
	return h.engine.ForecastProducts(products, snap.Orders, params.ReorderPoint, params.FuturePeriods), true
}

func (h *InventoryHandler) List(c *gin.Context) {
	snap, products, ok := h.merged(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       products,
		"total":      len(products),
		"platform":   snap.Platform,
		"fetched_at": snap.FetchedAt,
	})
}

func (h *InventoryHandler) Forecasts(c *gin.Context) {
	forecasts, ok := h.forecasts(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forecasts, "total": len(forecasts)})
}

func (h *InventoryHandler) Alerts(c *gin.Context) {
	forecasts, ok := h.forecasts(c)
	if !ok {
		return
	}
	list := alerts.Generate(forecasts, h.thresholds)
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

func (h *InventoryHandler) Export(c *gin.Context) {
	forecasts, ok := h.forecasts(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.WriteXLSX(&buf, forecasts, alerts.Generate(forecasts, h.thresholds)); err != nil {
		h.logger.Error("Failed to export inventory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export inventory"})
		return
	}
	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
