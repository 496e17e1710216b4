// Package alerts derives stock alerts and rule-based recommendations from
// forecast products.
package alerts

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stockpulse/internal/models"
)

// Thresholds tune alert generation.
type Thresholds struct {
	LowStock     int
	Overstock    int
	TrendingUp   float64
	TrendingDown float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{LowStock: 10, Overstock: 50, TrendingUp: 20, TrendingDown: -20}
}

// Generate returns alerts ordered by priority, most urgent first. Ties keep
// product order.
func Generate(products []models.ProductForecast, th Thresholds) []models.Alert {
	var out []models.Alert
	for _, pf := range products {
		out = append(out, forProduct(pf, th)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

func forProduct(pf models.ProductForecast, th Thresholds) []models.Alert {
	p := pf.Product
	f := pf.Forecast
	var out []models.Alert

	alert := func(t models.AlertType, prio models.Priority, impact *decimal.Decimal, format string, args ...interface{}) {
		out = append(out, models.Alert{
			Type:            t,
			Priority:        prio,
			Message:         fmt.Sprintf(format, args...),
			EstimatedImpact: impact,
			SKU:             p.SKU,
			ProductName:     p.Name,
		})
	}

	switch {
	case p.Stock <= 0:
		var impact *decimal.Decimal
		if f.PredictedDemand > 0 {
			impact = valueOf(f.PredictedDemand, p.Price)
		}
		alert(models.AlertTypeOutOfStock, models.PriorityHigh, impact, "%s is out of stock", p.Name)
	case p.Stock < th.LowStock:
		alert(models.AlertTypeLowStock, models.PriorityMedium, nil, "%s is running low (%d left)", p.Name, p.Stock)
	case p.Stock > th.Overstock:
		excess := p.Stock - th.Overstock
		alert(models.AlertTypeOverstock, models.PriorityLow, valueOf(excess, p.Price),
			"%s has %d units on hand, %d above the overstock threshold", p.Name, p.Stock, excess)
	}

	if shortfall := f.PredictedDemand - p.Stock; shortfall > 0 && p.Stock > 0 {
		alert(models.AlertTypeRestock, models.PriorityHigh, valueOf(shortfall, p.Price),
			"%s needs restocking: forecast demand %d exceeds stock %d", p.Name, f.PredictedDemand, p.Stock)
	}

	switch {
	case f.TrendPercent >= th.TrendingUp:
		alert(models.AlertTypeTrendingUp, models.PriorityMedium, nil, "%s sales are trending up %.0f%%", p.Name, f.TrendPercent)
	case f.TrendPercent <= th.TrendingDown:
		alert(models.AlertTypeTrendingDown, models.PriorityLow, nil, "%s sales are trending down %.0f%%", p.Name, -f.TrendPercent)
	}
	return out
}

func valueOf(units int, price decimal.Decimal) *decimal.Decimal {
	v := price.Mul(decimal.NewFromInt(int64(units))).Round(2)
	return &v
}

// Recommend turns alerts into actions. Each SKU gets at most one
// recommendation per alert type.
func Recommend(alerts []models.Alert) []models.Recommendation {
	seen := make(map[string]bool)
	var out []models.Recommendation
	for _, a := range alerts {
		key := string(a.Type) + "|" + a.SKU
		if seen[key] {
			continue
		}
		seen[key] = true

		rec := models.Recommendation{
			Type:            string(a.Type),
			Priority:        a.Priority,
			Message:         a.Message,
			EstimatedImpact: a.EstimatedImpact,
			SKU:             a.SKU,
			Source:          "rules",
		}
		switch a.Type {
		case models.AlertTypeOutOfStock:
			rec.Title = "Restock " + a.ProductName
			rec.Action = "Place a purchase order now to stop lost sales"
		case models.AlertTypeRestock:
			rec.Title = "Reorder " + a.ProductName
			rec.Action = "Order enough units to cover next month's forecast demand"
		case models.AlertTypeLowStock:
			rec.Title = "Watch " + a.ProductName
			rec.Action = "Check supplier lead time and schedule a reorder"
		case models.AlertTypeOverstock:
			rec.Title = "Reduce stock of " + a.ProductName
			rec.Action = "Run a promotion or bundle to free up capital"
		case models.AlertTypeTrendingUp:
			rec.Title = "Capitalize on " + a.ProductName
			rec.Action = "Increase stock and feature the product"
		case models.AlertTypeTrendingDown:
			rec.Title = "Review " + a.ProductName
			rec.Action = "Consider a discount before demand falls further"
		}
		out = append(out, rec)
	}
	return out
}
