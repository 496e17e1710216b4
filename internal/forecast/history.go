package forecast

import (
	"time"

	"stockpulse/internal/models"
)

// MonthlyHistory buckets units sold over the trailing twelve months by calendar
// month: slot 0 is January, slot 11 is December. Only line items referencing one
// of the merged product's product or variant ids are counted.
func MonthlyHistory(mp models.MergedProduct, orders []models.RawOrder, now time.Time) [HistoryMonths]float64 {
	var history [HistoryMonths]float64

	products := toSet(mp.ProductIDs)
	if len(products) == 0 && mp.ID != "" {
		products[mp.ID] = struct{}{}
	}
	variants := toSet(mp.VariantIDs)

	// first day of the month eleven months back
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(HistoryMonths - 1), 0)

	for _, o := range orders {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(now) {
			continue
		}
		slot := int(o.CreatedAt.In(now.Location()).Month()) - 1
		for _, item := range o.LineItems {
			_, byProduct := products[item.ProductID]
			_, byVariant := variants[item.VariantID]
			if (item.ProductID != "" && byProduct) || (item.VariantID != "" && byVariant) {
				history[slot] += float64(item.Quantity)
			}
		}
	}
	return history
}

// ForecastProducts builds a history and forecast for each merged product.
func (e *Engine) ForecastProducts(products []models.MergedProduct, orders []models.RawOrder, reorderPoint float64, futurePeriods int) []models.ProductForecast {
	now := e.now()
	out := make([]models.ProductForecast, 0, len(products))
	for _, mp := range products {
		history := MonthlyHistory(mp, orders, now)
		out = append(out, models.ProductForecast{
			Product: mp,
			History: history,
			Forecast: e.Forecast(Input{
				History:       history[:],
				CurrentStock:  float64(mp.Stock),
				ReorderPoint:  reorderPoint,
				FuturePeriods: futurePeriods,
			}),
		})
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
