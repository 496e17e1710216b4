package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/models"
)

func fixedClock(month time.Month) func() time.Time {
	return func() time.Time { return time.Date(2024, month, 15, 12, 0, 0, 0, time.UTC) }
}

func assertFinite(t *testing.T, r models.ForecastResult) {
	t.Helper()
	for _, v := range []float64{r.TrendPercent, r.SeasonalityFactor, r.Trendline.Slope, r.Trendline.Intercept, r.Trendline.RSquared} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite value %v", v)
	}
	for _, v := range r.SeasonalIndex {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	for _, p := range r.Points {
		assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0))
	}
}

func TestForecastRisingHistoryWithUrgency(t *testing.T) {
	engine := NewEngineAt(fixedClock(time.June))
	history := []float64{10, 12, 11, 13, 14, 15, 16, 14, 15, 17, 18, 19}

	withUrgency := engine.Forecast(Input{History: history, CurrentStock: 5, ReorderPoint: 20, FuturePeriods: 3})
	withoutUrgency := engine.Forecast(Input{History: history, CurrentStock: 50, ReorderPoint: 20, FuturePeriods: 3})

	assert.Greater(t, withUrgency.Trendline.Slope, 0.0)
	assert.Greater(t, withUrgency.TrendPercent, 0.0)
	assert.Greater(t, withUrgency.PredictedDemand, 0)
	assert.True(t, withUrgency.UrgencyApplied)
	assert.False(t, withoutUrgency.UrgencyApplied)
	assert.Greater(t, withUrgency.PredictedDemand, withoutUrgency.PredictedDemand)
	assert.Len(t, withUrgency.Points, 15)
	assert.True(t, withUrgency.Points[12].Projected)
	assert.False(t, withUrgency.Defaulted)
	assertFinite(t, withUrgency)
}

func TestForecastHugeHistoryIsCapped(t *testing.T) {
	engine := NewEngineAt(fixedClock(time.June))
	history := make([]float64, 0, HistoryMonths)
	for i := 0; i < HistoryMonths-1; i++ {
		history = append(history, 1e19)
	}
	history = append(history, 2e19)

	r := engine.Forecast(Input{History: history, CurrentStock: 5, ReorderPoint: 20, FuturePeriods: 3})

	assert.GreaterOrEqual(t, r.PredictedDemand, 0)
	assert.Equal(t, MaxDemand, r.PredictedDemand)
	assert.True(t, r.Defaulted)
	assert.True(t, r.UrgencyApplied)
	assertFinite(t, r)
}

func TestForecastAllZeros(t *testing.T) {
	engine := NewEngineAt(fixedClock(time.March))

	result := engine.Forecast(Input{History: make([]float64, 12), CurrentStock: 0, ReorderPoint: 10})

	assert.Equal(t, 0, result.PredictedDemand)
	assert.Equal(t, 1.0, result.SeasonalityFactor)
	for _, v := range result.SeasonalIndex {
		assert.Equal(t, 1.0, v)
	}
	assert.Equal(t, 0.0, result.TrendPercent)
	assert.GreaterOrEqual(t, result.Confidence, 0)
	assert.LessOrEqual(t, result.Confidence, 100)
	assert.True(t, result.Defaulted)
	assertFinite(t, result)
}

func TestForecastSanitizesGarbage(t *testing.T) {
	engine := NewEngineAt(fixedClock(time.January))
	history := []float64{math.NaN(), math.Inf(1), -5, 4, 4, 4, 4, 4, 4, 4, 4, 4}

	result := engine.Forecast(Input{History: history, CurrentStock: 10, ReorderPoint: 0})

	assertFinite(t, result)
	assert.GreaterOrEqual(t, result.PredictedDemand, 0)
	assert.False(t, result.UrgencyApplied)
}

func TestForecastEmptyHistory(t *testing.T) {
	result := NewEngineAt(fixedClock(time.May)).Forecast(Input{})

	assert.Equal(t, 0, result.PredictedDemand)
	assert.Equal(t, 1.0, result.SeasonalityFactor)
	assert.True(t, result.Defaulted)
	assert.Empty(t, result.Points)
	assertFinite(t, result)
}

func TestRegressPerfectLine(t *testing.T) {
	line, defaulted := Regress([]float64{1, 3, 5, 7})

	assert.False(t, defaulted)
	assert.InDelta(t, 2.0, line.Slope, 1e-9)
	assert.InDelta(t, 1.0, line.Intercept, 1e-9)
	assert.InDelta(t, 1.0, line.RSquared, 1e-9)
}

func TestRegressSinglePoint(t *testing.T) {
	line, defaulted := Regress([]float64{7})

	assert.True(t, defaulted)
	assert.Equal(t, 0.0, line.Slope)
	assert.Equal(t, 7.0, line.Intercept)
	assert.Equal(t, 0.0, line.RSquared)
}

func TestSeasonalIndex(t *testing.T) {
	history := []float64{20, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}

	index, defaulted := SeasonalIndex(history)

	require.False(t, defaulted)
	mean := Mean(history)
	assert.InDelta(t, 20/mean, index[0], 1e-9)
	assert.InDelta(t, 10/mean, index[5], 1e-9)
}

func TestConfidenceBounds(t *testing.T) {
	assert.Equal(t, 100, Confidence([]float64{5, 5, 5}, 1))
	assert.Equal(t, 30, Confidence([]float64{0, 0, 0}, 0))
	assert.Equal(t, 0, Confidence([]float64{0, 0, 100}, 0))
}

func TestTrendPercentClamped(t *testing.T) {
	trend, _ := TrendPercent([]float64{0, 0, 0}, 50)
	assert.Equal(t, 100.0, trend)

	trend, _ = TrendPercent([]float64{0, 0, 0}, -50)
	assert.Equal(t, -100.0, trend)
}

func TestTrendlinePointsClampNegative(t *testing.T) {
	points := TrendlinePoints(models.Trendline{Slope: -5, Intercept: 10}, 2, 2)

	require.Len(t, points, 4)
	assert.Equal(t, 10.0, points[0].Value)
	assert.Equal(t, 5.0, points[1].Value)
	assert.Equal(t, 0.0, points[2].Value)
	assert.Equal(t, 0.0, points[3].Value)
}

func TestMonthlyHistory(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	mp := models.MergedProduct{ID: "1", ProductIDs: []string{"1"}, VariantIDs: []string{"v2"}}
	orders := []models.RawOrder{
		{CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), LineItems: []models.RawLineItem{{ProductID: "1", Quantity: 3}}},
		{CreatedAt: time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC), LineItems: []models.RawLineItem{{VariantID: "v2", Quantity: 2}}},
		{CreatedAt: time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), LineItems: []models.RawLineItem{{ProductID: "1", Quantity: 9}}},
		{CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), LineItems: []models.RawLineItem{{ProductID: "other", Quantity: 4}}},
	}

	history := MonthlyHistory(mp, orders, now)

	assert.Equal(t, 3.0, history[5])
	assert.Equal(t, 2.0, history[6])
	assert.Equal(t, 0.0, history[0])
}

func TestForecastProducts(t *testing.T) {
	engine := NewEngineAt(fixedClock(time.June))
	products := []models.MergedProduct{{ID: "1", SKU: "A", Stock: 2, ProductIDs: []string{"1"}}}

	out := engine.ForecastProducts(products, nil, 10, 2)

	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Product.SKU)
	assert.True(t, out[0].Forecast.UrgencyApplied)
	assert.Len(t, out[0].Forecast.Points, 14)
}
