// Package forecast turns a 12-slot monthly sales history into a demand forecast.
//
// Every function here returns finite numbers. Degenerate input (empty history,
// all zeros, NaN) is replaced by neutral defaults: 0 for trend and demand, 1 for
// seasonality. The Defaulted flag on the result records that this happened.
package forecast

import (
	"math"
	"time"

	"stockpulse/internal/models"
)

const (
	// HistoryMonths is the length of the monthly sales history.
	HistoryMonths = 12

	urgencyMultiplier = 1.2
	r2Weight          = 0.7
	stabilityWeight   = 0.3

	// MaxDemand caps PredictedDemand at 2^53, above which float64 no longer
	// holds every integer exactly.
	MaxDemand = 1 << 53
)

// Input describes one forecast request.
type Input struct {
	History       []float64
	CurrentStock  float64
	ReorderPoint  float64
	FuturePeriods int
}

// Engine computes forecasts against an injectable clock.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt pins the clock, for tests and offline runs.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Forecast runs the full pipeline.
func (e *Engine) Forecast(in Input) models.ForecastResult {
	history := Sanitize(in.History)
	line, lineDefaulted := Regress(history)
	index, seasonDefaulted := SeasonalIndex(history)

	month := int(e.now().Month()) - 1
	factor := index[month]

	n := float64(len(history))
	base := line.Slope*n + line.Intercept
	adjusted := base * factor

	urgency := false
	if in.ReorderPoint > 0 && in.CurrentStock/in.ReorderPoint < 1 {
		adjusted *= urgencyMultiplier
		urgency = true
	}

	demand, demandDefaulted := finiteOr(math.Round(adjusted), 0)
	if demand < 0 {
		demand = 0
	}
	if demand > MaxDemand {
		demand = MaxDemand
		demandDefaulted = true
	}

	trend, trendDefaulted := TrendPercent(history, line.Slope)

	return models.ForecastResult{
		PredictedDemand:   int(demand),
		Confidence:        Confidence(history, line.RSquared),
		TrendPercent:      trend,
		SeasonalityFactor: factor,
		SeasonalIndex:     index,
		Trendline:         line,
		Points:            TrendlinePoints(line, len(history), in.FuturePeriods),
		UrgencyApplied:    urgency,
		Defaulted:         lineDefaulted || seasonDefaulted || demandDefaulted || trendDefaulted,
	}
}

// Sanitize clamps every value to >= 0 and replaces non-finite entries with 0.
func Sanitize(history []float64) []float64 {
	out := make([]float64, len(history))
	for i, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out[i] = v
	}
	return out
}

// Regress fits sales against month index 0..n-1. The second return value is
// true when the fit was degenerate and defaults were used.
func Regress(history []float64) (models.Trendline, bool) {
	n := float64(len(history))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range history {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if len(history) < 2 || denominator == 0 {
		intercept := 0.0
		if len(history) > 0 {
			intercept = history[0]
		}
		return models.Trendline{Intercept: intercept}, true
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	mean := sumY / n
	var ssTot, ssRes float64
	for i, y := range history {
		pred := slope*float64(i) + intercept
		ssTot += (y - mean) * (y - mean)
		ssRes += (y - pred) * (y - pred)
	}

	defaulted := false
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	} else {
		defaulted = true
	}

	var d1, d2, d3 bool
	slope, d1 = finiteOr(slope, 0)
	intercept, d2 = finiteOr(intercept, 0)
	r2, d3 = finiteOr(r2, 0)

	return models.Trendline{Slope: slope, Intercept: intercept, RSquared: r2}, defaulted || d1 || d2 || d3
}

// SeasonalIndex averages the values falling on each calendar month and divides
// by the overall mean. A zero mean yields 1.0 for every month.
func SeasonalIndex(history []float64) ([12]float64, bool) {
	var index [12]float64
	for m := range index {
		index[m] = 1
	}

	mean := Mean(history)
	if mean == 0 {
		return index, true
	}

	var sums [12]float64
	var counts [12]int
	for i, v := range history {
		sums[i%12] += v
		counts[i%12]++
	}

	defaulted := false
	for m := range index {
		if counts[m] == 0 {
			continue
		}
		var d bool
		index[m], d = finiteOr((sums[m]/float64(counts[m]))/mean, 1)
		defaulted = defaulted || d
	}
	return index, defaulted
}

// Confidence blends fit quality with data stability into a 0..100 score.
func Confidence(history []float64, r2 float64) int {
	mean := Mean(history)
	normalizedVariance := 0.0
	if mean != 0 {
		normalizedVariance = clamp(Variance(history)/(mean*mean), 0, 1)
	}

	score := (r2*r2Weight + (1-normalizedVariance)*stabilityWeight) * 100
	score, _ = finiteOr(score, 0)
	return int(math.Round(clamp(score, 0, 100)))
}

// TrendPercent expresses the slope relative to the peak month, floored at 1.
func TrendPercent(history []float64, slope float64) (float64, bool) {
	peak := 1.0
	for _, v := range history {
		if v > peak {
			peak = v
		}
	}
	trend, defaulted := finiteOr(slope/peak*100, 0)
	return clamp(trend, -100, 100), defaulted
}

// TrendlinePoints evaluates the line over the history plus future periods.
func TrendlinePoints(line models.Trendline, historyLen, futurePeriods int) []models.TrendPoint {
	if futurePeriods < 0 {
		futurePeriods = 0
	}
	points := make([]models.TrendPoint, 0, historyLen+futurePeriods)
	for i := 0; i < historyLen+futurePeriods; i++ {
		v, _ := finiteOr(line.Slope*float64(i)+line.Intercept, 0)
		if v < 0 {
			v = 0
		}
		points = append(points, models.TrendPoint{Index: i, Value: v, Projected: i >= historyLen})
	}
	return points
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance is the population variance.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return ss / float64(len(values))
}

func finiteOr(v, fallback float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback, true
	}
	return v, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
