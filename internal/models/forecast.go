package models

// Trendline holds the least-squares fit of monthly sales against month index.
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

type TrendPoint struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	Projected bool    `json:"projected"`
}

type ForecastResult struct {
	PredictedDemand   int          `json:"predicted_demand"`
	Confidence        int          `json:"confidence"`
	TrendPercent      float64      `json:"trend_percent"`
	SeasonalityFactor float64      `json:"seasonality_factor"`
	SeasonalIndex     [12]float64  `json:"seasonal_index"`
	Trendline         Trendline    `json:"trendline"`
	Points            []TrendPoint `json:"points"`
	UrgencyApplied    bool         `json:"urgency_applied"`
	// Defaulted is set when any output fell back to its neutral default.
	Defaulted bool `json:"defaulted"`
}

// ProductForecast pairs a merged product with its forecast.
type ProductForecast struct {
	Product  MergedProduct  `json:"product"`
	History  [12]float64    `json:"history"`
	Forecast ForecastResult `json:"forecast"`
}
