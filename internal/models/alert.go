package models

import "github.com/shopspring/decimal"

type AlertType string

const (
	AlertTypeOutOfStock   AlertType = "OUT_OF_STOCK"
	AlertTypeLowStock     AlertType = "LOW_STOCK"
	AlertTypeOverstock    AlertType = "OVERSTOCK"
	AlertTypeRestock      AlertType = "RESTOCK_NEEDED"
	AlertTypeTrendingUp   AlertType = "TRENDING_UP"
	AlertTypeTrendingDown AlertType = "TRENDING_DOWN"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank orders priorities for sorting; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Alert struct {
	Type            AlertType        `json:"type"`
	Priority        Priority         `json:"priority"`
	Message         string           `json:"message"`
	EstimatedImpact *decimal.Decimal `json:"estimated_impact,omitempty"`
	SKU             string           `json:"sku"`
	ProductName     string           `json:"product_name"`
}

type Recommendation struct {
	Type            string           `json:"type"`
	Priority        Priority         `json:"priority"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	Action          string           `json:"action,omitempty"`
	EstimatedImpact *decimal.Decimal `json:"estimated_impact,omitempty"`
	SKU             string           `json:"sku,omitempty"`
	Source          string           `json:"source"`
}
