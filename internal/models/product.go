package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawProduct is one product listing as returned by the upstream commerce platform.
type RawProduct struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	ProductType string       `json:"product_type"`
	Vendor      string       `json:"vendor"`
	Variants    []RawVariant `json:"variants"`
}

// RawVariant is a purchasable variant of a RawProduct.
type RawVariant struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	InventoryQuantity int             `json:"inventory_quantity"`
	Price             decimal.Decimal `json:"price"`
}

// RawOrder is one completed transaction.
type RawOrder struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	TotalPrice decimal.Decimal `json:"total_price"`
	LineItems  []RawLineItem   `json:"line_items"`
}

type RawLineItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// MergedProduct is the SKU-keyed view of one or more RawProducts.
type MergedProduct struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SourceNames []string        `json:"source_names"`
	SKU         string          `json:"sku"`
	Stock       int             `json:"stock"`
	Sales       int             `json:"sales"`
	Category    string          `json:"category"`
	Vendor      string          `json:"vendor"`
	Price       decimal.Decimal `json:"price"`
	// ProductIDs and VariantIDs of every raw listing folded into this SKU.
	ProductIDs []string `json:"product_ids"`
	VariantIDs []string `json:"variant_ids"`
}

// DateRange bounds order timestamps. Zero values mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t lies in [From, To], treating zero bounds as open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Snapshot is the products+orders pair fetched from a user's active store.
type Snapshot struct {
	Products  []RawProduct `json:"products"`
	Orders    []RawOrder   `json:"orders"`
	Platform  Platform     `json:"platform"`
	FetchedAt time.Time    `json:"fetched_at"`
}
