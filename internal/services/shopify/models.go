package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a Shopify product
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variant represents a product variant
type Variant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Sku               string          `json:"sku"`
	Position          int             `json:"position"`
	InventoryItemID   int64           `json:"inventory_item_id"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

// Order represents a Shopify order
type Order struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	CreatedAt       time.Time       `json:"created_at"`
	CancelledAt     *time.Time      `json:"cancelled_at"`
	FinancialStatus string          `json:"financial_status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Currency        string          `json:"currency"`
	LineItems       []LineItem      `json:"line_items"`
}

// LineItem is one product line of an order. Custom items carry no product id.
type LineItem struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id"`
	VariantID *int64          `json:"variant_id"`
	Title     string          `json:"title"`
	Sku       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ProductsResponse represents the response from products API
type ProductsResponse struct {
	Products []Product `json:"products"`
}

// OrdersResponse represents the response from orders API
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}
