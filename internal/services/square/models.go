package square

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Decimal converts minor units to a major-unit amount.
func (m *Money) Decimal() decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return decimal.New(m.Amount, -2)
}

type CatalogObject struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	ItemData *ItemData `json:"item_data,omitempty"`
	// set on ITEM_VARIATION objects
	ItemVariationData *VariationData `json:"item_variation_data,omitempty"`
	CategoryData      *CategoryData  `json:"category_data,omitempty"`
}

type CategoryData struct {
	Name string `json:"name"`
}

type ItemData struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Variations  []CatalogObject `json:"variations"`
}

type VariationData struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	PriceMoney *Money `json:"price_money"`
}

type listCatalogResponse struct {
	Objects []CatalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

type InventoryCount struct {
	CatalogObjectID string `json:"catalog_object_id"`
	State           string `json:"state"`
	LocationID      string `json:"location_id"`
	Quantity        string `json:"quantity"`
}

func (ic InventoryCount) Units() int {
	return units(ic.Quantity)
}

// units parses Square's decimal quantity strings, truncating fractions.
func units(quantity string) int {
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return 0
	}
	return int(q.IntPart())
}

type batchCountsRequest struct {
	CatalogObjectIDs []string `json:"catalog_object_ids"`
	States           []string `json:"states,omitempty"`
	Cursor           string   `json:"cursor,omitempty"`
}

type batchCountsResponse struct {
	Counts []InventoryCount `json:"counts"`
	Cursor string           `json:"cursor"`
}

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listLocationsResponse struct {
	Locations []Location `json:"locations"`
}

type Order struct {
	ID         string          `json:"id"`
	LocationID string          `json:"location_id"`
	CreatedAt  time.Time       `json:"created_at"`
	State      string          `json:"state"`
	TotalMoney *Money          `json:"total_money"`
	LineItems  []OrderLineItem `json:"line_items"`
}

type OrderLineItem struct {
	Name            string `json:"name"`
	CatalogObjectID string `json:"catalog_object_id"`
	Quantity        string `json:"quantity"`
	BasePriceMoney  *Money `json:"base_price_money"`
}

func (li OrderLineItem) Units() int {
	return units(li.Quantity)
}

type searchOrdersRequest struct {
	LocationIDs []string `json:"location_ids"`
	Cursor      string   `json:"cursor,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Query       struct {
		Filter struct {
			StateFilter struct {
				States []string `json:"states"`
			} `json:"state_filter"`
		} `json:"filter"`
	} `json:"query"`
}

type searchOrdersResponse struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor"`
}
