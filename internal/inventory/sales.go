package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/models"
)

// ProductSales accumulates order line items for a product.
type ProductSales struct {
	Units         int             `json:"units"`
	Revenue       decimal.Decimal `json:"revenue"`
	OrderIDs      []string        `json:"order_ids"`
	LastOrderDate time.Time       `json:"last_order_date"`
}

// SalesIndex maps a raw product id to its aggregated sales.
type SalesIndex map[string]*ProductSales

// AggregateSales scans every order line item once, keyed by product id.
func AggregateSales(orders []models.RawOrder) SalesIndex {
	index := make(SalesIndex)
	for _, o := range orders {
		for _, item := range o.LineItems {
			if item.ProductID == "" {
				continue
			}
			ps, ok := index[item.ProductID]
			if !ok {
				ps = &ProductSales{Revenue: decimal.Zero}
				index[item.ProductID] = ps
			}
			ps.Units += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			if o.ID != "" && !contains(ps.OrderIDs, o.ID) {
				ps.OrderIDs = append(ps.OrderIDs, o.ID)
			}
			if o.CreatedAt.After(ps.LastOrderDate) {
				ps.LastOrderDate = o.CreatedAt
			}
		}
	}
	return index
}

// For combines the sales of every raw product folded into mp.
func (idx SalesIndex) For(mp models.MergedProduct) ProductSales {
	out := ProductSales{Revenue: decimal.Zero}
	ids := mp.ProductIDs
	if len(ids) == 0 {
		ids = []string{mp.ID}
	}
	for _, id := range ids {
		ps, ok := idx[id]
		if !ok {
			continue
		}
		out.Units += ps.Units
		out.Revenue = out.Revenue.Add(ps.Revenue)
		for _, oid := range ps.OrderIDs {
			out.OrderIDs = appendUnique(out.OrderIDs, oid)
		}
		if ps.LastOrderDate.After(out.LastOrderDate) {
			out.LastOrderDate = ps.LastOrderDate
		}
	}
	return out
}
