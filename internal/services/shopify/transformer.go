package shopify

import (
	"strconv"

	"stockpulse/internal/models"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformProduct converts a Shopify product into the platform-neutral shape.
func (t *Transformer) TransformProduct(p Product) models.RawProduct {
	out := models.RawProduct{
		ID:          formatID(p.ID),
		Title:       p.Title,
		ProductType: p.ProductType,
		Vendor:      p.Vendor,
		Variants:    make([]models.RawVariant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, models.RawVariant{
			ID:                formatID(v.ID),
			SKU:               v.Sku,
			InventoryQuantity: v.InventoryQuantity,
			Price:             v.Price,
		})
	}
	return out
}

// TransformOrder converts a Shopify order. Cancelled orders yield ok=false.
func (t *Transformer) TransformOrder(o Order) (models.RawOrder, bool) {
	if o.CancelledAt != nil {
		return models.RawOrder{}, false
	}
	out := models.RawOrder{
		ID:         formatID(o.ID),
		CreatedAt:  o.CreatedAt,
		TotalPrice: o.TotalPrice,
		LineItems:  make([]models.RawLineItem, 0, len(o.LineItems)),
	}
	for _, li := range o.LineItems {
		out.LineItems = append(out.LineItems, models.RawLineItem{
			ProductID: formatOptionalID(li.ProductID),
			VariantID: formatOptionalID(li.VariantID),
			Quantity:  li.Quantity,
			Price:     li.Price,
		})
	}
	return out, true
}

func (t *Transformer) TransformProducts(products []Product) []models.RawProduct {
	out := make([]models.RawProduct, 0, len(products))
	for _, p := range products {
		out = append(out, t.TransformProduct(p))
	}
	return out
}

func (t *Transformer) TransformOrders(orders []Order) []models.RawOrder {
	out := make([]models.RawOrder, 0, len(orders))
	for _, o := range orders {
		if raw, ok := t.TransformOrder(o); ok {
			out = append(out, raw)
		}
	}
	return out
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return formatID(*id)
}
