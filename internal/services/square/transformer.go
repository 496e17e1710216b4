package square

import (
	"stockpulse/internal/models"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// VariationIDs lists every variation id in the catalog.
func VariationIDs(objects []CatalogObject) []string {
	var ids []string
	for _, o := range objects {
		if o.ItemData == nil {
			continue
		}
		for _, v := range o.ItemData.Variations {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// TransformCatalog maps ITEM objects to products, resolving category names
// from CATEGORY objects in the same listing. Variation stock comes from counts.
func (t *Transformer) TransformCatalog(objects []CatalogObject, counts map[string]int) []models.RawProduct {
	categories := make(map[string]string)
	for _, o := range objects {
		if o.Type == "CATEGORY" && o.CategoryData != nil {
			categories[o.ID] = o.CategoryData.Name
		}
	}

	var products []models.RawProduct
	for _, o := range objects {
		if o.Type != "ITEM" || o.ItemData == nil {
			continue
		}
		p := models.RawProduct{
			ID:          o.ID,
			Title:       o.ItemData.Name,
			ProductType: categories[o.ItemData.CategoryID],
		}
		for _, v := range o.ItemData.Variations {
			rv := models.RawVariant{ID: v.ID, InventoryQuantity: counts[v.ID]}
			if v.ItemVariationData != nil {
				rv.SKU = v.ItemVariationData.SKU
				rv.Price = v.ItemVariationData.PriceMoney.Decimal()
			}
			p.Variants = append(p.Variants, rv)
		}
		products = append(products, p)
	}
	return products
}

// TransformOrders maps orders, resolving each line item's variation to its
// parent item id.
func (t *Transformer) TransformOrders(orders []Order, objects []CatalogObject) []models.RawOrder {
	parent := make(map[string]string)
	for _, o := range objects {
		if o.ItemData == nil {
			continue
		}
		for _, v := range o.ItemData.Variations {
			parent[v.ID] = o.ID
		}
	}

	out := make([]models.RawOrder, 0, len(orders))
	for _, o := range orders {
		raw := models.RawOrder{
			ID:         o.ID,
			CreatedAt:  o.CreatedAt,
			TotalPrice: o.TotalMoney.Decimal(),
		}
		for _, li := range o.LineItems {
			raw.LineItems = append(raw.LineItems, models.RawLineItem{
				ProductID: parent[li.CatalogObjectID],
				VariantID: li.CatalogObjectID,
				Quantity:  li.Units(),
				Price:     li.BasePriceMoney.Decimal(),
			})
		}
		out = append(out, raw)
	}
	return out
}
