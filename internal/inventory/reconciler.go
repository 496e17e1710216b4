// Package inventory folds raw platform listings into one record per SKU and
// aggregates order line items per product.
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"stockpulse/internal/models"
)

// AllCategories disables the category filter.
const AllCategories = "All"

const nameSeparator = " / "

type Options struct {
	Category string
	Window   models.DateRange
}

// Reconcile merges products sharing a SKU. Output keeps first-appearance order.
func Reconcile(products []models.RawProduct, orders []models.RawOrder, opts Options) []models.MergedProduct {
	merged := make([]models.MergedProduct, 0, len(products))
	bySKU := make(map[string]int, len(products))

	for _, p := range products {
		if !matchesCategory(p, opts.Category) {
			continue
		}

		sku := SKUOf(p)
		stock := stockOf(p)
		sales := countSales(p, orders, opts.Window)

		idx, seen := bySKU[sku]
		if !seen {
			mp := models.MergedProduct{
				ID:          p.ID,
				Name:        p.Title,
				SKU:         sku,
				Stock:       stock,
				Sales:       sales,
				Category:    p.ProductType,
				Vendor:      p.Vendor,
				Price:       priceOf(p),
				SourceNames: []string{p.Title},
				ProductIDs:  []string{p.ID},
				VariantIDs:  variantIDs(p),
			}
			bySKU[sku] = len(merged)
			merged = append(merged, mp)
			continue
		}

		mp := &merged[idx]
		mp.Stock += stock
		mp.Sales += sales
		mp.ProductIDs = appendUnique(mp.ProductIDs, p.ID)
		for _, id := range variantIDs(p) {
			mp.VariantIDs = appendUnique(mp.VariantIDs, id)
		}
		if !contains(mp.SourceNames, p.Title) {
			mp.SourceNames = append(mp.SourceNames, p.Title)
			mp.Name = strings.Join(mp.SourceNames, nameSeparator)
		}
	}

	return merged
}

// SKUOf returns the first variant's SKU, falling back to the product id.
func SKUOf(p models.RawProduct) string {
	if len(p.Variants) > 0 && strings.TrimSpace(p.Variants[0].SKU) != "" {
		return p.Variants[0].SKU
	}
	return p.ID
}

func stockOf(p models.RawProduct) int {
	total := 0
	for _, v := range p.Variants {
		total += v.InventoryQuantity
	}
	return total
}

func priceOf(p models.RawProduct) decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	return p.Variants[0].Price
}

func matchesCategory(p models.RawProduct, category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || category == AllCategories {
		return true
	}
	fold := cases.Fold()
	return fold.String(p.ProductType) == fold.String(category)
}

// countSales counts line items referencing the product by id or by one of its
// variant ids, restricted to orders inside the window.
func countSales(p models.RawProduct, orders []models.RawOrder, window models.DateRange) int {
	variants := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if v.ID != "" {
			variants[v.ID] = struct{}{}
		}
	}

	count := 0
	for _, o := range orders {
		if !window.IsZero() && !window.Contains(o.CreatedAt) {
			continue
		}
		for _, item := range o.LineItems {
			if referencesProduct(item, p.ID, variants) {
				count++
			}
		}
	}
	return count
}

func referencesProduct(item models.RawLineItem, productID string, variants map[string]struct{}) bool {
	if productID != "" && item.ProductID == productID {
		return true
	}
	if item.VariantID == "" {
		return false
	}
	_, ok := variants[item.VariantID]
	return ok
}

func variantIDs(p models.RawProduct) []string {
	ids := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.ID != "" {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	if s == "" || contains(list, s) {
		return list
	}
	return append(list, s)
}

// ParseDateRange parses ISO-8601 bounds. Unparseable or empty bounds are left
// open. A date-only upper bound covers the whole day.
func ParseDateRange(from, to string) models.DateRange {
	var r models.DateRange
	if t, ok := parseTime(from); ok {
		r.From = t
	}
	if t, ok := parseTime(to); ok {
		if len(strings.TrimSpace(to)) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = t
	}
	return r
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
