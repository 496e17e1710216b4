package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"stockpulse/internal/inventory"
	"stockpulse/internal/models"
)

const (
	lowStockThreshold  = 10
	overstockThreshold = 50
	maxOrderRefs       = 5
)

// Entry is a product with its order aggregates attached.
type Entry struct {
	Product models.MergedProduct   `json:"product"`
	Sales   inventory.ProductSales `json:"sales"`
}

// Select filters, sorts and truncates products for the classified question.
// Orders outside ctx.Window are ignored when aggregating.
func Select(ctx Context, products []models.MergedProduct, orders []models.RawOrder) []Entry {
	if !ctx.Window.IsZero() {
		orders = filterOrders(orders, ctx.Window)
	}
	index := inventory.AggregateSales(orders)

	entries := make([]Entry, 0, len(products))
	for _, p := range products {
		entries = append(entries, Entry{Product: p, Sales: index.For(p)})
	}

	fold := cases.Fold()
	switch ctx.Intent {
	case IntentLowStock:
		entries = keep(entries, func(e Entry) bool { return e.Product.Stock < lowStockThreshold })
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Product.Stock < entries[j].Product.Stock })
	case IntentOverstocked:
		entries = keep(entries, func(e Entry) bool { return e.Product.Stock > overstockThreshold })
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Product.Stock > entries[j].Product.Stock })
	case IntentBestSelling:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Sales.Units > entries[j].Sales.Units })
	case IntentSalesTrend:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Sales.Revenue.GreaterThan(entries[j].Sales.Revenue) })
	case IntentCategoryAnalysis:
		if ctx.Category != "" {
			needle := fold.String(ctx.Category)
			entries = keep(entries, func(e Entry) bool { return strings.Contains(fold.String(e.Product.Category), needle) })
		}
	case IntentSpecificProduct:
		needle := fold.String(ctx.ProductName)
		entries = keep(entries, func(e Entry) bool {
			return strings.Contains(fold.String(e.Product.Name), needle) || strings.Contains(fold.String(e.Product.SKU), needle)
		})
	}

	return truncate(entries, ctx.Limit)
}

func keep(entries []Entry, pred func(Entry) bool) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func truncate(entries []Entry, limit int) []Entry {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func filterOrders(orders []models.RawOrder, window models.DateRange) []models.RawOrder {
	out := make([]models.RawOrder, 0, len(orders))
	for _, o := range orders {
		if window.Contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out
}

// StockStatus labels a stock level.
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return "Out of Stock"
	case stock < lowStockThreshold:
		return "Low Stock"
	case stock > overstockThreshold:
		return "Overstocked"
	default:
		return "In Stock"
	}
}

var framing = map[Intent]string{
	IntentBestSelling:      "The merchant is asking about their best-selling products. Products are ordered by units sold.",
	IntentLowStock:         "The merchant is asking about products running low on stock (fewer than 10 units). Products are ordered from lowest stock.",
	IntentOverstocked:      "The merchant is asking about overstocked products (more than 50 units). Products are ordered from highest stock.",
	IntentSpecificProduct:  "The merchant is asking about a specific product. Matching products are listed below.",
	IntentCategoryAnalysis: "The merchant is asking about a product category. Products in the category are listed below.",
	IntentSalesTrend:       "The merchant is asking about sales trends. Products are ordered by revenue.",
	IntentFullInventory:    "The merchant is asking about their full inventory. A summary of products is listed below.",
	IntentOrderAnalysis:    "The merchant is asking about orders. Products with their order references are listed below.",
	IntentGeneral:          "The merchant has a general question about their store. Relevant inventory data is listed below.",
}

// BuildContext renders the system context block handed to the LLM.
func BuildContext(ctx Context, entries []Entry, totalProducts int) string {
	var b strings.Builder

	b.WriteString(framing[ctx.Intent])
	if ctx.Category != "" {
		fmt.Fprintf(&b, " Category: %q.", ctx.Category)
	}
	if ctx.ProductName != "" && ctx.Intent == IntentSpecificProduct {
		fmt.Fprintf(&b, " Search term: %q.", ctx.ProductName)
	}
	fmt.Fprintf(&b, "\nShowing %d of %d products.\n", len(entries), totalProducts)

	if len(entries) == 0 {
		b.WriteString("\nNo products matched this question.\n")
		return b.String()
	}

	for _, e := range entries {
		p := e.Product
		fmt.Fprintf(&b, "\n- %s\n", p.Name)
		fmt.Fprintf(&b, "  SKU: %s\n", p.SKU)
		fmt.Fprintf(&b, "  Price: $%s\n", p.Price.StringFixed(2))
		fmt.Fprintf(&b, "  Stock: %d\n", p.Stock)
		fmt.Fprintf(&b, "  Category: %s\n", orDash(p.Category))
		fmt.Fprintf(&b, "  Vendor: %s\n", orDash(p.Vendor))
		fmt.Fprintf(&b, "  Sales: %d units\n", e.Sales.Units)
		fmt.Fprintf(&b, "  Revenue: $%s\n", e.Sales.Revenue.StringFixed(2))
		fmt.Fprintf(&b, "  Status: %s\n", StockStatus(p.Stock))
		if len(e.Sales.OrderIDs) > 0 {
			refs := e.Sales.OrderIDs
			if len(refs) > maxOrderRefs {
				refs = refs[:maxOrderRefs]
			}
			fmt.Fprintf(&b, "  Orders: %s\n", strings.Join(refs, ", "))
		}
		if !e.Sales.LastOrderDate.IsZero() {
			fmt.Fprintf(&b, "  Last order: %s\n", e.Sales.LastOrderDate.Format("2006-01-02"))
		}
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
