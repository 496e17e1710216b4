// Package query classifies free-text inventory questions and selects the
// products an LLM needs to answer them.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"stockpulse/internal/models"
)

type Intent string

const (
	IntentBestSelling      Intent = "best_selling"
	IntentLowStock         Intent = "low_stock"
	IntentOverstocked      Intent = "overstocked"
	IntentSpecificProduct  Intent = "specific_product"
	IntentCategoryAnalysis Intent = "category_analysis"
	IntentSalesTrend       Intent = "sales_trend"
	IntentFullInventory    Intent = "full_inventory"
	IntentOrderAnalysis    Intent = "order_analysis"
	IntentGeneral          Intent = "general"
)

const (
	DefaultLimit       = 10
	FullInventoryLimit = 20
	// MaxResults bounds every selection to keep prompts small.
	MaxResults = 20
)

// Context is the classification of one question.
type Context struct {
	Query       string           `json:"query"`
	Intent      Intent           `json:"intent"`
	ProductName string           `json:"product_name,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Category    string           `json:"category,omitempty"`
	Limit       int              `json:"limit"`
	Window      models.DateRange `json:"-"`
}

// Rule maps a lower-cased query to an intent. Extract fills intent-specific
// fields and reports whether the rule matched.
type Rule struct {
	Intent  Intent
	Extract func(q string, c *Context) bool
}

var (
	aboutPattern    = regexp.MustCompile(`(?:info|information|details|tell me)\s+(?:about|on|for)\s+(?:the\s+)?["']?([^"'?!.]+)`)
	skuPattern      = regexp.MustCompile(`\bsku[\s:#]+([a-z0-9\-_]*\d[a-z0-9\-_]*)`)
	categoryPattern = regexp.MustCompile(`([a-z0-9&\-]+)\s+category\b`)
	topPattern      = regexp.MustCompile(`\btop\s+(\d+)\b`)
	countPattern    = regexp.MustCompile(`\b(\d+)\s+(?:products|items|skus)\b`)
	lastDaysPattern = regexp.MustCompile(`\b(?:last|past)\s+(\d+)\s+days?\b`)
)

// genericSubjects mark "tell me about ..." phrases that name a report rather
// than a product.
var genericSubjects = []string{"stock", "inventory", "products", "items", "sales", "orders", "categor", "revenue", "trend"}

var categoryStopWords = map[string]bool{
	"the": true, "a": true, "which": true, "what": true, "each": true, "every": true,
	"per": true, "by": true, "my": true, "this": true, "that": true, "best": true,
	"top": true, "any": true, "one": true,
}

// DefaultRules is the fixed priority order. First match wins.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentSpecificProduct, Extract: extractSpecificProduct},
		{Intent: IntentBestSelling, Extract: keywords("best selling", "best-selling", "bestseller", "best seller", "top selling", "top-selling", "most popular", "sell the most", "sells the most", "top products")},
		{Intent: IntentLowStock, Extract: keywords("low stock", "low-stock", "running low", "low inventory", "out of stock", "restock", "reorder", "almost out")},
		{Intent: IntentOverstocked, Extract: keywords("overstock", "over-stock", "too much stock", "too much inventory", "excess", "surplus")},
		{Intent: IntentSalesTrend, Extract: keywords("trend", "sales over time", "growing", "declining", "growth", "revenue")},
		{Intent: IntentCategoryAnalysis, Extract: extractCategory},
		{Intent: IntentFullInventory, Extract: keywords("all products", "all items", "full inventory", "entire inventory", "whole inventory", "complete inventory", "list everything", "everything in stock")},
		{Intent: IntentOrderAnalysis, Extract: keywords("order", "purchase", "transaction", "customer")},
	}
}

// Classifier evaluates rules in order.
type Classifier struct {
	rules []Rule
	now   func() time.Time
}

func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules(), now: time.Now}
}

// NewClassifierWith uses custom rules and clock.
func NewClassifierWith(rules []Rule, now func() time.Time) *Classifier {
	return &Classifier{rules: rules, now: now}
}

func (c *Classifier) Classify(query string) Context {
	q := strings.ToLower(strings.TrimSpace(query))
	ctx := Context{Query: query, Intent: IntentGeneral}

	for _, rule := range c.rules {
		candidate := Context{Query: query, Intent: rule.Intent}
		if rule.Extract(q, &candidate) {
			ctx = candidate
			break
		}
	}

	ctx.Limit = extractLimit(q, ctx.Intent)
	ctx.Window = extractWindow(q, c.now())
	return ctx
}

func keywords(words ...string) func(string, *Context) bool {
	return func(q string, _ *Context) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

func extractSpecificProduct(q string, c *Context) bool {
	if m := skuPattern.FindStringSubmatch(q); m != nil {
		c.SKU = m[1]
		c.ProductName = m[1]
		return true
	}
	if m := aboutPattern.FindStringSubmatch(q); m != nil {
		name := strings.TrimSpace(m[1])
		if name == "" {
			return false
		}
		for _, g := range genericSubjects {
			if strings.Contains(name, g) {
				return false
			}
		}
		c.ProductName = name
		return true
	}
	return false
}

func extractCategory(q string, c *Context) bool {
	if !strings.Contains(q, "category") && !strings.Contains(q, "categories") {
		return false
	}
	if m := categoryPattern.FindStringSubmatch(q); m != nil && !categoryStopWords[m[1]] {
		c.Category = m[1]
	}
	return true
}

func extractLimit(q string, intent Intent) int {
	for _, p := range []*regexp.Regexp{topPattern, countPattern} {
		if m := p.FindStringSubmatch(q); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	if intent == IntentFullInventory {
		return FullInventoryLimit
	}
	return DefaultLimit
}

func extractWindow(q string, now time.Time) models.DateRange {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := lastDaysPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return models.DateRange{From: startOfDay.AddDate(0, 0, -n), To: now}
		}
	}

	switch {
	case strings.Contains(q, "today"):
		return models.DateRange{From: startOfDay, To: now}
	case strings.Contains(q, "this week"):
		return models.DateRange{From: startOfDay.AddDate(0, 0, -int(now.Weekday())), To: now}
	case strings.Contains(q, "last week"):
		return models.DateRange{From: startOfDay.AddDate(0, 0, -7), To: now}
	case strings.Contains(q, "this month"):
		return models.DateRange{From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), To: now}
	case strings.Contains(q, "last month"):
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return models.DateRange{From: first.AddDate(0, -1, 0), To: first.Add(-time.Nanosecond)}
	case strings.Contains(q, "this year"):
		return models.DateRange{From: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), To: now}
	}
	return models.DateRange{}
}
