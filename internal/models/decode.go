package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Raw records come from platform exports and hand-edited files. A field with
// the wrong JSON type decodes to its zero value instead of failing the whole
// document. IDs may be strings or numbers.

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = ""
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err == nil {
			*s = looseString(v)
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*s = looseString(b)
	}
	return nil
}

type looseInt int

// maxLooseInt bounds numeric fields so the float fallback converts exactly.
const maxLooseInt = 1 << 53

func (n *looseInt) UnmarshalJSON(b []byte) error {
	*n = 0
	text := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if text == "" || text == "null" {
		return nil
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		if v > -maxLooseInt && v < maxLooseInt {
			*n = looseInt(v)
		}
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) >= maxLooseInt {
		return nil
	}
	*n = looseInt(v)
	return nil
}

type looseDecimal decimal.Decimal

func (d *looseDecimal) UnmarshalJSON(b []byte) error {
	var v decimal.Decimal
	if err := v.UnmarshalJSON(b); err != nil {
		v = decimal.Zero
	}
	*d = looseDecimal(v)
	return nil
}

type looseTime time.Time

func (t *looseTime) UnmarshalJSON(b []byte) error {
	*t = looseTime{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if v, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			*t = looseTime(v)
			return nil
		}
	}
	return nil
}

// decodeList decodes a JSON array of records. Anything else yields nil.
func decodeList[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (p *RawProduct) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          looseString     `json:"id"`
		Title       looseString     `json:"title"`
		ProductType looseString     `json:"product_type"`
		Vendor      looseString     `json:"vendor"`
		Variants    json.RawMessage `json:"variants"`
	}
	*p = RawProduct{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	*p = RawProduct{
		ID:          string(raw.ID),
		Title:       string(raw.Title),
		ProductType: string(raw.ProductType),
		Vendor:      string(raw.Vendor),
		Variants:    decodeList[RawVariant](raw.Variants),
	}
	return nil
}

func (v *RawVariant) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                looseString  `json:"id"`
		SKU               looseString  `json:"sku"`
		InventoryQuantity looseInt     `json:"inventory_quantity"`
		Price             looseDecimal `json:"price"`
	}
	*v = RawVariant{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	*v = RawVariant{
		ID:                string(raw.ID),
		SKU:               string(raw.SKU),
		InventoryQuantity: int(raw.InventoryQuantity),
		Price:             decimal.Decimal(raw.Price),
	}
	return nil
}

func (o *RawOrder) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         looseString     `json:"id"`
		CreatedAt  looseTime       `json:"created_at"`
		TotalPrice looseDecimal    `json:"total_price"`
		LineItems  json.RawMessage `json:"line_items"`
	}
	*o = RawOrder{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	*o = RawOrder{
		ID:         string(raw.ID),
		CreatedAt:  time.Time(raw.CreatedAt),
		TotalPrice: decimal.Decimal(raw.TotalPrice),
		LineItems:  decodeList[RawLineItem](raw.LineItems),
	}
	return nil
}

func (li *RawLineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID looseString  `json:"product_id"`
		VariantID looseString  `json:"variant_id"`
		Quantity  looseInt     `json:"quantity"`
		Price     looseDecimal `json:"price"`
	}
	*li = RawLineItem{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	*li = RawLineItem{
		ProductID: string(raw.ProductID),
		VariantID: string(raw.VariantID),
		Quantity:  int(raw.Quantity),
		Price:     decimal.Decimal(raw.Price),
	}
	return nil
}
