package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockpulse/internal/models"
)

const productsJSON = `[
  {"id":"1","title":"Hoodie","product_type":"Apparel","variants":[{"id":"11","sku":"H-1","inventory_quantity":4,"price":"20"}]},
  {"id":"2","title":"Hoodie (Blue)","product_type":"Apparel","variants":[{"id":"21","sku":"H-1","inventory_quantity":3,"price":"20"}]},
  {"id":"3","title":"Mug","product_type":"Kitchen","variants":[{"id":"31","sku":"M-1","inventory_quantity":80,"price":"8"}]}
]`

const ordersJSON = `[
  {"id":"100","created_at":"2024-03-02T10:00:00Z","line_items":[{"product_id":"1","variant_id":"11","quantity":2,"price":"20"}]},
  {"id":"101","created_at":"2024-05-02T10:00:00Z","line_items":[{"product_id":"3","variant_id":"31","quantity":1,"price":"8"}]}
]`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "products.json")
	o := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(p, []byte(productsJSON), 0o600))
	require.NoError(t, os.WriteFile(o, []byte(ordersJSON), 0o600))
	return p, o
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run(append([]string{"stockctl"}, args...)))
	return out.String()
}

func TestReconcileCommand(t *testing.T) {
	p, o := writeFixtures(t)

	var merged []models.MergedProduct
	require.NoError(t, json.Unmarshal([]byte(run(t, "reconcile", "--products", p, "--orders", o)), &merged))
	require.Len(t, merged, 2)
	assert.Equal(t, "H-1", merged[0].SKU)
	assert.Equal(t, 7, merged[0].Stock)
	assert.Equal(t, 2, merged[0].Sales)

	merged = nil
	out := run(t, "reconcile", "--products", p, "--orders", o, "--category", "Kitchen", "--from", "2024-05-01", "--to", "2024-05-02")
	require.NoError(t, json.Unmarshal([]byte(out), &merged))
	require.Len(t, merged, 1)
	assert.Equal(t, 1, merged[0].Sales)
}

func TestReconcileCommandNumericIDs(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "products.json")
	o := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(p, []byte(`[
  {"id":1,"title":"A","variants":[{"id":11,"sku":"X-1","inventory_quantity":5,"price":"10"}]},
  {"id":2,"title":"B","variants":[{"id":21,"sku":"X-1","inventory_quantity":"3","price":10}]}
]`), 0o600))
	require.NoError(t, os.WriteFile(o, []byte(`[
  {"id":500,"created_at":"2024-03-02T10:00:00Z","line_items":[{"product_id":1,"variant_id":11,"quantity":2}]},
  {"id":501,"created_at":"2024-03-05T10:00:00Z","line_items":[{"product_id":2,"variant_id":21,"quantity":1}]}
]`), 0o600))

	var merged []models.MergedProduct
	require.NoError(t, json.Unmarshal([]byte(run(t, "reconcile", "--products", p, "--orders", o)), &merged))
	require.Len(t, merged, 1)
	assert.Equal(t, "X-1", merged[0].SKU)
	assert.Equal(t, 8, merged[0].Stock)
	assert.Equal(t, 2, merged[0].Sales)
	assert.ElementsMatch(t, []string{"A", "B"}, merged[0].SourceNames)
	assert.ElementsMatch(t, []string{"1", "2"}, merged[0].ProductIDs)
}

func TestForecastCommand(t *testing.T) {
	var result models.ForecastResult
	out := run(t, "forecast", "--history", "10,12,14,16,18,20,22,24,26,28,30,32", "--stock", "5", "--reorder-point", "10")
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.UrgencyApplied)
	assert.Greater(t, result.PredictedDemand, 0)
	assert.Len(t, result.Points, 15)

	var buf bytes.Buffer
	assert.Error(t, newApp(&buf).Run([]string{"stockctl", "forecast", "--history", "1,x"}))
}

func TestClassifyCommand(t *testing.T) {
	p, o := writeFixtures(t)

	out := run(t, "classify", "--products", p, "--orders", o, "which", "products", "are", "running", "low?")
	assert.Contains(t, out, "intent: low_stock")
	assert.Contains(t, out, "Hoodie")
	assert.NotContains(t, out, "Mug")
}

func TestExportCommand(t *testing.T) {
	p, o := writeFixtures(t)
	target := filepath.Join(t.TempDir(), "report.xlsx")

	out := run(t, "export", "--products", p, "--orders", o, "--out", target)
	assert.Contains(t, out, "wrote 2 products")

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
