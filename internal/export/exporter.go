package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
)

const (
	InventorySheet = "Inventory"
	AlertsSheet    = "Alerts"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var inventoryHeaders = []string{
	"SKU", "Name", "Category", "Vendor", "Stock", "Sales", "Price",
	"Predicted Demand", "Confidence", "Trend %", "Seasonality",
}

var alertHeaders = []string{"Priority", "Type", "SKU", "Product", "Message", "Estimated Impact"}

type Exporter struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteXLSX writes a workbook with one inventory row per forecast and one
// alert row per alert.
func (e *Exporter) WriteXLSX(w io.Writer, forecasts []models.ProductForecast, alerts []models.Alert) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InventorySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(AlertsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeaders(f, InventorySheet, inventoryHeaders, headerStyle); err != nil {
		return err
	}
	for i, pf := range forecasts {
		p := pf.Product
		price, _ := p.Price.Float64()
		row := []interface{}{
			p.SKU, p.Name, p.Category, p.Vendor, p.Stock, p.Sales, price,
			pf.Forecast.PredictedDemand, pf.Forecast.Confidence,
			pf.Forecast.TrendPercent, pf.Forecast.SeasonalityFactor,
		}
		if err := writeRow(f, InventorySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeHeaders(f, AlertsSheet, alertHeaders, headerStyle); err != nil {
		return err
	}
	for i, a := range alerts {
		var impact interface{}
		if a.EstimatedImpact != nil {
			impact, _ = a.EstimatedImpact.Float64()
		}
		row := []interface{}{string(a.Priority), string(a.Type), a.SKU, a.ProductName, a.Message, impact}
		if err := writeRow(f, AlertsSheet, i+2, row); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("Exported %d products and %d alerts", len(forecasts), len(alerts))
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 16)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
