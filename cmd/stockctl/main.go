// stockctl runs the inventory analytics offline against JSON exports.
//
// Usage:
//
//	stockctl reconcile --products p.json --orders o.json [--category C] [--from D] [--to D]
//	stockctl forecast --history 1,2,...,12 --stock N --reorder-point N
//	stockctl classify --products p.json --orders o.json "which items are low?"
//	stockctl export --products p.json --orders o.json --out report.xlsx
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"stockpulse/internal/alerts"
	"stockpulse/internal/export"
	"stockpulse/internal/forecast"
	"stockpulse/internal/inventory"
	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	"stockpulse/internal/query"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "stockpulse",
		Usage:   "Inventory reconciliation, forecasting and query classification",
		Version: version,
		Writer:  out,
		Commands: []*cli.Command{
			reconcileCommand(),
			forecastCommand(),
			classifyCommand(),
			exportCommand(),
		},
	}
}

func productsFlag() cli.Flag {
	return &cli.StringFlag{Name: "products", Aliases: []string{"p"}, Usage: "Path to products JSON array", Required: true}
}

func ordersFlag() cli.Flag {
	return &cli.StringFlag{Name: "orders", Aliases: []string{"o"}, Usage: "Path to orders JSON array"}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Merge products by SKU and count sales",
		Flags: []cli.Flag{
			productsFlag(),
			ordersFlag(),
			&cli.StringFlag{Name: "category", Usage: "Only products of this type (All disables the filter)"},
			&cli.StringFlag{Name: "from", Usage: "Count orders from this date (YYYY-MM-DD or RFC3339)"},
			&cli.StringFlag{Name: "to", Usage: "Count orders up to this date, inclusive"},
		},
		Action: func(c *cli.Context) error {
			products, orders, err := loadData(c)
			if err != nil {
				return err
			}
			merged := inventory.Reconcile(products, orders, inventory.Options{
				Category: c.String("category"),
				Window:   inventory.ParseDateRange(c.String("from"), c.String("to")),
			})
			return writeJSON(c.App.Writer, merged)
		},
	}
}

func forecastCommand() *cli.Command {
	return &cli.Command{
		Name:  "forecast",
		Usage: "Forecast demand from a monthly sales history",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history", Usage: "Comma separated monthly units, January first", Required: true},
			&cli.Float64Flag{Name: "stock", Usage: "Current stock"},
			&cli.Float64Flag{Name: "reorder-point", Usage: "Reorder point; stock below it raises the forecast"},
			&cli.IntFlag{Name: "future-periods", Value: 3, Usage: "Trendline points to project"},
		},
		Action: func(c *cli.Context) error {
			history, err := parseHistory(c.String("history"))
			if err != nil {
				return err
			}
			result := forecast.NewEngine().Forecast(forecast.Input{
				History:       history,
				CurrentStock:  c.Float64("stock"),
				ReorderPoint:  c.Float64("reorder-point"),
				FuturePeriods: c.Int("future-periods"),
			})
			return writeJSON(c.App.Writer, result)
		},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify a question and print the context an LLM would receive",
		ArgsUsage: "QUESTION",
		Flags:     []cli.Flag{productsFlag(), ordersFlag()},
		Action: func(c *cli.Context) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("a question is required")
			}
			products, orders, err := loadData(c)
			if err != nil {
				return err
			}
			qc := query.NewClassifier().Classify(question)
			merged := inventory.Reconcile(products, orders, inventory.Options{})
			entries := query.Select(qc, merged, orders)

			fmt.Fprintf(c.App.Writer, "intent: %s (limit %d)\n\n", qc.Intent, qc.Limit)
			fmt.Fprintln(c.App.Writer, query.BuildContext(qc, entries, len(merged)))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write an XLSX report of forecasts and alerts",
		Flags: []cli.Flag{
			productsFlag(),
			ordersFlag(),
			&cli.StringFlag{Name: "out", Value: "inventory.xlsx", Usage: "Output file"},
			&cli.Float64Flag{Name: "reorder-point", Usage: "Reorder point applied to every product"},
		},
		Action: func(c *cli.Context) error {
			products, orders, err := loadData(c)
			if err != nil {
				return err
			}
			merged := inventory.Reconcile(products, orders, inventory.Options{})
			forecasts := forecast.NewEngine().ForecastProducts(merged, orders, c.Float64("reorder-point"), 3)

			f, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", c.String("out"), err)
			}
			defer f.Close()

			if err := export.New(logger.Nop()).WriteXLSX(f, forecasts, alerts.Generate(forecasts, alerts.DefaultThresholds())); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %d products to %s\n", len(forecasts), c.String("out"))
			return nil
		},
	}
}

func loadData(c *cli.Context) ([]models.RawProduct, []models.RawOrder, error) {
	var products []models.RawProduct
	if err := readJSON(c.String("products"), &products); err != nil {
		return nil, nil, err
	}
	var orders []models.RawOrder
	if path := c.String("orders"); path != "" {
		if err := readJSON(path, &orders); err != nil {
			return nil, nil, err
		}
	}
	return products, orders, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseHistory(raw string) ([]float64, error) {
	var history []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid history value %q", part)
		}
		history = append(history, v)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("history is empty")
	}
	return history, nil
}
