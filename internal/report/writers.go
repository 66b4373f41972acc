// Package report writes the run report to its output sinks.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hortiva/priceintel/internal/pricing"
)

// WriteJSON writes the full run report as indented JSON.
func WriteJSON(filename string, run pricing.RunReport) error {
	if err := ensureDir(filename); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(filename, payload, 0o600); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

// csvHeader is the fixed column order of the tabular export.
var csvHeader = []string{
	"product_id", "manufacturer", "title", "handle", "query", "status",
	"reference_price", "lowest", "average", "highest", "samples",
	"sampled_shops", "blocked_shops", "total_shops",
}

// WriteCSV writes one flattened row per product.
func WriteCSV(filename string, run pricing.RunReport) error {
	if err := ensureDir(filename); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range run.Rows() {
		record := []string{
			row.ProductID,
			row.Manufacturer,
			row.Title,
			row.Handle,
			row.Query,
			string(row.Status),
			formatPrice(row.ReferencePrice),
			formatPrice(row.Lowest),
			formatPrice(row.Average),
			formatPrice(row.Highest),
			formatCount(row.Samples),
			strconv.Itoa(row.SampledShops),
			strconv.Itoa(row.BlockedShops),
			strconv.Itoa(row.TotalShops),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// formatPrice renders a price with two decimals, or empty when absent.
func formatPrice(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
