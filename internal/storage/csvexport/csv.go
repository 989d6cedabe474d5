// Package csvexport renders stored products as CSV for spreadsheet-bound
// consumers.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/FranksOps/harrier/internal/storage"
)

// header defines the CSV column order.
var header = []string{
	"platform",
	"product_url",
	"title",
	"image_url",
	"price",
	"currency",
	"raw_price",
	"rating",
	"review_count",
	"in_stock",
	"brand",
	"sku",
	"description",
	"first_seen_at",
	"last_seen_at",
}

// Write renders products to w, header first. Optional fields render empty
// when absent.
func Write(w io.Writer, products []*storage.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		record := []string{
			p.Platform,
			p.ProductURL,
			p.Title,
			p.ImageURL,
			formatFloat(p.Price),
			p.Currency,
			p.RawPrice,
			formatFloat(p.Rating),
			formatInt(p.ReviewCount),
			formatBool(p.InStock),
			p.Brand,
			p.SKU,
			p.Description,
			p.FirstSeenAt.Format(time.RFC3339Nano),
			p.LastSeenAt.Format(time.RFC3339Nano),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record %s: %w", p.ProductURL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes products to filePath, truncating any previous export.
func WriteFile(filePath string, products []*storage.Product) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create export %q: %w", filePath, err)
	}
	if err := Write(f, products); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
