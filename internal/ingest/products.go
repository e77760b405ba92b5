// internal/ingest/products.go
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/optistock/replenish/internal/domain"
)

const productsFileName = "products.csv"

// TrackedProducts reads the product roster from products.csv in the history
// directory. Columns: code, name, category (header row required).
func (p *FileProvider) TrackedProducts(ctx context.Context) ([]domain.TrackedProduct, error) {
	path := filepath.Join(p.dir, productsFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open products file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read products file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, errors.New("products file has no data rows")
	}

	products := make([]domain.TrackedProduct, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("products file row %d: expected 3 columns, got %d", i+2, len(record))
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			continue
		}
		products = append(products, domain.TrackedProduct{
			Code:     code,
			Name:     strings.TrimSpace(record[1]),
			Category: domain.Category(strings.TrimSpace(record[2])),
		})
	}
	return products, nil
}
