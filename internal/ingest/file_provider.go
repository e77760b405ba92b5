// internal/ingest/file_provider.go
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/optistock/replenish/internal/domain"
)

// FileProvider serves consumption series from per-product history files in a
// directory, one file per product named <code>.csv or <code>.xlsx. Expected
// columns: date, stock_level, units_sold (header row required). Meant for
// local runs and backtesting without a database.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Series loads a product's history file and clips it to [from, to].
func (p *FileProvider) Series(ctx context.Context, productCode string, from, to time.Time) (domain.ConsumptionSeries, error) {
	points, err := p.load(productCode)
	if err != nil {
		return domain.ConsumptionSeries{}, err
	}

	clipped := make([]domain.ConsumptionPoint, 0, len(points))
	for _, pt := range points {
		if pt.Date.Before(from) || pt.Date.After(to) {
			continue
		}
		clipped = append(clipped, pt)
	}

	return domain.ConsumptionSeries{
		ProductCode: productCode,
		Points:      clipped,
	}, nil
}

// CurrentStock is the stock level of the most recent point at or before asOf.
func (p *FileProvider) CurrentStock(ctx context.Context, productCode string, asOf time.Time) (float64, error) {
	points, err := p.load(productCode)
	if err != nil {
		return 0, err
	}

	stock, found := 0.0, false
	for _, pt := range points {
		if pt.Date.After(asOf) {
			break
		}
		stock, found = pt.StockLevel, true
	}
	if !found {
		return 0, fmt.Errorf("no stock snapshot for %s at or before %s", productCode, asOf.Format("2006-01-02"))
	}
	return stock, nil
}

func (p *FileProvider) load(productCode string) ([]domain.ConsumptionPoint, error) {
	csvPath := filepath.Join(p.dir, productCode+".csv")
	xlsxPath := filepath.Join(p.dir, productCode+".xlsx")

	if points, err := readCSVHistory(csvPath); err == nil {
		return points, nil
	}
	points, err := readXLSXHistory(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("no readable history file for %s in %s: %w", productCode, p.dir, err)
	}
	return points, nil
}

// parseHistoryRecord converts one raw file row into a point. Blank rows are
// reported as errSkipRow so callers can tolerate trailing empties.
func parseHistoryRecord(record []string, lineNo int) (domain.ConsumptionPoint, error) {
	if len(record) < 3 {
		return domain.ConsumptionPoint{}, fmt.Errorf("row %d: expected 3 columns, got %d", lineNo, len(record))
	}

	blank := true
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			blank = false
			break
		}
	}
	if blank {
		return domain.ConsumptionPoint{}, errSkipRow
	}

	date, err := parseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return domain.ConsumptionPoint{}, fmt.Errorf("row %d: %w", lineNo, err)
	}

	stock, err := parseFloat(record[1])
	if err != nil {
		return domain.ConsumptionPoint{}, fmt.Errorf("row %d: bad stock_level: %w", lineNo, err)
	}

	sold, err := parseFloat(record[2])
	if err != nil {
		return domain.ConsumptionPoint{}, fmt.Errorf("row %d: bad units_sold: %w", lineNo, err)
	}

	return domain.ConsumptionPoint{Date: date, StockLevel: stock, UnitsSold: sold}, nil
}
