// internal/ingest/readers.go
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/optistock/replenish/internal/domain"
)

var errSkipRow = errors.New("skip row")

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// readCSVHistory reads a date,stock_level,units_sold CSV with a header row.
func readCSVHistory(path string) ([]domain.ConsumptionPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv file %s has no data rows", path)
	}

	points := make([]domain.ConsumptionPoint, 0, len(records)-1)
	for i, record := range records[1:] {
		point, err := parseHistoryRecord(record, i+2)
		if errors.Is(err, errSkipRow) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("csv file %s: %w", path, err)
		}
		points = append(points, point)
	}
	return points, nil
}

// readXLSXHistory reads the first sheet of an XLSX with the same layout as
// the CSV variant.
func readXLSXHistory(path string) ([]domain.ConsumptionPoint, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var points []domain.ConsumptionPoint
	lineNo := 0
	for rows.Next() {
		lineNo++
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if lineNo == 1 {
			continue // header
		}

		point, err := parseHistoryRecord(record, lineNo)
		if errors.Is(err, errSkipRow) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("xlsx file %s: %w", path, err)
		}
		points = append(points, point)
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}
	return points, nil
}
