package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optistock/replenish/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, "products.csv",
		"code,name,category\n"+
			"301234,Daily Lens -2.5,daily_lens\n"+
			"360360,Solution 360ml,solution_360_500\n")

	writeFile(t, dir, "301234.csv",
		"date,stock_level,units_sold\n"+
			"2026-08-01,120,5\n"+
			"2026-08-02,115,5\n"+
			"2026-08-03,110,0\n"+
			"\n"+
			"2026-08-04,110,8\n")

	return dir
}

func TestTrackedProducts(t *testing.T) {
	p := NewFileProvider(newTestDir(t))

	products, err := p.TrackedProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "301234", products[0].Code)
	assert.Equal(t, domain.CategoryDailyLens, products[0].Category)
	assert.Equal(t, domain.CategorySolution360500, products[1].Category)
}

func TestSeriesClipsToRange(t *testing.T) {
	p := NewFileProvider(newTestDir(t))

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	series, err := p.Series(context.Background(), "301234", from, to)
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
	assert.Equal(t, 115.0, series.Points[0].StockLevel)
	assert.Equal(t, 0.0, series.Points[1].UnitsSold)
}

func TestSeriesSkipsBlankRows(t *testing.T) {
	p := NewFileProvider(newTestDir(t))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	series, err := p.Series(context.Background(), "301234", from, to)
	require.NoError(t, err)
	assert.Len(t, series.Points, 4)
}

func TestSeriesMissingProduct(t *testing.T) {
	p := NewFileProvider(newTestDir(t))

	_, err := p.Series(context.Background(), "999999", time.Time{}, time.Now())
	require.Error(t, err)
}

func TestCurrentStock(t *testing.T) {
	p := NewFileProvider(newTestDir(t))

	asOf := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	stock, err := p.CurrentStock(context.Background(), "301234", asOf)
	require.NoError(t, err)
	assert.Equal(t, 110.0, stock)

	_, err = p.CurrentStock(context.Background(), "301234", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err, "no snapshot before the first point")
}

func TestParseDateFormats(t *testing.T) {
	for _, raw := range []string{"2026-08-24", "24/08/2026", "2026-08-24 00:00:00"} {
		parsed, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), parsed, raw)
	}

	_, err := parseDate("Aug 24 2026")
	require.Error(t, err)
}
