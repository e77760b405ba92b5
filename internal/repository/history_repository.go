// internal/repository/history_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/optistock/replenish/internal/domain"
	"github.com/optistock/replenish/internal/repository/postgres"
)

// historyInsertBatchSize bounds the multi-row VALUES clause so statements
// stay well under the Postgres parameter limit.
const historyInsertBatchSize = 500

// HistoryRepository is the write side of the consumption data: it lets the
// import path seed products and replace per-product history from export files.
type HistoryRepository interface {
	UpsertProducts(ctx context.Context, products []domain.TrackedProduct) error
	ReplaceHistory(ctx context.Context, series domain.ConsumptionSeries) error
}

type historyRepository struct {
	db *postgres.DB
}

func NewHistoryRepository(db *postgres.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) UpsertProducts(ctx context.Context, products []domain.TrackedProduct) error {
	if len(products) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO products (code, name, category, tracked)
			VALUES ($1, $2, $3, true)
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name, category = EXCLUDED.category, tracked = true
		`)
		if err != nil {
			return fmt.Errorf("error preparing product upsert: %w", err)
		}
		defer stmt.Close()

		for _, product := range products {
			if _, err := stmt.ExecContext(ctx, product.Code, product.Name, product.Category); err != nil {
				return fmt.Errorf("error upserting product %s: %w", product.Code, err)
			}
		}
		return nil
	})
}

// ReplaceHistory swaps a product's entire consumption history in one
// transaction so readers never observe a partially imported series.
func (r *historyRepository) ReplaceHistory(ctx context.Context, series domain.ConsumptionSeries) error {
	if strings.TrimSpace(series.ProductCode) == "" {
		return fmt.Errorf("product code is required: %w", domain.ErrInvalidSeries)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM consumption_history WHERE product_code = $1`, series.ProductCode); err != nil {
			return fmt.Errorf("error clearing history for %s: %w", series.ProductCode, err)
		}

		for _, batch := range chunkPoints(series.Points, historyInsertBatchSize) {
			query, args := historyInsertStatement(series.ProductCode, batch)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("error inserting history for %s: %w", series.ProductCode, err)
			}
		}
		return nil
	})
}

func chunkPoints(points []domain.ConsumptionPoint, size int) [][]domain.ConsumptionPoint {
	if size <= 0 || len(points) == 0 {
		return nil
	}

	batches := make([][]domain.ConsumptionPoint, 0, (len(points)+size-1)/size)
	for start := 0; start < len(points); start += size {
		end := start + size
		if end > len(points) {
			end = len(points)
		}
		batches = append(batches, points[start:end])
	}
	return batches
}

// historyInsertStatement builds one multi-row insert for a batch of points.
func historyInsertStatement(productCode string, points []domain.ConsumptionPoint) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO consumption_history (product_code, date, stock_level, units_sold) VALUES ")

	args := make([]interface{}, 0, len(points)*4)
	for i, point := range points {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, productCode, point.Date, point.StockLevel, point.UnitsSold)
	}
	return sb.String(), args
}
