// internal/repository/series_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/optistock/replenish/internal/domain"
)

type SeriesRepository interface {
	Series(ctx context.Context, productCode string, from, to time.Time) (domain.ConsumptionSeries, error)
}

type seriesRepository struct {
	db *sqlx.DB
}

func NewSeriesRepository(db *sqlx.DB) SeriesRepository {
	return &seriesRepository{db: db}
}

func (r *seriesRepository) Series(ctx context.Context, productCode string, from, to time.Time) (domain.ConsumptionSeries, error) {
	query := `
		SELECT date, stock_level, units_sold
		FROM consumption_history
		WHERE product_code = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`

	var points []domain.ConsumptionPoint
	if err := r.db.SelectContext(ctx, &points, query, productCode, from, to); err != nil {
		return domain.ConsumptionSeries{}, fmt.Errorf("error getting consumption series for %s: %w", productCode, err)
	}

	return domain.ConsumptionSeries{
		ProductCode: productCode,
		Points:      points,
	}, nil
}
