// internal/repository/product_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/optistock/replenish/internal/domain"
)

type ProductRepository interface {
	TrackedProducts(ctx context.Context) ([]domain.TrackedProduct, error)
	CurrentStock(ctx context.Context, productCode string, asOf time.Time) (float64, error)
}

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) TrackedProducts(ctx context.Context) ([]domain.TrackedProduct, error) {
	query := `
		SELECT code, name, category
		FROM products
		WHERE tracked = true
		ORDER BY code
	`

	var products []domain.TrackedProduct
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing tracked products: %w", err)
	}

	return products, nil
}

func (r *productRepository) CurrentStock(ctx context.Context, productCode string, asOf time.Time) (float64, error) {
	query := `
		SELECT stock_level
		FROM consumption_history
		WHERE product_code = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	var stock float64
	if err := r.db.GetContext(ctx, &stock, query, productCode, asOf); err != nil {
		return 0, fmt.Errorf("error getting current stock for %s: %w", productCode, err)
	}

	return stock, nil
}
