// internal/engine/orchestrator.go
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/consolidate"
	"github.com/optistock/replenish/internal/domain"
	"github.com/optistock/replenish/internal/forecast"
	"github.com/optistock/replenish/internal/policy"
)

// historyLookbackDays bounds how much consumption history a run requests
// from the series provider.
const historyLookbackDays = 365

// SeriesProvider is the read-only time-series collaborator.
type SeriesProvider interface {
	Series(ctx context.Context, productCode string, from, to time.Time) (domain.ConsumptionSeries, error)
}

// StockProvider returns the stock snapshot of a product as of a date.
type StockProvider interface {
	CurrentStock(ctx context.Context, productCode string, asOf time.Time) (float64, error)
}

// ProductProvider lists the products the daily run evaluates.
type ProductProvider interface {
	TrackedProducts(ctx context.Context) ([]domain.TrackedProduct, error)
}

// RuleSource resolves packaging rules by category.
type RuleSource interface {
	ByCategory(category domain.Category) (domain.ProductRule, error)
}

// Orchestrator runs the daily decision batch: forecast every tracked
// product, evaluate the reorder policy, then consolidate shipments across
// the full recommendation set.
type Orchestrator struct {
	cfg        config.EngineConfig
	products   ProductProvider
	series     SeriesProvider
	stock      StockProvider
	rules      RuleSource
	forecaster *forecast.Forecaster
	optimizer  *consolidate.Optimizer
}

func NewOrchestrator(
	cfg config.EngineConfig,
	products ProductProvider,
	series SeriesProvider,
	stock StockProvider,
	rules RuleSource,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		products:   products,
		series:     series,
		stock:      stock,
		rules:      rules,
		forecaster: forecast.NewForecaster(cfg),
		optimizer:  consolidate.NewOptimizer(rules, cfg.LookaheadDays),
	}
}

type productOutcome struct {
	forecast       domain.ForecastResult
	recommendation domain.ReorderRecommendation
	skipKind       string
	err            error
}

// Run executes one daily batch. Per-product failures are recorded and
// skipped; cancellation aborts the whole batch with no partial result.
func (o *Orchestrator) Run(ctx context.Context, today time.Time) (*domain.DecisionBatch, error) {
	start := time.Now()
	products, err := o.products.TrackedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked products: %w", err)
	}

	log.Info().
		Int("products", len(products)).
		Str("date", today.Format("2006-01-02")).
		Msg("starting daily decision run")

	// Per-product forecasting shares no mutable state; fan out over a
	// bounded pool and collect behind a mutex until the barrier.
	sem := semaphore.NewWeighted(int64(o.cfg.EffectiveWorkers()))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[string]productOutcome, len(products))
	)

	for _, product := range products {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(p domain.TrackedProduct) {
			defer wg.Done()
			defer sem.Release(1)

			outcome := o.evaluateProduct(ctx, p, today)
			mu.Lock()
			outcomes[p.Code] = outcome
			mu.Unlock()
		}(product)
	}
	wg.Wait()

	// All-or-nothing at the batch level: a cancelled run discards
	// everything computed so far.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &domain.DecisionBatch{
		RunDate:     today,
		GeneratedAt: time.Now().UTC(),
		Summary: domain.BatchSummary{
			ProductsSkipped: make(map[string]int),
		},
	}

	// Deterministic batch assembly regardless of goroutine scheduling.
	for _, product := range products {
		outcome, ok := outcomes[product.Code]
		if !ok {
			continue
		}
		if outcome.err != nil {
			batch.Summary.ProductsSkipped[outcome.skipKind]++
			log.Warn().Err(outcome.err).
				Str("product", product.Code).
				Str("kind", outcome.skipKind).
				Msg("product skipped")
			continue
		}
		batch.Summary.ProductsEvaluated++
		batch.Forecasts = append(batch.Forecasts, outcome.forecast)
		batch.Recommendations = append(batch.Recommendations, outcome.recommendation)
	}

	sort.Slice(batch.Recommendations, func(i, j int) bool {
		a, b := batch.Recommendations[i], batch.Recommendations[j]
		if a.DaysUntilStockout != b.DaysUntilStockout {
			return a.DaysUntilStockout < b.DaysUntilStockout
		}
		return a.ProductCode < b.ProductCode
	})

	// Synchronization barrier passed; global consolidation over the
	// triggered subset runs single-threaded.
	triggered := make([]domain.ReorderRecommendation, 0, len(batch.Recommendations))
	for _, rec := range batch.Recommendations {
		if rec.Triggered() {
			triggered = append(triggered, rec)
		}
	}
	batch.Summary.ReordersRecommended = len(triggered)
	batch.Plans, batch.Residual = o.optimizer.Optimize(triggered, today)
	batch.Summary.PlansFormed = len(batch.Plans)

	log.Info().
		Int("evaluated", batch.Summary.ProductsEvaluated).
		Int("reorders", batch.Summary.ReordersRecommended).
		Int("plans", batch.Summary.PlansFormed).
		Dur("took", time.Since(start)).
		Msg("daily decision run completed")

	return batch, nil
}

func (o *Orchestrator) evaluateProduct(ctx context.Context, product domain.TrackedProduct, today time.Time) productOutcome {
	rule, err := o.rules.ByCategory(product.Category)
	if err != nil {
		return productOutcome{err: err, skipKind: domain.SkipKind(err)}
	}

	series, err := o.series.Series(ctx, product.Code, today.AddDate(0, 0, -historyLookbackDays), today)
	if err != nil {
		return productOutcome{err: err, skipKind: domain.SkipKind(err)}
	}

	fc, err := o.forecaster.Forecast(series, o.cfg.HorizonDays)
	if err != nil {
		return productOutcome{err: err, skipKind: domain.SkipKind(err)}
	}

	stock, err := o.stock.CurrentStock(ctx, product.Code, today)
	if err != nil {
		return productOutcome{err: err, skipKind: domain.SkipKind(err)}
	}

	rec := policy.Evaluate(rule, fc, stock, today)
	return productOutcome{forecast: fc, recommendation: rec}
}

// ForecastProduct forecasts a single product outside a batch run.
func (o *Orchestrator) ForecastProduct(ctx context.Context, productCode string, today time.Time) (domain.ForecastResult, error) {
	series, err := o.series.Series(ctx, productCode, today.AddDate(0, 0, -historyLookbackDays), today)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	return o.forecaster.Forecast(series, o.cfg.HorizonDays)
}
