// internal/service/decision_service.go
package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optistock/replenish/internal/cache"
	"github.com/optistock/replenish/internal/domain"
	"github.com/optistock/replenish/internal/engine"
	"github.com/optistock/replenish/internal/storage"
)

// DecisionService fronts the daily engine for the API and the batch CLI:
// cache lookups for reads, archiving after a successful run.
type DecisionService struct {
	orchestrator *engine.Orchestrator
	cache        cache.DecisionCache
	archiver     *storage.Archiver
}

func NewDecisionService(orchestrator *engine.Orchestrator, cacheImpl cache.DecisionCache, archiver *storage.Archiver) *DecisionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDecisionCache()
	}
	return &DecisionService{
		orchestrator: orchestrator,
		cache:        cacheImpl,
		archiver:     archiver,
	}
}

// Run executes the daily batch for a date, then caches and archives it.
// Cache and archive failures are logged, never fatal: the batch itself is
// the deliverable.
func (s *DecisionService) Run(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, error) {
	batch, err := s.orchestrator.Run(ctx, runDate)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Msg("decisions: cache set batch failed")
	}

	if s.archiver != nil {
		if err := s.archiver.SaveBatch(ctx, batch); err != nil {
			log.Warn().Err(err).Msg("decisions: archive batch failed")
		}
	}

	return batch, nil
}

// GetBatch returns a previously computed batch for a run date, preferring
// the cache and falling back to the archive.
func (s *DecisionService) GetBatch(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, bool, error) {
	if batch, ok, err := s.cache.GetBatch(ctx, runDate); err == nil && ok {
		return batch, true, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("decisions: cache get batch failed")
	}

	if s.archiver == nil {
		return nil, false, nil
	}

	batch, err := s.archiver.LoadBatch(ctx, runDate)
	if err != nil {
		return nil, false, nil
	}

	if err := s.cache.SetBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Msg("decisions: cache backfill failed")
	}
	return batch, true, nil
}

// RunDates lists the dates with an archived batch, newest first.
func (s *DecisionService) RunDates(ctx context.Context) ([]time.Time, error) {
	if s.archiver == nil {
		return nil, nil
	}
	dates, err := s.archiver.ListRunDates(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

// Forecast computes a one-off forecast for a single product.
func (s *DecisionService) Forecast(ctx context.Context, productCode string, asOf time.Time) (domain.ForecastResult, error) {
	return s.orchestrator.ForecastProduct(ctx, productCode, asOf)
}
