// internal/forecast/forecaster.go
package forecast

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/domain"
)

// Forecaster fits an ensemble of independent estimators on a product's
// consumption history and blends the best of them into a daily demand
// estimate with a confidence score.
//
// Confidence formula: retained estimators are weighted by in-sample R²
// (w_i = r2_i / Σ r2), the blended fit quality is Σ w_i·r2_i, and confidence
// is that value capped at MaxConfidence. Monotonic in fit quality and
// bounded to [FitThreshold, MaxConfidence]; the fallback path uses the fixed
// FallbackConfidence instead.
type Forecaster struct {
	cfg config.EngineConfig
}

func NewForecaster(cfg config.EngineConfig) *Forecaster {
	return &Forecaster{cfg: cfg}
}

// defaultHorizonDays guards the averaging window when neither the caller nor
// the config supplies a positive horizon.
const defaultHorizonDays = 30

type scoredEstimator struct {
	est estimator
	r2  float64
}

// Forecast produces the demand estimate for one product over the horizon.
// Returns domain.ErrInsufficientData or domain.ErrInvalidSeries when the
// series cannot be trusted.
func (f *Forecaster) Forecast(series domain.ConsumptionSeries, horizonDays int) (domain.ForecastResult, error) {
	if err := validateSeries(series, f.cfg.MinPoints); err != nil {
		return domain.ForecastResult{}, err
	}
	if horizonDays <= 0 {
		horizonDays = f.cfg.HorizonDays
	}
	if horizonDays <= 0 {
		horizonDays = defaultHorizonDays
	}

	features, targets := buildTrainingRows(series)

	candidates := []estimator{
		newLinearEstimator(),
		newForestEstimator(f.cfg.ForestSeed),
	}

	scored := make([]scoredEstimator, 0, len(candidates))
	for _, est := range candidates {
		if err := est.Fit(features, targets); err != nil {
			log.Debug().Err(err).
				Str("product", series.ProductCode).
				Str("estimator", string(est.Kind())).
				Msg("estimator fit failed, excluded from ensemble")
			continue
		}
		preds := make([]float64, len(features))
		for i, row := range features {
			preds[i] = est.Predict(row)
		}
		r2 := rSquared(targets, preds)
		if r2 >= f.cfg.FitThreshold {
			scored = append(scored, scoredEstimator{est: est, r2: r2})
		}
	}

	if len(scored) == 0 {
		return f.fallback(series), nil
	}

	// Rank by fit quality and keep the top K.
	sort.Slice(scored, func(i, j int) bool { return scored[i].r2 > scored[j].r2 })
	if len(scored) > f.cfg.TopModels {
		scored = scored[:f.cfg.TopModels]
	}

	horizon := buildHorizonRows(series, horizonDays)

	var totalR2 float64
	for _, s := range scored {
		totalR2 += s.r2
	}

	var demand, blendedR2 float64
	kinds := make([]domain.EstimatorKind, 0, len(scored))
	for _, s := range scored {
		weight := s.r2 / totalR2
		demand += weight * horizonMean(s.est, horizon)
		blendedR2 += weight * s.r2
		kinds = append(kinds, s.est.Kind())
	}
	if demand < 0 {
		demand = 0
	}

	confidence := blendedR2
	if confidence > f.cfg.MaxConfidence {
		confidence = f.cfg.MaxConfidence
	}

	return domain.ForecastResult{
		ProductCode: series.ProductCode,
		DailyDemand: demand,
		Confidence:  confidence,
		ModelsUsed:  kinds,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// fallback is the trailing-average estimate used when no estimator clears
// the fit-quality threshold.
func (f *Forecaster) fallback(series domain.ConsumptionSeries) domain.ForecastResult {
	rate := trailingAverageRate(series)
	if rate < 0 {
		rate = 0
	}
	return domain.ForecastResult{
		ProductCode: series.ProductCode,
		DailyDemand: rate,
		Confidence:  f.cfg.FallbackConfidence,
		ModelsUsed:  []domain.EstimatorKind{domain.EstimatorFallback},
		GeneratedAt: time.Now().UTC(),
	}
}

// horizonMean averages an estimator's per-day predictions over the horizon,
// clamping each day at zero.
func horizonMean(est estimator, horizon [][]float64) float64 {
	var sum float64
	for _, row := range horizon {
		p := est.Predict(row)
		if p < 0 {
			p = 0
		}
		sum += p
	}
	return sum / float64(len(horizon))
}
