package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/domain"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		MinPoints:          30,
		TopModels:          2,
		FitThreshold:       0.5,
		FallbackConfidence: 0.3,
		MaxConfidence:      0.95,
		LookaheadDays:      45,
		ForestSeed:         42,
		HorizonDays:        30,
	}
}

func buildSeries(code string, days int, sales func(i int) float64) domain.ConsumptionSeries {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.ConsumptionPoint, 0, days)
	for i := 0; i < days; i++ {
		points = append(points, domain.ConsumptionPoint{
			Date:       start.AddDate(0, 0, i),
			StockLevel: 500,
			UnitsSold:  sales(i),
		})
	}
	return domain.ConsumptionSeries{ProductCode: code, Points: points}
}

func TestForecastInsufficientData(t *testing.T) {
	f := NewForecaster(testEngineConfig())

	series := buildSeries("301234", 5, func(i int) float64 { return 3 })
	_, err := f.Forecast(series, 30)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestForecastInvalidSeries(t *testing.T) {
	f := NewForecaster(testEngineConfig())

	negative := buildSeries("301234", 40, func(i int) float64 { return 3 })
	negative.Points[20].UnitsSold = -1
	_, err := f.Forecast(negative, 30)
	require.ErrorIs(t, err, domain.ErrInvalidSeries)

	duplicated := buildSeries("301234", 40, func(i int) float64 { return 3 })
	duplicated.Points[11].Date = duplicated.Points[10].Date
	_, err = f.Forecast(duplicated, 30)
	require.ErrorIs(t, err, domain.ErrInvalidSeries)
}

func TestForecastFlatZeroSales(t *testing.T) {
	f := NewForecaster(testEngineConfig())

	series := buildSeries("31234", 60, func(i int) float64 { return 0 })
	for i := range series.Points {
		series.Points[i].StockLevel = 100
	}

	result, err := f.Forecast(series, 30)
	require.NoError(t, err)
	assert.InDelta(t, 0, result.DailyDemand, 1e-9)
	assert.True(t, result.UsedOnly(domain.EstimatorFallback))
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestForecastTrendingSeries(t *testing.T) {
	f := NewForecaster(testEngineConfig())

	series := buildSeries("301234", 60, func(i int) float64 { return float64(i) })
	result, err := f.Forecast(series, 30)
	require.NoError(t, err)

	assert.Greater(t, result.DailyDemand, 0.0)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 0.95)
	assert.NotEmpty(t, result.ModelsUsed)
	assert.False(t, result.UsedOnly(domain.EstimatorFallback))
}

func TestForecastConfidenceBounds(t *testing.T) {
	f := NewForecaster(testEngineConfig())

	patterns := []func(i int) float64{
		func(i int) float64 { return float64(i % 7 * 3) },
		func(i int) float64 { return 10 + float64(i%3) },
		func(i int) float64 { return float64((i*i)%13) + 1 },
	}

	for idx, pattern := range patterns {
		series := buildSeries("301234", 90, pattern)
		result, err := f.Forecast(series, 30)
		require.NoError(t, err, "pattern %d", idx)
		assert.GreaterOrEqual(t, result.Confidence, 0.0, "pattern %d", idx)
		assert.LessOrEqual(t, result.Confidence, 1.0, "pattern %d", idx)
		assert.GreaterOrEqual(t, result.DailyDemand, 0.0, "pattern %d", idx)
	}
}

func TestForecastDeterminism(t *testing.T) {
	f := NewForecaster(testEngineConfig())
	series := buildSeries("301234", 90, func(i int) float64 { return float64(i%11) + 2 })

	first, err := f.Forecast(series, 30)
	require.NoError(t, err)
	second, err := f.Forecast(series, 30)
	require.NoError(t, err)

	assert.InDelta(t, first.DailyDemand, second.DailyDemand, 1e-9)
	assert.InDelta(t, first.Confidence, second.Confidence, 1e-9)
	assert.Equal(t, first.ModelsUsed, second.ModelsUsed)
}

func TestForecastFallbackUsesTrailingAverage(t *testing.T) {
	cfg := testEngineConfig()
	cfg.FitThreshold = 1.1 // unreachable, forces the fallback path
	f := NewForecaster(cfg)

	series := buildSeries("31234", 60, func(i int) float64 { return 7 })
	result, err := f.Forecast(series, 30)
	require.NoError(t, err)

	assert.True(t, result.UsedOnly(domain.EstimatorFallback))
	assert.InDelta(t, 7, result.DailyDemand, 1e-9)
	assert.InDelta(t, cfg.FallbackConfidence, result.Confidence, 1e-9)
}

func TestForecastZeroHorizonFallsBackToDefault(t *testing.T) {
	cfg := testEngineConfig()
	cfg.HorizonDays = 0
	f := NewForecaster(cfg)

	series := buildSeries("301234", 60, func(i int) float64 { return float64(i) })
	result, err := f.Forecast(series, 0)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(result.DailyDemand))
	assert.Greater(t, result.DailyDemand, 0.0)
}

func TestRSquared(t *testing.T) {
	targets := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.0, rSquared(targets, []float64{1, 2, 3, 4}), 1e-9)
	assert.Equal(t, 0.0, rSquared([]float64{5, 5, 5}, []float64{5, 5, 5}), "flat target has no explainable variance")
	assert.Equal(t, 0.0, rSquared(targets, []float64{10, -10, 10, -10}), "worse than mean floors at zero")
}
