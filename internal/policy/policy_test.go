package policy

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optistock/replenish/internal/domain"
)

var today = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func lensRule() domain.ProductRule {
	return domain.ProductRule{
		Category:           domain.CategoryMonthlyLens,
		OrderMultiple:      50,
		MinOrderQty:        5000,
		ProductionLeadDays: 45,
		SoloDeliveryDays:   12,
		SafetyStockDays:    15,
		CanCombineDelivery: true,
	}
}

func forecastWith(demand float64) domain.ForecastResult {
	return domain.ForecastResult{
		ProductCode: "31234",
		DailyDemand: demand,
		Confidence:  0.8,
		ModelsUsed:  []domain.EstimatorKind{domain.EstimatorLinear},
	}
}

func TestEvaluateTriggersReorder(t *testing.T) {
	rule := lensRule()
	rec := Evaluate(rule, forecastWith(10), 200, today)

	// Runway 20 days against a 57-day lead plus 15 days of safety.
	require.True(t, rec.Triggered())
	assert.InDelta(t, 20, rec.DaysUntilStockout, 1e-9)
	assert.GreaterOrEqual(t, rec.RecommendedQty, rule.MinOrderQty)
	assert.Zero(t, rec.RecommendedQty%rule.OrderMultiple)
	assert.Equal(t, 5000, rec.RecommendedQty)
	assert.Equal(t, today.AddDate(0, 0, 20), rec.NeedByDate)
	assert.Equal(t, rec.NeedByDate.AddDate(0, 0, -57), rec.OrderByDate)
	assert.Equal(t, domain.CriticalityMedium, rec.Criticality)
	assert.True(t, rec.EstimatedValue.IsZero())
}

func TestEvaluateNoTrigger(t *testing.T) {
	rec := Evaluate(lensRule(), forecastWith(10), 10000, today)

	assert.False(t, rec.Triggered())
	assert.Zero(t, rec.RecommendedQty)
	assert.InDelta(t, 1000, rec.DaysUntilStockout, 1e-9)
	assert.Equal(t, domain.CriticalityLow, rec.Criticality)
	assert.NotEmpty(t, rec.Rationale)
}

func TestEvaluateZeroDemand(t *testing.T) {
	rec := Evaluate(lensRule(), forecastWith(0), 200, today)

	assert.False(t, rec.Triggered())
	assert.True(t, math.IsInf(rec.DaysUntilStockout, 1))
	assert.Equal(t, domain.CriticalityLow, rec.Criticality)
	assert.True(t, rec.NeedByDate.IsZero())
}

func TestEvaluatePackagingRoundUp(t *testing.T) {
	rule := lensRule()

	// Raw demand over the full 72-day shortfall: ceil(99.5*72)=7164,
	// rounded up to the next multiple of 50.
	rec := Evaluate(rule, forecastWith(99.5), 0, today)
	require.True(t, rec.Triggered())
	assert.Equal(t, 7200, rec.RecommendedQty)
	assert.Equal(t, domain.CriticalityCritical, rec.Criticality)
}

func TestEvaluateEstimatedValue(t *testing.T) {
	rule := lensRule()
	rule.UnitCost = decimal.RequireFromString("2.5")

	rec := Evaluate(rule, forecastWith(10), 200, today)
	require.True(t, rec.Triggered())
	assert.True(t, rec.EstimatedValue.Equal(decimal.RequireFromString("12500")),
		"got %s", rec.EstimatedValue)
}

func TestEvaluateCriticalityBands(t *testing.T) {
	cases := []struct {
		stock float64
		want  domain.Criticality
	}{
		{0, domain.CriticalityCritical},
		{50, domain.CriticalityHigh},    // 5 days
		{200, domain.CriticalityMedium}, // 20 days
		{500, domain.CriticalityLow},    // 50 days, still within the trigger window
	}

	for _, tc := range cases {
		rec := Evaluate(lensRule(), forecastWith(10), tc.stock, today)
		assert.Equal(t, tc.want, rec.Criticality, "stock %.0f", tc.stock)
		assert.True(t, rec.Triggered(), "stock %.0f", tc.stock)
	}
}
