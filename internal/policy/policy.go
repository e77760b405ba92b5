// internal/policy/policy.go
package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/optistock/replenish/internal/domain"
)

// nearZeroDemand is the floor below which the demand estimate is treated as
// an effectively infinite runway.
const nearZeroDemand = 1e-6

// Evaluate converts a forecast, the current stock level and the category
// rule into a reorder recommendation. Lead time is computed with solo
// delivery; the consolidation optimizer may later revise the shipping leg.
// Pure computation, no side effects.
func Evaluate(rule domain.ProductRule, forecast domain.ForecastResult, currentStock float64, today time.Time) domain.ReorderRecommendation {
	rec := domain.ReorderRecommendation{
		ProductCode: forecast.ProductCode,
		Category:    rule.Category,
	}

	if forecast.DailyDemand < nearZeroDemand {
		rec.DaysUntilStockout = math.Inf(1)
		rec.Criticality = domain.CriticalityLow
		rec.Rationale = "no measurable demand"
		return rec
	}

	daysUntilStockout := currentStock / forecast.DailyDemand
	totalLead := rule.SoloLeadDays()
	criticalDays := float64(totalLead + rule.SafetyStockDays)

	rec.DaysUntilStockout = daysUntilStockout
	rec.Criticality = domain.CriticalityFor(daysUntilStockout)
	rec.NeedByDate = today.AddDate(0, 0, int(math.Floor(daysUntilStockout)))
	rec.OrderByDate = rec.NeedByDate.AddDate(0, 0, -totalLead)

	if daysUntilStockout > criticalDays {
		rec.Rationale = fmt.Sprintf("stock covers %.0f days, threshold %.0f", daysUntilStockout, criticalDays)
		return rec
	}

	// Demand over the uncovered part of the lead-plus-safety horizon.
	shortfallDays := criticalDays - daysUntilStockout
	rawQty := forecast.DailyDemand * shortfallDays
	rec.RecommendedQty = applyPackaging(rawQty, rule)
	rec.Rationale = fmt.Sprintf("runway %.0f days within lead %d + safety %d",
		daysUntilStockout, totalLead, rule.SafetyStockDays)

	if !rule.UnitCost.IsZero() {
		rec.EstimatedValue = rule.UnitCost.Mul(decimal.NewFromInt(int64(rec.RecommendedQty)))
	}

	return rec
}

// applyPackaging lifts a raw quantity to the category's minimum order and
// rounds it up to the next order multiple.
func applyPackaging(rawQty float64, rule domain.ProductRule) int {
	qty := int(math.Ceil(rawQty))
	if qty < rule.MinOrderQty {
		qty = rule.MinOrderQty
	}
	if m := rule.OrderMultiple; m > 1 && qty%m != 0 {
		qty = ((qty + m - 1) / m) * m
	}
	return qty
}
