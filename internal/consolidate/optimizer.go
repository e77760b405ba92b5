// internal/consolidate/optimizer.go
package consolidate

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optistock/replenish/internal/domain"
)

// RuleSource resolves the packaging rule of a category.
type RuleSource interface {
	ByCategory(category domain.Category) (domain.ProductRule, error)
}

// Optimizer merges due lens reorders with compatible solution reorders so
// the lens shipment rides the solution freight. Greedy bipartite matching:
// each lens pairs with at most one solution, most urgent lens first. Not
// globally optimal; a documented heuristic bound to the two coupled chains.
type Optimizer struct {
	rules         RuleSource
	lookaheadDays int
}

func NewOptimizer(rules RuleSource, lookaheadDays int) *Optimizer {
	return &Optimizer{rules: rules, lookaheadDays: lookaheadDays}
}

// Optimize splits the triggered recommendations into consolidation plans and
// a residual set that ships solo. Never returns an error: an unmatched lens
// is simply left in the residual.
func (o *Optimizer) Optimize(recommendations []domain.ReorderRecommendation, today time.Time) ([]domain.ConsolidationPlan, []domain.ReorderRecommendation) {
	var lenses, solutions, residual []domain.ReorderRecommendation

	for _, rec := range recommendations {
		rule, err := o.rules.ByCategory(rec.Category)
		switch {
		case !rec.Triggered() || err != nil || !rule.CanCombineDelivery:
			residual = append(residual, rec)
		case rec.Category.IsLens():
			lenses = append(lenses, rec)
		case rec.Category.IsSolution():
			solutions = append(solutions, rec)
		default:
			residual = append(residual, rec)
		}
	}

	// Most urgent lens claims its solution first.
	sort.Slice(lenses, func(i, j int) bool {
		return lenses[i].OrderByDate.Before(lenses[j].OrderByDate)
	})

	matched := make([]bool, len(solutions))
	plans := make([]domain.ConsolidationPlan, 0)

	for _, lens := range lenses {
		idx := o.pickSolution(lens, solutions, matched)
		if idx < 0 {
			residual = append(residual, lens)
			continue
		}

		plan, ok := o.buildPlan(lens, solutions[idx], today)
		if !ok {
			residual = append(residual, lens)
			continue
		}

		matched[idx] = true
		plans = append(plans, plan)
	}

	for i, sol := range solutions {
		if !matched[i] {
			residual = append(residual, sol)
		}
	}

	return plans, residual
}

// pickSolution finds the unmatched solution whose order-by date lies within
// the look-ahead window and is closest to the lens's; exact ties go to the
// larger quantity to maximize shipment utilization.
func (o *Optimizer) pickSolution(lens domain.ReorderRecommendation, solutions []domain.ReorderRecommendation, matched []bool) int {
	best := -1
	bestDist := math.MaxFloat64

	for i, sol := range solutions {
		if matched[i] {
			continue
		}
		dist := math.Abs(sol.OrderByDate.Sub(lens.OrderByDate).Hours() / 24)
		if dist > float64(o.lookaheadDays) {
			continue
		}
		if dist < bestDist || (dist == bestDist && best >= 0 && sol.RecommendedQty > solutions[best].RecommendedQty) {
			best = i
			bestDist = dist
		}
	}
	return best
}

// buildPlan computes the merged order dates. The solution order is advanced
// by the lead-time gap between the two chains so both productions finish for
// the same shipment; the advance is clamped to today.
func (o *Optimizer) buildPlan(lens, sol domain.ReorderRecommendation, today time.Time) (domain.ConsolidationPlan, bool) {
	lensRule, err := o.rules.ByCategory(lens.Category)
	if err != nil {
		return domain.ConsolidationPlan{}, false
	}
	solRule, err := o.rules.ByCategory(sol.Category)
	if err != nil {
		return domain.ConsolidationPlan{}, false
	}

	offset := solRule.CombinedDeliveryDays - lensRule.CombinedDeliveryDays
	solutionsOrderDate := lens.OrderByDate.AddDate(0, 0, -offset)
	if sol.OrderByDate.Before(solutionsOrderDate) {
		solutionsOrderDate = sol.OrderByDate
	}

	clamped := false
	if solutionsOrderDate.Before(today) {
		solutionsOrderDate = today
		clamped = true
	}

	combinedDelivery := solutionsOrderDate.AddDate(0, 0, solRule.CombinedLeadDays())
	if clamped && combinedDelivery.After(lens.NeedByDate) {
		// Even ordering today the merged shipment misses the lens need-by
		// date; the lens ships solo instead.
		log.Debug().
			Str("lens", lens.ProductCode).
			Str("solution", sol.ProductCode).
			Msg("consolidation infeasible, lens left solo")
		return domain.ConsolidationPlan{}, false
	}

	lensesOrderDate := lens.OrderByDate
	lensDeferred := false
	if lensesOrderDate.Before(today) {
		lensesOrderDate = today
		lensDeferred = true
	}

	return domain.ConsolidationPlan{
		LensProductCode:      lens.ProductCode,
		SolutionProductCode:  sol.ProductCode,
		LensesOrderDate:      lensesOrderDate,
		SolutionsOrderDate:   solutionsOrderDate,
		CombinedDeliveryDate: combinedDelivery,
		EstimatedSavingsDays: lensRule.SoloDeliveryDays - lensRule.CombinedDeliveryDays,
		SolutionAdvanced:     solutionsOrderDate.Before(sol.OrderByDate),
		LensDeferred:         lensDeferred,
	}, true
}
