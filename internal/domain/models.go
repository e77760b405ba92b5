// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the product class that drives packaging and lead-time rules.
type Category string

const (
	CategoryMonthlyLens    Category = "monthly_lens"
	CategoryDailyLens      Category = "daily_lens"
	CategorySolution360500 Category = "solution_360_500"
	CategorySolution120    Category = "solution_120"
)

// IsLens reports whether the category belongs to the lens supply chain.
func (c Category) IsLens() bool {
	return c == CategoryMonthlyLens || c == CategoryDailyLens
}

// IsSolution reports whether the category belongs to the solution supply chain.
func (c Category) IsSolution() bool {
	return c == CategorySolution360500 || c == CategorySolution120
}

// ProductRule holds the immutable packaging and lead-time constraints of a category.
type ProductRule struct {
	Category             Category        `json:"category"`
	OrderMultiple        int             `json:"order_multiple"`
	MinOrderQty          int             `json:"min_order_qty"`
	ProductionLeadDays   int             `json:"production_lead_days"`
	SoloDeliveryDays     int             `json:"solo_delivery_days"`
	CombinedDeliveryDays int             `json:"combined_delivery_days"`
	SafetyStockDays      int             `json:"safety_stock_days"`
	CanCombineDelivery   bool            `json:"can_combine_delivery"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
}

// SoloLeadDays is the total lead time when the category ships on its own.
func (r ProductRule) SoloLeadDays() int {
	return r.ProductionLeadDays + r.SoloDeliveryDays
}

// CombinedLeadDays is the total lead time when the shipment rides a combined delivery.
func (r ProductRule) CombinedLeadDays() int {
	return r.ProductionLeadDays + r.CombinedDeliveryDays
}

// ConsumptionPoint is one day of the historical stock/sales series.
type ConsumptionPoint struct {
	Date       time.Time `json:"date" db:"date"`
	StockLevel float64   `json:"stock_level" db:"stock_level"`
	UnitsSold  float64   `json:"units_sold" db:"units_sold"`
}

// ConsumptionSeries is the chronological stock/sales history of one product.
// The engine treats it as read-only input owned by the ingestion collaborator.
type ConsumptionSeries struct {
	ProductCode string             `json:"product_code"`
	Points      []ConsumptionPoint `json:"points"`
}

func (s ConsumptionSeries) Len() int { return len(s.Points) }

// EstimatorKind identifies which estimator contributed to a forecast.
type EstimatorKind string

const (
	EstimatorLinear   EstimatorKind = "linear"
	EstimatorForest   EstimatorKind = "forest"
	EstimatorFallback EstimatorKind = "fallback"
)

// ForecastResult is the per-product demand estimate produced by one run.
// It is never mutated, only superseded by the next run.
type ForecastResult struct {
	ProductCode string          `json:"product_code"`
	DailyDemand float64         `json:"daily_demand_estimate"`
	Confidence  float64         `json:"confidence"`
	ModelsUsed  []EstimatorKind `json:"models_used"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// UsedOnly reports whether the forecast came from exactly the given estimator.
func (f ForecastResult) UsedOnly(kind EstimatorKind) bool {
	return len(f.ModelsUsed) == 1 && f.ModelsUsed[0] == kind
}

// Criticality labels how close a product is to running out.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityHigh     Criticality = "high"
	CriticalityMedium   Criticality = "medium"
	CriticalityLow      Criticality = "low"
)

// CriticalityFor grades the stockout runway in days.
func CriticalityFor(daysUntilStockout float64) Criticality {
	switch {
	case daysUntilStockout <= 0:
		return CriticalityCritical
	case daysUntilStockout <= 7:
		return CriticalityHigh
	case daysUntilStockout <= 30:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

// ReorderRecommendation is the policy output for one product on one run.
// RecommendedQty is 0 when no reorder is needed, otherwise it is at least
// MinOrderQty and a multiple of OrderMultiple.
type ReorderRecommendation struct {
	ProductCode       string          `json:"product_code"`
	Category          Category        `json:"category"`
	RecommendedQty    int             `json:"recommended_qty"`
	NeedByDate        time.Time       `json:"need_by_date"`
	OrderByDate       time.Time       `json:"order_by_date"`
	DaysUntilStockout float64         `json:"days_until_stockout"`
	Criticality       Criticality     `json:"criticality"`
	Rationale         string          `json:"rationale"`
	EstimatedValue    decimal.Decimal `json:"estimated_value"`
}

// Triggered reports whether the recommendation actually asks for an order.
func (r ReorderRecommendation) Triggered() bool { return r.RecommendedQty > 0 }

// ConsolidationPlan pairs a lens reorder with a solution reorder whose
// shipments should be merged to share freight.
type ConsolidationPlan struct {
	LensProductCode      string    `json:"lens_product_code"`
	SolutionProductCode  string    `json:"solution_product_code"`
	LensesOrderDate      time.Time `json:"lenses_order_date"`
	SolutionsOrderDate   time.Time `json:"solutions_order_date"`
	CombinedDeliveryDate time.Time `json:"combined_delivery_date"`
	EstimatedSavingsDays int       `json:"estimated_savings_days"`
	SolutionAdvanced     bool      `json:"solution_advanced"`
	LensDeferred         bool      `json:"lens_deferred"`
}

// BatchSummary reports the per-run counters required by the audit log.
type BatchSummary struct {
	ProductsEvaluated   int            `json:"products_evaluated"`
	ProductsSkipped     map[string]int `json:"products_skipped"`
	ReordersRecommended int            `json:"reorders_recommended"`
	PlansFormed         int            `json:"plans_formed"`
}

// DecisionBatch is the sole output of a daily run.
type DecisionBatch struct {
	RunDate         time.Time               `json:"run_date"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Forecasts       []ForecastResult        `json:"forecasts"`
	Recommendations []ReorderRecommendation `json:"recommendations"`
	Plans           []ConsolidationPlan     `json:"consolidation_plans"`
	Residual        []ReorderRecommendation `json:"residual_recommendations"`
	Summary         BatchSummary            `json:"summary"`
}

// TrackedProduct identifies one product the orchestrator evaluates per run.
type TrackedProduct struct {
	Code     string   `json:"code" db:"code"`
	Name     string   `json:"name" db:"name"`
	Category Category `json:"category" db:"category"`
}
