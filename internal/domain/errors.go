// internal/domain/errors.go
package domain

import "errors"

// Error kinds of the decision engine. Every failure is scoped to a single
// product; none aborts the batch.
var (
	// ErrInsufficientData means the series is too short for a trustworthy forecast.
	ErrInsufficientData = errors.New("insufficient historical data")

	// ErrInvalidSeries means the series is malformed: non-monotonic dates,
	// duplicate dates, or negative stock/sales.
	ErrInvalidSeries = errors.New("invalid consumption series")

	// ErrNoRuleFound means no packaging rule matches the product.
	ErrNoRuleFound = errors.New("no product rule found")
)

// Skip kinds used in BatchSummary.ProductsSkipped.
const (
	SkipInsufficientData = "insufficient_data"
	SkipInvalidSeries    = "invalid_series"
	SkipNoRule           = "no_rule"
	SkipOther            = "other"
)

// SkipKind classifies a per-product error for the batch summary.
func SkipKind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return SkipInsufficientData
	case errors.Is(err, ErrInvalidSeries):
		return SkipInvalidSeries
	case errors.Is(err, ErrNoRuleFound):
		return SkipNoRule
	default:
		return SkipOther
	}
}
