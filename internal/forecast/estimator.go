// internal/forecast/estimator.go
package forecast

import "github.com/optistock/replenish/internal/domain"

// estimator is one demand model of the ensemble. Fit trains on feature rows
// and targets; Predict scores a single row.
type estimator interface {
	Kind() domain.EstimatorKind
	Fit(features [][]float64, targets []float64) error
	Predict(row []float64) float64
}

// rSquared is the in-sample coefficient of determination, floored at zero.
// A constant target has no explainable variance and scores zero, which
// pushes flat series onto the fallback path.
func rSquared(targets, predictions []float64) float64 {
	if len(targets) == 0 || len(targets) != len(predictions) {
		return 0
	}

	var mean float64
	for _, y := range targets {
		mean += y
	}
	mean /= float64(len(targets))

	var ssRes, ssTot float64
	for i, y := range targets {
		d := y - predictions[i]
		ssRes += d * d
		m := y - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		return 0
	}

	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	return r2
}
