// internal/forecast/linear.go
package forecast

import (
	"fmt"
	"math"

	"github.com/optistock/replenish/internal/domain"
)

// ridgeLambda keeps the normal equations solvable when features are
// collinear (total_days is constant across rows, for example).
const ridgeLambda = 1e-3

// linearEstimator is an L2-regularized least-squares regression over
// standardized features.
type linearEstimator struct {
	means     []float64
	stds      []float64
	coefs     []float64
	intercept float64
}

func newLinearEstimator() *linearEstimator { return &linearEstimator{} }

func (e *linearEstimator) Kind() domain.EstimatorKind { return domain.EstimatorLinear }

func (e *linearEstimator) Fit(features [][]float64, targets []float64) error {
	n := len(features)
	if n == 0 || n != len(targets) {
		return fmt.Errorf("linear fit: %d rows, %d targets", n, len(targets))
	}
	p := len(features[0])

	e.means = make([]float64, p)
	e.stds = make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += features[i][j]
		}
		e.means[j] = sum / float64(n)

		var sq float64
		for i := 0; i < n; i++ {
			d := features[i][j] - e.means[j]
			sq += d * d
		}
		e.stds[j] = math.Sqrt(sq / float64(n))
		if e.stds[j] == 0 {
			e.stds[j] = 1
		}
	}

	var ySum float64
	for _, y := range targets {
		ySum += y
	}
	e.intercept = ySum / float64(n)

	// Normal equations on standardized, centered data: (Z'Z + λI) β = Z'y.
	z := make([][]float64, n)
	for i := 0; i < n; i++ {
		z[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			z[i][j] = (features[i][j] - e.means[j]) / e.stds[j]
		}
	}

	ztz := make([][]float64, p)
	zty := make([]float64, p)
	for j := 0; j < p; j++ {
		ztz[j] = make([]float64, p)
		for k := 0; k < p; k++ {
			var s float64
			for i := 0; i < n; i++ {
				s += z[i][j] * z[i][k]
			}
			ztz[j][k] = s
		}
		ztz[j][j] += ridgeLambda
		var s float64
		for i := 0; i < n; i++ {
			s += z[i][j] * (targets[i] - e.intercept)
		}
		zty[j] = s
	}

	coefs, err := solveLinearSystem(ztz, zty)
	if err != nil {
		return fmt.Errorf("linear fit: %w", err)
	}
	e.coefs = coefs
	return nil
}

func (e *linearEstimator) Predict(row []float64) float64 {
	pred := e.intercept
	for j, c := range e.coefs {
		pred += c * (row[j] - e.means[j]) / e.stds[j]
	}
	return pred
}

// solveLinearSystem solves Ax = b by Gaussian elimination with partial
// pivoting. A is modified in place.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < n; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, nil
}
