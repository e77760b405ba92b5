// internal/forecast/forest.go
package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/optistock/replenish/internal/domain"
)

const (
	forestTrees    = 50
	forestMaxDepth = 4
	forestMinLeaf  = 5
)

// forestEstimator is a bagged ensemble of regression trees. All randomness
// (bootstrap sampling, feature subsets) is drawn from a single seeded source
// so repeated fits over the same data are bit-for-bit reproducible.
type forestEstimator struct {
	seed  int64
	trees []*treeNode
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func newForestEstimator(seed int64) *forestEstimator {
	return &forestEstimator{seed: seed}
}

func (e *forestEstimator) Kind() domain.EstimatorKind { return domain.EstimatorForest }

func (e *forestEstimator) Fit(features [][]float64, targets []float64) error {
	n := len(features)
	if n == 0 || n != len(targets) {
		return fmt.Errorf("forest fit: %d rows, %d targets", n, len(targets))
	}

	rng := rand.New(rand.NewSource(e.seed))
	p := len(features[0])
	subset := int(math.Sqrt(float64(p))) + 1

	e.trees = make([]*treeNode, 0, forestTrees)
	for t := 0; t < forestTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		e.trees = append(e.trees, growTree(features, targets, idx, subset, 0, rng))
	}
	return nil
}

func (e *forestEstimator) Predict(row []float64) float64 {
	var sum float64
	for _, t := range e.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(e.trees))
}

func (t *treeNode) predict(row []float64) float64 {
	for !t.leaf {
		if row[t.feature] <= t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.value
}

func growTree(features [][]float64, targets []float64, idx []int, subset, depth int, rng *rand.Rand) *treeNode {
	if depth >= forestMaxDepth || len(idx) < 2*forestMinLeaf {
		return leafNode(targets, idx)
	}

	feature, threshold, ok := bestSplit(features, targets, idx, subset, rng)
	if !ok {
		return leafNode(targets, idx)
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < forestMinLeaf || len(right) < forestMinLeaf {
		return leafNode(targets, idx)
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(features, targets, left, subset, depth+1, rng),
		right:     growTree(features, targets, right, subset, depth+1, rng),
	}
}

func leafNode(targets []float64, idx []int) *treeNode {
	var sum float64
	for _, i := range idx {
		sum += targets[i]
	}
	return &treeNode{leaf: true, value: sum / float64(len(idx))}
}

// bestSplit scans a random feature subset and midpoint thresholds for the
// split minimizing the summed squared error of the two children.
func bestSplit(features [][]float64, targets []float64, idx []int, subset int, rng *rand.Rand) (int, float64, bool) {
	p := len(features[0])
	candidates := rng.Perm(p)[:subset]

	bestErr := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, 0, len(idx))
	for _, f := range candidates {
		values = values[:0]
		for _, i := range idx {
			values = append(values, features[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2
			err := splitError(features, targets, idx, f, threshold)
			if err < bestErr {
				bestErr = err
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func splitError(features [][]float64, targets []float64, idx []int, feature int, threshold float64) float64 {
	var lSum, lSq, rSum, rSq float64
	var lN, rN float64
	for _, i := range idx {
		y := targets[i]
		if features[i][feature] <= threshold {
			lSum += y
			lSq += y * y
			lN++
		} else {
			rSum += y
			rSq += y * y
			rN++
		}
	}
	if lN == 0 || rN == 0 {
		return math.Inf(1)
	}
	// SSE = Σy² − (Σy)²/n per side.
	return (lSq - lSum*lSum/lN) + (rSq - rSum*rSum/rN)
}
