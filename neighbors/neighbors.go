// Package neighbors implements k-nearest-neighbor estimators. Fit is
// lazy: the training matrix is stored and every prediction scans it,
// which is the right trade for the row counts this module targets.
package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

// neighbor pairs a squared distance with the training row index.
type neighbor struct {
	dist float64
	row  int
}

// kNearest returns the k training rows closest to x, nearest first.
// Equal distances break by row index so predictions are deterministic.
func kNearest(train [][]float64, x []float64, k int) []neighbor {
	nearest := make([]neighbor, 0, k+1)
	for j, row := range train {
		n := neighbor{dist: euclidSquared(x, row), row: j}
		if len(nearest) == k && !closer(n, nearest[len(nearest)-1]) {
			continue
		}
		nearest = append(nearest, n)
		sort.Slice(nearest, func(a, b int) bool { return closer(nearest[a], nearest[b]) })
		if len(nearest) > k {
			nearest = nearest[:k]
		}
	}
	return nearest
}

func closer(a, b neighbor) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.row < b.row
}

// euclidSquared is the squared Euclidean distance; ordering neighbors
// does not need the square root.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// copyRows snapshots X so later mutation of the caller's matrix cannot
// change the fitted model.
func copyRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

func copyColumn(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = y.At(i, 0)
	}
	return out
}

// validateFit checks shapes and that k neighbors exist to query.
func validateFit(op string, X, y mat.Matrix, k int) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	if k < 1 {
		return errors.NewValueError(op, "k must be positive")
	}
	if k > r {
		return errors.NewValueError(op, "k exceeds the number of training samples")
	}
	return nil
}
