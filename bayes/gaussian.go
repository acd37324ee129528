// Package bayes implements Gaussian naive Bayes classification. Each
// feature is modeled as an independent normal per class; with standardized
// inputs that assumption holds up well enough to earn the model its slot
// in the candidate pool.
package bayes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// varSmoothingRatio scales the largest feature variance into the floor
// added to every class variance, keeping log densities finite for
// constant features.
const varSmoothingRatio = 1e-9

// GaussianNB fits one normal distribution per class and feature.
type GaussianNB struct {
	model.BaseEstimator

	ClassLabels []float64
	Priors      []float64
	Means       [][]float64
	Variances   [][]float64
	NFeatures   int
}

// NewGaussianNB creates an unfitted GaussianNB.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{}
}

// Fit estimates per-class priors, means, and smoothed variances.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GaussianNB.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("GaussianNB.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("GaussianNB.Fit", "y must be a column vector")
	}
	nb.NFeatures = c

	labels := make([]float64, r)
	seen := map[float64]struct{}{}
	for i := 0; i < r; i++ {
		labels[i] = y.At(i, 0)
		seen[labels[i]] = struct{}{}
	}
	nb.ClassLabels = make([]float64, 0, len(seen))
	for label := range seen {
		nb.ClassLabels = append(nb.ClassLabels, label)
	}
	sort.Float64s(nb.ClassLabels)

	indexOf := make(map[float64]int, len(nb.ClassLabels))
	for k, label := range nb.ClassLabels {
		indexOf[label] = k
	}

	nClasses := len(nb.ClassLabels)
	counts := make([]int, nClasses)
	nb.Priors = make([]float64, nClasses)
	nb.Means = zeros(nClasses, c)
	nb.Variances = zeros(nClasses, c)

	for i := 0; i < r; i++ {
		k := indexOf[labels[i]]
		counts[k]++
		for j := 0; j < c; j++ {
			nb.Means[k][j] += X.At(i, j)
		}
	}
	for k := 0; k < nClasses; k++ {
		for j := 0; j < c; j++ {
			nb.Means[k][j] /= float64(counts[k])
		}
		nb.Priors[k] = float64(counts[k]) / float64(r)
	}

	for i := 0; i < r; i++ {
		k := indexOf[labels[i]]
		for j := 0; j < c; j++ {
			d := X.At(i, j) - nb.Means[k][j]
			nb.Variances[k][j] += d * d
		}
	}

	// Smooth with a fraction of the largest overall feature variance so
	// zero-variance features keep a usable density.
	smoothing := varSmoothingRatio * maxFeatureVariance(X)
	if smoothing <= 0 {
		smoothing = varSmoothingRatio
	}
	for k := 0; k < nClasses; k++ {
		for j := 0; j < c; j++ {
			nb.Variances[k][j] = nb.Variances[k][j]/float64(counts[k]) + smoothing
		}
	}

	nb.SetFitted()
	return nil
}

// Predict returns the label with the highest posterior per row.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := nb.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < len(nb.ClassLabels); k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, nb.ClassLabels[best])
	}
	return predictions, nil
}

// PredictProba returns normalized posteriors, one column per label in
// ClassLabels order. Log joints are shifted by their max before
// exponentiating to stay in range.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !nb.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "PredictProba")
	}
	r, c := X.Dims()
	if c != nb.NFeatures {
		return nil, errors.NewDimensionError("GaussianNB.PredictProba", nb.NFeatures, c, 1)
	}

	nClasses := len(nb.ClassLabels)
	probas := mat.NewDense(r, nClasses, nil)
	joint := make([]float64, nClasses)

	for i := 0; i < r; i++ {
		maxJoint := math.Inf(-1)
		for k := 0; k < nClasses; k++ {
			ll := math.Log(nb.Priors[k])
			for j := 0; j < c; j++ {
				v := nb.Variances[k][j]
				d := X.At(i, j) - nb.Means[k][j]
				ll += -0.5*math.Log(2*math.Pi*v) - d*d/(2*v)
			}
			joint[k] = ll
			if ll > maxJoint {
				maxJoint = ll
			}
		}

		sum := 0.0
		for k := 0; k < nClasses; k++ {
			joint[k] = math.Exp(joint[k] - maxJoint)
			sum += joint[k]
		}
		for k := 0; k < nClasses; k++ {
			probas.Set(i, k, joint[k]/sum)
		}
	}
	return probas, nil
}

// Classes returns the labels seen during fitting.
func (nb *GaussianNB) Classes() []float64 {
	return nb.ClassLabels
}

// Score returns accuracy on X against y.
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrueVec, err := metrics.ColumnVec(y)
	if err != nil {
		return 0, err
	}
	yPredVec, err := metrics.ColumnVec(yPred)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(yTrueVec, yPredVec)
}

func zeros(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

// maxFeatureVariance is the largest per-feature variance over all rows.
func maxFeatureVariance(X mat.Matrix) float64 {
	r, c := X.Dims()
	maxVar := 0.0
	for j := 0; j < c; j++ {
		var sum, sumSq float64
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(r)
		if v := sumSq/float64(r) - mean*mean; v > maxVar {
			maxVar = v
		}
	}
	return maxVar
}
