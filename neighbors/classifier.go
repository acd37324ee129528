package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// KNNClassifier votes among the K nearest training rows. Probabilities
// are vote fractions; vote ties resolve to the smallest label.
type KNNClassifier struct {
	model.BaseEstimator

	K           int
	Rows        [][]float64
	Targets     []float64
	ClassLabels []float64
	NFeatures   int
}

// NewKNNClassifier creates an unfitted classifier over k neighbors.
func NewKNNClassifier(k int) *KNNClassifier {
	return &KNNClassifier{K: k}
}

// Fit stores a copy of the training data and records the label set.
func (kc *KNNClassifier) Fit(X, y mat.Matrix) error {
	if err := validateFit("KNNClassifier.Fit", X, y, kc.K); err != nil {
		return err
	}
	_, c := X.Dims()
	kc.NFeatures = c
	kc.Rows = copyRows(X)
	kc.Targets = copyColumn(y)

	seen := map[float64]struct{}{}
	for _, label := range kc.Targets {
		seen[label] = struct{}{}
	}
	kc.ClassLabels = make([]float64, 0, len(seen))
	for label := range seen {
		kc.ClassLabels = append(kc.ClassLabels, label)
	}
	sort.Float64s(kc.ClassLabels)

	kc.SetFitted()
	return nil
}

// Predict returns the majority label among each row's neighbors.
func (kc *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := kc.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < len(kc.ClassLabels); k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, kc.ClassLabels[best])
	}
	return predictions, nil
}

// PredictProba returns neighbor vote fractions, one column per label in
// ClassLabels order. Query rows are scored in parallel.
func (kc *KNNClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !kc.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != kc.NFeatures {
		return nil, errors.NewDimensionError("KNNClassifier.PredictProba", kc.NFeatures, c, 1)
	}

	indexOf := make(map[float64]int, len(kc.ClassLabels))
	for k, label := range kc.ClassLabels {
		indexOf[label] = k
	}

	queries := copyRows(X)
	probas := mat.NewDense(r, len(kc.ClassLabels), nil)
	parallel.ParallelizeWithThreshold(r, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for _, n := range kNearest(kc.Rows, queries[i], kc.K) {
				k := indexOf[kc.Targets[n.row]]
				probas.Set(i, k, probas.At(i, k)+1)
			}
			for k := 0; k < len(kc.ClassLabels); k++ {
				probas.Set(i, k, probas.At(i, k)/float64(kc.K))
			}
		}
	})
	return probas, nil
}

// Classes returns the labels seen during fitting.
func (kc *KNNClassifier) Classes() []float64 {
	return kc.ClassLabels
}

// Score returns accuracy on X against y.
func (kc *KNNClassifier) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := kc.Predict(X)
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
