package neighbors

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// Below this many query rows prediction runs sequentially.
const predictParallelThreshold = 64

// KNNRegressor predicts the mean target of the K nearest training rows.
type KNNRegressor struct {
	model.BaseEstimator

	K         int
	Rows      [][]float64
	Targets   []float64
	NFeatures int
}

// NewKNNRegressor creates an unfitted regressor over k neighbors.
func NewKNNRegressor(k int) *KNNRegressor {
	return &KNNRegressor{K: k}
}

// Fit stores a copy of the training data.
func (kr *KNNRegressor) Fit(X, y mat.Matrix) error {
	if err := validateFit("KNNRegressor.Fit", X, y, kr.K); err != nil {
		return err
	}
	_, c := X.Dims()
	kr.NFeatures = c
	kr.Rows = copyRows(X)
	kr.Targets = copyColumn(y)

	kr.SetFitted()
	return nil
}

// Predict averages the targets of each row's nearest neighbors. Query
// rows are scored in parallel.
func (kr *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !kr.IsFitted() {
		return nil, errors.NewNotFittedError("KNNRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != kr.NFeatures {
		return nil, errors.NewDimensionError("KNNRegressor.Predict", kr.NFeatures, c, 1)
	}

	queries := copyRows(X)
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for _, n := range kNearest(kr.Rows, queries[i], kr.K) {
				sum += kr.Targets[n.row]
			}
			predictions.Set(i, 0, sum/float64(kr.K))
		}
	})
	return predictions, nil
}

// Score returns R² on X against y.
func (kr *KNNRegressor) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := kr.Predict(X)
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
	return metrics.R2Score(yTrueVec, yPredVec)
}
