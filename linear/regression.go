// Package linear implements the linear members of the candidate pool:
// ordinary least squares, ridge regression, and logistic regression.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// LinearRegression fits ordinary least squares via the normal equations
// w = (X^T X)^-1 X^T y. Fitted attributes are plain slices so the model
// survives gob round trips inside a persisted pipeline.
type LinearRegression struct {
	model.BaseEstimator

	Weights   []float64
	Intercept float64
	NFeatures int
}

// NewLinearRegression creates an unfitted LinearRegression.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit solves the normal equations for X and y.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	if err := validateRegressionInputs("LinearRegression.Fit", X, y); err != nil {
		return err
	}
	_, c := X.Dims()
	lr.NFeatures = c

	weights, err := solveNormalEquations("LinearRegression.Fit", interceptAugmented(X), y, 0)
	if err != nil {
		return err
	}

	lr.Intercept = weights[0]
	lr.Weights = weights[1:]

	lr.SetFitted()
	return nil
}

// Predict returns X*w + intercept as a column vector.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// GetWeights returns the learned coefficients.
func (lr *LinearRegression) GetWeights() []float64 {
	return lr.Weights
}

// GetIntercept returns the learned intercept.
func (lr *LinearRegression) GetIntercept() float64 {
	return lr.Intercept
}

// Score returns R² on X against y.
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	yPred, err := lr.Predict(X)
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

// validateRegressionInputs checks the shared shape requirements for fitting.
func validateRegressionInputs(op string, X, y mat.Matrix) error {
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
	return nil
}

// interceptAugmented prepends a column of ones to X.
func interceptAugmented(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	augmented := mat.NewDense(r, c+1, nil)

	// Below this many rows the copy runs sequentially.
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			augmented.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				augmented.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return augmented
}

// solveNormalEquations computes (A^T A + alpha*I)^-1 A^T y for the
// intercept-augmented matrix A. The intercept column is never penalized.
func solveNormalEquations(op string, augmented *mat.Dense, y mat.Matrix, alpha float64) ([]float64, error) {
	r, cols := augmented.Dims()

	var at mat.Dense
	at.CloneFrom(augmented.T())

	var ata mat.Dense
	ata.Mul(&at, augmented)

	if alpha > 0 {
		for j := 1; j < cols; j++ {
			ata.Set(j, j, ata.At(j, j)+alpha)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, errors.NewModelError(op, "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var aty mat.VecDense
	aty.MulVec(&at, yVec)

	var solved mat.VecDense
	solved.MulVec(&inv, &aty)

	weights := make([]float64, cols)
	for i := range weights {
		weights[i] = solved.AtVec(i)
	}
	return weights, nil
}
