package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// Ridge is least squares with an L2 penalty on the coefficients. The
// penalty keeps the normal equations solvable even for collinear
// features, which ordinary LinearRegression rejects as singular.
type Ridge struct {
	model.BaseEstimator

	Alpha     float64
	Weights   []float64
	Intercept float64
	NFeatures int
}

// NewRidge creates an unfitted Ridge with the given penalty strength.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// Fit solves the penalized normal equations. The intercept is not
// penalized, matching the usual ridge formulation.
func (rg *Ridge) Fit(X, y mat.Matrix) error {
	if rg.Alpha < 0 {
		return errors.NewValueError("Ridge.Fit", "alpha must be non-negative")
	}
	if err := validateRegressionInputs("Ridge.Fit", X, y); err != nil {
		return err
	}
	_, c := X.Dims()
	rg.NFeatures = c

	weights, err := solveNormalEquations("Ridge.Fit", interceptAugmented(X), y, rg.Alpha)
	if err != nil {
		return err
	}

	rg.Intercept = weights[0]
	rg.Weights = weights[1:]

	rg.SetFitted()
	return nil
}

// Predict returns X*w + intercept as a column vector.
func (rg *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rg.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}

	r, c := X.Dims()
	if c != rg.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", rg.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := rg.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * rg.Weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// GetWeights returns the learned coefficients.
func (rg *Ridge) GetWeights() []float64 {
	return rg.Weights
}

// GetIntercept returns the learned intercept.
func (rg *Ridge) GetIntercept() float64 {
	return rg.Intercept
}

// Score returns R² on X against y.
func (rg *Ridge) Score(X, y mat.Matrix) (float64, error) {
	if !rg.IsFitted() {
		return 0, errors.NewNotFittedError("Ridge", "Score")
	}
	yPred, err := rg.Predict(X)
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
