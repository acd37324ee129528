package tree

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// DecisionTreeRegressor is a CART regressor splitting on variance
// reduction.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	Root      *Node
	NFeatures int

	params treeParams
}

// NewDecisionTreeRegressor creates an unfitted regressor.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{params: defaultTreeParams()}
	for _, opt := range opts {
		opt(&t.params)
	}
	return t
}

// Fit grows the tree on X and y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("DecisionTreeRegressor.Fit", X, y); err != nil {
		return err
	}
	r, c := X.Dims()
	t.NFeatures = c

	g := &grower{
		params:  t.params,
		rows:    rowsFromMatrix(X),
		targets: columnFromMatrix(y),
	}
	if t.params.maxFeatures > 0 {
		g.rng = rand.New(rand.NewSource(t.params.seed))
	}
	t.Root = g.build(allIndices(r), 0)

	t.SetFitted()
	return nil
}

// Predict returns the leaf mean for each row.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	predictions := mat.NewDense(r, 1, nil)
	for i, row := range rows {
		predictions.Set(i, 0, t.Root.leafFor(row).Value)
	}
	return predictions, nil
}

// Score returns R² on X against y.
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := t.Predict(X)
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
