package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// residualFloor stops boosting once the remaining squared error is noise.
const residualFloor = 1e-12

// GradientBoostingRegressor fits shallow CART regressors to the running
// residual under squared loss. The prediction is the target mean plus the
// shrunken sum of tree outputs, so LearningRate is part of the fitted
// state and survives persistence.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	InitScore    float64
	LearningRate float64
	Trees        []*Node
	NFeatures    int

	nEstimators int
	maxDepth    int
	minLeaf     int
}

// GBMOption configures a GradientBoostingRegressor.
type GBMOption func(*GradientBoostingRegressor)

// WithGBMNEstimators sets the boosting round count.
func WithGBMNEstimators(n int) GBMOption {
	return func(g *GradientBoostingRegressor) { g.nEstimators = n }
}

// WithGBMLearningRate sets the shrinkage applied to every tree.
func WithGBMLearningRate(lr float64) GBMOption {
	return func(g *GradientBoostingRegressor) { g.LearningRate = lr }
}

// WithGBMMaxDepth caps the depth of each boosted tree.
func WithGBMMaxDepth(d int) GBMOption {
	return func(g *GradientBoostingRegressor) { g.maxDepth = d }
}

// NewGradientBoostingRegressor creates an unfitted booster with the
// usual defaults: 100 rounds of depth-3 trees shrunk by 0.1.
func NewGradientBoostingRegressor(opts ...GBMOption) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		LearningRate: 0.1,
		nEstimators:  100,
		maxDepth:     3,
		minLeaf:      1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit runs the boosting loop. Each round fits a tree to the current
// residual and folds its shrunken output back into the running score.
// Boosting stops early once the residual collapses.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("GradientBoostingRegressor.Fit", X, y); err != nil {
		return err
	}
	if g.nEstimators < 1 {
		return errors.NewValueError("GradientBoostingRegressor.Fit", "nEstimators must be positive")
	}
	if g.LearningRate <= 0 {
		return errors.NewValueError("GradientBoostingRegressor.Fit", "learning rate must be positive")
	}
	r, c := X.Dims()
	g.NFeatures = c

	rows := rowsFromMatrix(X)
	targets := columnFromMatrix(y)

	g.InitScore = 0
	for _, t := range targets {
		g.InitScore += t
	}
	g.InitScore /= float64(r)

	score := make([]float64, r)
	for i := range score {
		score[i] = g.InitScore
	}
	residual := make([]float64, r)

	params := treeParams{
		maxDepth:        g.maxDepth,
		minSamplesSplit: 2,
		minSamplesLeaf:  g.minLeaf,
	}

	g.Trees = g.Trees[:0]
	idx := allIndices(r)
	for round := 0; round < g.nEstimators; round++ {
		var sse float64
		for i := range residual {
			residual[i] = targets[i] - score[i]
			sse += residual[i] * residual[i]
		}
		if sse/float64(r) < residualFloor {
			break
		}

		gr := &grower{params: params, rows: rows, targets: residual}
		root := gr.build(idx, 0)
		g.Trees = append(g.Trees, root)

		for i, row := range rows {
			score[i] += g.LearningRate * root.leafFor(row).Value
		}
	}

	g.SetFitted()
	return nil
}

// Predict returns the init score plus the shrunken tree sum per row.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != g.NFeatures {
		return nil, errors.NewDimensionError("GradientBoostingRegressor.Predict", g.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	predictions := mat.NewDense(r, 1, nil)
	for i, row := range rows {
		pred := g.InitScore
		for _, root := range g.Trees {
			pred += g.LearningRate * root.leafFor(row).Value
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Score returns R² on X against y.
func (g *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := g.Predict(X)
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
