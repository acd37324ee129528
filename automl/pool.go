package automl

import (
	"fmt"

	"github.com/salecast/salecast/bayes"
	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/linear"
	"github.com/salecast/salecast/neighbors"
	"github.com/salecast/salecast/tree"
)

// Estimator is the fit/predict surface every pool member provides.
type Estimator = model.Estimator

// Probabilistic is implemented by classifiers that expose class
// probabilities alongside hard predictions.
type Probabilistic = model.Probabilistic

// GridPoint is one hyperparameter configuration explored during tuning.
type GridPoint struct {
	Desc string
	New  func() Estimator
}

// Candidate is one model family in the comparison pool. New builds a
// fresh unfitted estimator with default hyperparameters; Grid holds the
// configurations tuning may try instead.
type Candidate struct {
	ID   string
	Name string
	New  func() Estimator
	Grid []GridPoint
}

// regressionPool returns the regression candidates in comparison order.
func regressionPool(seed int64) []Candidate {
	return []Candidate{
		{
			ID:   "lr",
			Name: "Linear Regression",
			New:  func() Estimator { return linear.NewLinearRegression() },
			// Ordinary least squares has nothing to tune.
		},
		{
			ID:   "ridge",
			Name: "Ridge Regression",
			New:  func() Estimator { return linear.NewRidge(1.0) },
			Grid: ridgeGrid(),
		},
		{
			ID:   "knn",
			Name: "K Neighbors Regressor",
			New:  func() Estimator { return neighbors.NewKNNRegressor(5) },
			Grid: knnRegressorGrid(),
		},
		{
			ID:   "dt",
			Name: "Decision Tree Regressor",
			New:  func() Estimator { return tree.NewDecisionTreeRegressor() },
			Grid: treeRegressorGrid(),
		},
		{
			ID:   "rf",
			Name: "Random Forest Regressor",
			New: func() Estimator {
				return tree.NewRandomForestRegressor(tree.WithForestSeed(seed))
			},
			Grid: forestRegressorGrid(seed),
		},
		{
			ID:   "gbr",
			Name: "Gradient Boosting Regressor",
			New:  func() Estimator { return tree.NewGradientBoostingRegressor() },
			Grid: gbmGrid(),
		},
	}
}

// classificationPool returns the classification candidates in
// comparison order.
func classificationPool(seed int64) []Candidate {
	return []Candidate{
		{
			ID:   "lr",
			Name: "Logistic Regression",
			New: func() Estimator {
				return linear.NewLogisticRegression(linear.WithLogisticSeed(seed))
			},
			Grid: logisticGrid(seed),
		},
		{
			ID:   "knn",
			Name: "K Neighbors Classifier",
			New:  func() Estimator { return neighbors.NewKNNClassifier(5) },
			Grid: knnClassifierGrid(),
		},
		{
			ID:   "dt",
			Name: "Decision Tree Classifier",
			New:  func() Estimator { return tree.NewDecisionTreeClassifier() },
			Grid: treeClassifierGrid(),
		},
		{
			ID:   "rf",
			Name: "Random Forest Classifier",
			New: func() Estimator {
				return tree.NewRandomForestClassifier(tree.WithForestSeed(seed))
			},
			Grid: forestClassifierGrid(seed),
		},
		{
			ID:   "nb",
			Name: "Naive Bayes",
			New:  func() Estimator { return bayes.NewGaussianNB() },
			// Gaussian NB has nothing to tune.
		},
	}
}

func ridgeGrid() []GridPoint {
	alphas := []float64{0.01, 0.1, 1, 10, 100}
	grid := make([]GridPoint, 0, len(alphas))
	for _, alpha := range alphas {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("alpha=%g", alpha),
			New:  func() Estimator { return linear.NewRidge(alpha) },
		})
	}
	return grid
}

func knnRegressorGrid() []GridPoint {
	ks := []int{3, 5, 7, 9, 11}
	grid := make([]GridPoint, 0, len(ks))
	for _, k := range ks {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("k=%d", k),
			New:  func() Estimator { return neighbors.NewKNNRegressor(k) },
		})
	}
	return grid
}

func knnClassifierGrid() []GridPoint {
	ks := []int{3, 5, 7, 9, 11}
	grid := make([]GridPoint, 0, len(ks))
	for _, k := range ks {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("k=%d", k),
			New:  func() Estimator { return neighbors.NewKNNClassifier(k) },
		})
	}
	return grid
}

// treeConfigs pairs a depth cap with a leaf size; depth 0 grows the
// tree until leaves are pure.
var treeConfigs = []struct {
	depth, leaf int
}{
	{3, 1}, {5, 1}, {8, 1}, {12, 1}, {5, 5}, {8, 5},
}

func treeRegressorGrid() []GridPoint {
	grid := make([]GridPoint, 0, len(treeConfigs))
	for _, cfg := range treeConfigs {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("depth=%d,leaf=%d", cfg.depth, cfg.leaf),
			New: func() Estimator {
				return tree.NewDecisionTreeRegressor(
					tree.WithMaxDepth(cfg.depth),
					tree.WithMinSamplesLeaf(cfg.leaf),
				)
			},
		})
	}
	return grid
}

func treeClassifierGrid() []GridPoint {
	grid := make([]GridPoint, 0, len(treeConfigs))
	for _, cfg := range treeConfigs {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("depth=%d,leaf=%d", cfg.depth, cfg.leaf),
			New: func() Estimator {
				return tree.NewDecisionTreeClassifier(
					tree.WithMaxDepth(cfg.depth),
					tree.WithMinSamplesLeaf(cfg.leaf),
				)
			},
		})
	}
	return grid
}

// forestConfigs pairs an ensemble size with a depth cap; depth 0 grows
// full trees.
var forestConfigs = []struct {
	trees, depth int
}{
	{50, 0}, {100, 0}, {200, 0}, {50, 8}, {100, 8}, {200, 8},
}

func forestRegressorGrid(seed int64) []GridPoint {
	grid := make([]GridPoint, 0, len(forestConfigs))
	for _, cfg := range forestConfigs {
		grid = append(grid, GridPoint{
			Desc: forestDesc(cfg.trees, cfg.depth),
			New: func() Estimator {
				return tree.NewRandomForestRegressor(
					tree.WithNEstimators(cfg.trees),
					tree.WithForestMaxDepth(cfg.depth),
					tree.WithForestSeed(seed),
				)
			},
		})
	}
	return grid
}

func forestClassifierGrid(seed int64) []GridPoint {
	grid := make([]GridPoint, 0, len(forestConfigs))
	for _, cfg := range forestConfigs {
		grid = append(grid, GridPoint{
			Desc: forestDesc(cfg.trees, cfg.depth),
			New: func() Estimator {
				return tree.NewRandomForestClassifier(
					tree.WithNEstimators(cfg.trees),
					tree.WithForestMaxDepth(cfg.depth),
					tree.WithForestSeed(seed),
				)
			},
		})
	}
	return grid
}

func forestDesc(trees, depth int) string {
	if depth == 0 {
		return fmt.Sprintf("trees=%d", trees)
	}
	return fmt.Sprintf("trees=%d,depth=%d", trees, depth)
}

func gbmGrid() []GridPoint {
	rates := []float64{0.05, 0.1, 0.2}
	sizes := []int{100, 200}
	grid := make([]GridPoint, 0, len(rates)*len(sizes))
	for _, lr := range rates {
		for _, n := range sizes {
			grid = append(grid, GridPoint{
				Desc: fmt.Sprintf("lr=%g,trees=%d", lr, n),
				New: func() Estimator {
					return tree.NewGradientBoostingRegressor(
						tree.WithGBMLearningRate(lr),
						tree.WithGBMNEstimators(n),
					)
				},
			})
		}
	}
	return grid
}

func logisticGrid(seed int64) []GridPoint {
	cs := []float64{0.1, 1, 10}
	grid := make([]GridPoint, 0, len(cs))
	for _, c := range cs {
		grid = append(grid, GridPoint{
			Desc: fmt.Sprintf("C=%g", c),
			New: func() Estimator {
				return linear.NewLogisticRegression(
					linear.WithLogisticC(c),
					linear.WithLogisticMaxIter(300),
					linear.WithLogisticSeed(seed),
				)
			},
		})
	}
	return grid
}
