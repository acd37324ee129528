package tree

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// forestParams wraps per-tree growth limits with the ensemble size.
type forestParams struct {
	nEstimators int
	tree        treeParams
}

func defaultForestParams() forestParams {
	return forestParams{nEstimators: 100, tree: defaultTreeParams()}
}

// ForestOption configures a random forest.
type ForestOption func(*forestParams)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(p *forestParams) { p.nEstimators = n }
}

// WithForestMaxDepth caps the depth of every tree; 0 leaves it unlimited.
func WithForestMaxDepth(d int) ForestOption {
	return func(p *forestParams) { p.tree.maxDepth = d }
}

// WithForestMaxFeatures limits per-split feature sampling. 0 keeps the
// task default: all features for regression, sqrt for classification.
func WithForestMaxFeatures(k int) ForestOption {
	return func(p *forestParams) { p.tree.maxFeatures = k }
}

// WithForestMinSamplesLeaf sets the minimum samples each leaf must keep.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(p *forestParams) { p.tree.minSamplesLeaf = n }
}

// WithForestSeed seeds bootstrap sampling and feature subsampling. Tree
// i derives its own generator from seed+i, so results do not depend on
// build scheduling.
func WithForestSeed(seed int64) ForestOption {
	return func(p *forestParams) { p.tree.seed = seed }
}

// RandomForestRegressor averages bootstrap-trained CART regressors.
type RandomForestRegressor struct {
	model.BaseEstimator

	Trees     []*Node
	NFeatures int

	params forestParams
}

// NewRandomForestRegressor creates an unfitted forest.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	f := &RandomForestRegressor{params: defaultForestParams()}
	for _, opt := range opts {
		opt(&f.params)
	}
	return f
}

// Fit grows the ensemble. Trees build in parallel, each on its own
// bootstrap sample.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("RandomForestRegressor.Fit", X, y); err != nil {
		return err
	}
	if f.params.nEstimators < 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "nEstimators must be positive")
	}
	r, c := X.Dims()
	f.NFeatures = c

	rows := rowsFromMatrix(X)
	targets := columnFromMatrix(y)

	f.Trees = make([]*Node, f.params.nEstimators)
	parallel.Parallelize(f.params.nEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewSource(f.params.tree.seed + int64(t)))
			g := &grower{
				params:  f.params.tree,
				rows:    rows,
				targets: targets,
				rng:     rng,
			}
			f.Trees[t] = g.build(bootstrapIndices(rng, r), 0)
		}
	})

	f.SetFitted()
	return nil
}

// Predict averages the leaf means across trees.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", f.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	predictions := mat.NewDense(r, 1, nil)
	for i, row := range rows {
		sum := 0.0
		for _, root := range f.Trees {
			sum += root.leafFor(row).Value
		}
		predictions.Set(i, 0, sum/float64(len(f.Trees)))
	}
	return predictions, nil
}

// Score returns R² on X against y.
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := f.Predict(X)
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

// RandomForestClassifier soft-votes bootstrap-trained CART classifiers:
// leaf distributions are averaged across trees before taking the argmax.
type RandomForestClassifier struct {
	model.BaseEstimator

	Trees       []*Node
	ClassLabels []float64
	NFeatures   int

	params forestParams
}

// NewRandomForestClassifier creates an unfitted forest.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	f := &RandomForestClassifier{params: defaultForestParams()}
	for _, opt := range opts {
		opt(&f.params)
	}
	return f
}

// Fit grows the ensemble. Unless overridden, each split samples sqrt(p)
// features.
func (f *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("RandomForestClassifier.Fit", X, y); err != nil {
		return err
	}
	if f.params.nEstimators < 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "nEstimators must be positive")
	}
	r, c := X.Dims()
	f.NFeatures = c

	rows := rowsFromMatrix(X)
	labels := columnFromMatrix(y)
	f.ClassLabels = distinctSorted(labels)

	indexOf := make(map[float64]int, len(f.ClassLabels))
	for k, label := range f.ClassLabels {
		indexOf[label] = k
	}
	targets := make([]float64, len(labels))
	for i, label := range labels {
		targets[i] = float64(indexOf[label])
	}

	params := f.params.tree
	if params.maxFeatures == 0 {
		params.maxFeatures = sqrtFeatures(c)
	}

	f.Trees = make([]*Node, f.params.nEstimators)
	parallel.Parallelize(f.params.nEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewSource(params.seed + int64(t)))
			g := &grower{
				params:   params,
				rows:     rows,
				targets:  targets,
				nClasses: len(f.ClassLabels),
				rng:      rng,
			}
			f.Trees[t] = g.build(bootstrapIndices(rng, r), 0)
		}
	})

	f.SetFitted()
	return nil
}

// Predict returns the label with the highest averaged probability.
func (f *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < len(f.ClassLabels); k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, f.ClassLabels[best])
	}
	return predictions, nil
}

// PredictProba averages leaf distributions across trees.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", f.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	probas := mat.NewDense(r, len(f.ClassLabels), nil)
	for i, row := range rows {
		for _, root := range f.Trees {
			leaf := root.leafFor(row)
			for k, p := range leaf.Proba {
				probas.Set(i, k, probas.At(i, k)+p)
			}
		}
		for k := 0; k < len(f.ClassLabels); k++ {
			probas.Set(i, k, probas.At(i, k)/float64(len(f.Trees)))
		}
	}
	return probas, nil
}

// Classes returns the labels seen during fitting.
func (f *RandomForestClassifier) Classes() []float64 {
	return f.ClassLabels
}

// Score returns accuracy on X against y.
func (f *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := f.Predict(X)
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

// bootstrapIndices samples n row indices with replacement.
func bootstrapIndices(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
