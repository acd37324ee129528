package tree

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// DecisionTreeClassifier is a CART classifier splitting on Gini impurity.
// Leaf probabilities are class frequencies, ordered by ClassLabels.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	Root        *Node
	ClassLabels []float64
	NFeatures   int

	params treeParams
}

// NewDecisionTreeClassifier creates an unfitted classifier.
func NewDecisionTreeClassifier(opts ...TreeOption) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{params: defaultTreeParams()}
	for _, opt := range opts {
		opt(&t.params)
	}
	return t
}

// Fit grows the tree on X and y. Targets are remapped to class indices
// internally; leaves store distributions over the sorted label set.
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("DecisionTreeClassifier.Fit", X, y); err != nil {
		return err
	}
	r, c := X.Dims()
	t.NFeatures = c

	labels := columnFromMatrix(y)
	t.ClassLabels = distinctSorted(labels)

	indexOf := make(map[float64]int, len(t.ClassLabels))
	for k, label := range t.ClassLabels {
		indexOf[label] = k
	}
	targets := make([]float64, len(labels))
	for i, label := range labels {
		targets[i] = float64(indexOf[label])
	}

	g := &grower{
		params:   t.params,
		rows:     rowsFromMatrix(X),
		targets:  targets,
		nClasses: len(t.ClassLabels),
	}
	if t.params.maxFeatures > 0 {
		g.rng = rand.New(rand.NewSource(t.params.seed))
	}
	t.Root = g.build(allIndices(r), 0)

	t.SetFitted()
	return nil
}

// Predict returns the majority class label for each row.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", t.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	predictions := mat.NewDense(r, 1, nil)
	for i, row := range rows {
		leaf := t.Root.leafFor(row)
		predictions.Set(i, 0, t.ClassLabels[int(leaf.Value)])
	}
	return predictions, nil
}

// PredictProba returns leaf class frequencies, one column per label in
// ClassLabels order.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.NFeatures, c, 1)
	}

	rows := rowsFromMatrix(X)
	probas := mat.NewDense(r, len(t.ClassLabels), nil)
	for i, row := range rows {
		leaf := t.Root.leafFor(row)
		for k, p := range leaf.Proba {
			probas.Set(i, k, p)
		}
	}
	return probas, nil
}

// Classes returns the labels seen during fitting.
func (t *DecisionTreeClassifier) Classes() []float64 {
	return t.ClassLabels
}

// Score returns accuracy on X against y.
func (t *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
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
	return metrics.Accuracy(yTrueVec, yPredVec)
}

// distinctSorted returns the sorted distinct values of labels.
func distinctSorted(labels []float64) []float64 {
	seen := map[float64]struct{}{}
	for _, label := range labels {
		seen[label] = struct{}{}
	}
	out := make([]float64, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Float64s(out)
	return out
}
