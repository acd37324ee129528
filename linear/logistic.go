package linear

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// LogisticRegression is an L2-regularized classifier trained by gradient
// descent. Binary problems get a single weight vector; more classes are
// handled one-vs-rest with softmax-normalized probabilities.
//
// Class labels are float64 because targets arrive ordinal-encoded; the
// original label strings live in the surrounding pipeline.
type LogisticRegression struct {
	model.BaseEstimator

	// Fitted attributes. Coef holds one row per trained classifier:
	// one row for binary problems, one per class for one-vs-rest.
	Coef        [][]float64
	Intercepts  []float64
	ClassLabels []float64
	NFeatures   int
	Iterations  []int

	c       float64
	maxIter int
	tol     float64
	seed    int64
	rng     *rand.Rand
}

// LogisticOption configures a LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithLogisticC sets the inverse regularization strength.
func WithLogisticC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLogisticMaxIter sets the gradient descent iteration cap.
func WithLogisticMaxIter(n int) LogisticOption {
	return func(lr *LogisticRegression) { lr.maxIter = n }
}

// WithLogisticTol sets the gradient norm below which descent stops.
func WithLogisticTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLogisticSeed seeds the weight initializer.
func WithLogisticSeed(seed int64) LogisticOption {
	return func(lr *LogisticRegression) { lr.seed = seed }
}

// NewLogisticRegression creates an unfitted LogisticRegression.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		c:       1.0,
		maxIter: 100,
		tol:     1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.rng = rand.New(rand.NewSource(lr.seed))
	return lr
}

// Fit trains one classifier per decision boundary.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := validateRegressionInputs("LogisticRegression.Fit", X, y); err != nil {
		return err
	}
	_, c := X.Dims()
	lr.NFeatures = c
	lr.extractClasses(y)

	if len(lr.ClassLabels) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "y has a single class; nothing to separate")
	}

	nModels := len(lr.ClassLabels)
	if nModels == 2 {
		nModels = 1
	}
	lr.Coef = make([][]float64, nModels)
	lr.Intercepts = make([]float64, nModels)
	lr.Iterations = make([]int, nModels)
	for m := range lr.Coef {
		lr.Coef[m] = make([]float64, c)
		for j := range lr.Coef[m] {
			lr.Coef[m][j] = lr.rng.NormFloat64() * 0.01
		}
	}

	if len(lr.ClassLabels) == 2 {
		lr.descend(X, lr.binaryTargets(y, lr.ClassLabels[1]), 0)
	} else {
		for classIdx, label := range lr.ClassLabels {
			lr.descend(X, lr.binaryTargets(y, label), classIdx)
		}
	}

	lr.SetFitted()
	return nil
}

// extractClasses records the sorted distinct labels of y.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := map[float64]struct{}{}
	for i := 0; i < rows; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	lr.ClassLabels = make([]float64, 0, len(seen))
	for label := range seen {
		lr.ClassLabels = append(lr.ClassLabels, label)
	}
	sort.Float64s(lr.ClassLabels)
}

// binaryTargets returns 1 where y equals positive, else 0.
func (lr *LogisticRegression) binaryTargets(y mat.Matrix, positive float64) []float64 {
	rows, _ := y.Dims()
	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == positive {
			targets[i] = 1
		}
	}
	return targets
}

// descend runs gradient descent for the model at index m. The learning
// rate decays as 1/(1+0.1*iter); descent stops when the largest gradient
// component falls under tol.
func (lr *LogisticRegression) descend(X mat.Matrix, targets []float64, m int) {
	nSamples, nFeatures := X.Dims()
	weights := lr.Coef[m]
	intercept := &lr.Intercepts[m]
	lambda := 1.0 / lr.c

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - targets[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]
		}
		gradIntercept /= float64(nSamples)

		learningRate := 1.0 / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		*intercept -= learningRate * gradIntercept

		lr.Iterations[m] = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter, ""))
	}
}

// Predict returns the most probable class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < len(lr.ClassLabels); k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, lr.ClassLabels[best])
	}
	return predictions, nil
}

// PredictProba returns class probabilities, one column per class in
// ClassLabels order. Binary uses the sigmoid directly; one-vs-rest
// scores go through a softmax.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures, c, 1)
	}

	nClasses := len(lr.ClassLabels)
	probas := mat.NewDense(r, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < r; i++ {
			p := sigmoid(lr.decision(X, i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	for i := 0; i < r; i++ {
		scores := make([]float64, nClasses)
		maxScore := math.Inf(-1)
		for k := 0; k < nClasses; k++ {
			scores[k] = lr.decision(X, i, k)
			if scores[k] > maxScore {
				maxScore = scores[k]
			}
		}
		sum := 0.0
		for k := range scores {
			scores[k] = math.Exp(scores[k] - maxScore)
			sum += scores[k]
		}
		for k := range scores {
			probas.Set(i, k, scores[k]/sum)
		}
	}
	return probas, nil
}

// Classes returns the labels seen during fitting.
func (lr *LogisticRegression) Classes() []float64 {
	return lr.ClassLabels
}

// Score returns accuracy on X against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
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
	return metrics.Accuracy(yTrueVec, yPredVec)
}

// decision computes the raw score of model m for row i.
func (lr *LogisticRegression) decision(X mat.Matrix, i, m int) float64 {
	z := lr.Intercepts[m]
	for j := 0; j < lr.NFeatures; j++ {
		z += X.At(i, j) * lr.Coef[m][j]
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
