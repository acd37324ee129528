package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains the model on features X and targets y.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can predict.
type Predictor interface {
	// Predict returns one prediction row per input row.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is the contract every pool candidate satisfies.
type Estimator interface {
	Fitter
	Predictor
}

// Scorer is a model that can score itself against targets. Regressors
// return R², classifiers return accuracy.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Probabilistic is a classifier that exposes class probabilities.
type Probabilistic interface {
	// PredictProba returns an (n_samples, n_classes) matrix of
	// probabilities in the order of Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the class labels seen during fitting.
	Classes() []float64
}

// LinearModel is the extra surface of linear estimators.
type LinearModel interface {
	// GetWeights returns the learned coefficients.
	GetWeights() []float64
	// GetIntercept returns the learned intercept.
	GetIntercept() float64
	Scorer
}
