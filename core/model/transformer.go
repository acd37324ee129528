package model

import "gonum.org/v1/gonum/mat"

// Transformer is a fitted data transformation, e.g. scaling or a power
// transform. Transform must not mutate its input.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
