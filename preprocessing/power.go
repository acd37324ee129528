package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/pkg/errors"
)

const lambdaEps = 1e-8

// PowerTransformer applies the Yeo-Johnson transformation per feature to
// make skewed distributions more Gaussian. The per-feature lambda is chosen
// by maximizing the Yeo-Johnson log-likelihood over a grid; the training
// pipeline enables it for regression targets' feature matrices only.
type PowerTransformer struct {
	model.BaseEstimator

	// Lambdas holds the fitted exponent per feature.
	Lambdas []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// NewPowerTransformer creates an unfitted PowerTransformer.
func NewPowerTransformer() *PowerTransformer {
	return &PowerTransformer{}
}

// Fit selects the lambda for each feature. Columns are searched
// independently and in parallel.
func (p *PowerTransformer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PowerTransformer.Fit", "empty data", errors.ErrEmptyData)
	}

	p.NFeatures = c
	p.Lambdas = make([]float64, c)

	parallel.ParallelizeWithThreshold(c, 4, func(start, end int) {
		column := make([]float64, r)
		for j := start; j < end; j++ {
			for i := 0; i < r; i++ {
				column[i] = X.At(i, j)
			}
			p.Lambdas[j] = optimizeLambda(column)
		}
	})

	p.SetFitted()
	return nil
}

// Transform applies the fitted transformation to X.
func (p *PowerTransformer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PowerTransformer", "Transform")
	}

	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PowerTransformer.Transform", p.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := yeoJohnson(X.At(i, j), p.Lambdas[j])
			if err := errors.CheckFinite("PowerTransformer.Transform", v); err != nil {
				return nil, err
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits on X and returns the transformed X.
func (p *PowerTransformer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// yeoJohnson evaluates the Yeo-Johnson transform of x at lambda.
func yeoJohnson(x, lambda float64) float64 {
	if x >= 0 {
		if math.Abs(lambda) < lambdaEps {
			return math.Log1p(x)
		}
		return (math.Pow(x+1, lambda) - 1) / lambda
	}
	if math.Abs(lambda-2) < lambdaEps {
		return -math.Log1p(-x)
	}
	return -(math.Pow(-x+1, 2-lambda) - 1) / (2 - lambda)
}

// optimizeLambda grid-searches lambda in [-2, 2] maximizing the
// Yeo-Johnson log-likelihood. Falls back to 1 (identity) when no grid
// point yields a usable likelihood, e.g. for constant columns.
func optimizeLambda(column []float64) float64 {
	n := float64(len(column))

	// The Jacobian term is independent of the transformed values.
	var logTerm float64
	for _, x := range column {
		s := 1.0
		if x < 0 {
			s = -1.0
		}
		logTerm += s * math.Log1p(math.Abs(x))
	}

	bestLambda := 1.0
	bestLLF := math.Inf(-1)
	transformed := make([]float64, len(column))

	for lambda := -2.0; lambda <= 2.0+lambdaEps; lambda += 0.05 {
		valid := true
		var sum float64
		for i, x := range column {
			v := yeoJohnson(x, lambda)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				valid = false
				break
			}
			transformed[i] = v
			sum += v
		}
		if !valid {
			continue
		}

		mean := sum / n
		var variance float64
		for _, v := range transformed {
			d := v - mean
			variance += d * d
		}
		variance /= n
		if variance < 1e-12 {
			continue
		}

		llf := -n/2*math.Log(variance) + (lambda-1)*logTerm
		if llf > bestLLF {
			bestLLF = llf
			bestLambda = lambda
		}
	}
	return bestLambda
}
