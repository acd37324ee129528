package bayes

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

func blobData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		0.5, 0.5,
		10, 10,
		11, 10,
		10, 11,
		11, 11,
		10.5, 10.5,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	return X, y
}

func TestGaussianNBSeparatedBlobs(t *testing.T) {
	X, y := blobData()

	nb := NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := nb.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1 {
		t.Errorf("accuracy = %v, want 1", score)
	}

	proba, err := nb.PredictProba(mat.NewDense(2, 2, []float64{
		0.5, 0.5,
		10.5, 10.5,
	}))
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	if got := proba.At(0, 0); got < 0.99 {
		t.Errorf("P(class 0 | center of blob 0) = %v, want > 0.99", got)
	}
	if got := proba.At(1, 1); got < 0.99 {
		t.Errorf("P(class 1 | center of blob 1) = %v, want > 0.99", got)
	}
	for i := 0; i < 2; i++ {
		if sum := proba.At(i, 0) + proba.At(i, 1); math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v, want 1", i, sum)
		}
	}
}

func TestGaussianNBLearnsPriorsAndMoments(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{0, 2, 10, 12, 14})
	y := mat.NewDense(5, 1, []float64{0, 0, 1, 1, 1})

	nb := NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if got := nb.Priors[0]; math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Priors[0] = %v, want 0.4", got)
	}
	if got := nb.Priors[1]; math.Abs(got-0.6) > 1e-12 {
		t.Errorf("Priors[1] = %v, want 0.6", got)
	}
	if got := nb.Means[0][0]; got != 1 {
		t.Errorf("Means[0] = %v, want 1", got)
	}
	if got := nb.Means[1][0]; got != 12 {
		t.Errorf("Means[1] = %v, want 12", got)
	}
	if got := nb.Variances[0][0]; math.Abs(got-1) > 1e-6 {
		t.Errorf("Variances[0] = %v, want 1", got)
	}
	if got := nb.Variances[1][0]; math.Abs(got-8.0/3.0) > 1e-6 {
		t.Errorf("Variances[1] = %v, want 8/3", got)
	}
}

func TestGaussianNBPreservesLabelValues(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	y := mat.NewDense(4, 1, []float64{3, 3, 7, 7})

	nb := NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	classes := nb.Classes()
	if len(classes) != 2 || classes[0] != 3 || classes[1] != 7 {
		t.Fatalf("Classes() = %v, want [3 7]", classes)
	}

	pred, err := nb.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	want := []float64{3, 3, 7, 7}
	for i, w := range want {
		if got := pred.At(i, 0); got != w {
			t.Errorf("Predict row %d = %v, want %v", i, got, w)
		}
	}
}

func TestGaussianNBConstantFeatureStaysFinite(t *testing.T) {
	// Column 1 never varies; smoothing keeps its density usable.
	X := mat.NewDense(4, 2, []float64{
		0, 5,
		1, 5,
		10, 5,
		11, 5,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	nb := NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	proba, err := nb.PredictProba(mat.NewDense(1, 2, []float64{0.5, 5}))
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	for k := 0; k < 2; k++ {
		if v := proba.At(0, k); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("P(class %d) = %v, want finite", k, v)
		}
	}
	if got := proba.At(0, 0); got < 0.99 {
		t.Errorf("P(class 0) = %v, want > 0.99", got)
	}
}

func TestGaussianNBErrors(t *testing.T) {
	X, y := blobData()

	t.Run("empty data", func(t *testing.T) {
		err := NewGaussianNB().Fit(mat.NewDense(0, 0, nil), mat.NewDense(0, 0, nil))
		if !errors.Is(err, errors.ErrEmptyData) {
			t.Errorf("Fit() error = %v, want ErrEmptyData", err)
		}
	})

	t.Run("row mismatch", func(t *testing.T) {
		err := NewGaussianNB().Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Errorf("Fit() error = %v, want DimensionError", err)
		}
	})

	t.Run("y not a column", func(t *testing.T) {
		err := NewGaussianNB().Fit(X, mat.NewDense(10, 2, nil))
		var ve *errors.ValueError
		if !errors.As(err, &ve) {
			t.Errorf("Fit() error = %v, want ValueError", err)
		}
	})

	t.Run("predict before fit", func(t *testing.T) {
		_, err := NewGaussianNB().Predict(X)
		var nfe *errors.NotFittedError
		if !errors.As(err, &nfe) {
			t.Errorf("Predict() error = %v, want NotFittedError", err)
		}
	})

	t.Run("feature mismatch", func(t *testing.T) {
		nb := NewGaussianNB()
		if err := nb.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		_, err := nb.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Errorf("Predict() error = %v, want DimensionError", err)
		}
	})
}
