package neighbors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

func TestKNNRegressorOneNeighborReproducesTargets(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	kr := NewKNNRegressor(1)
	if err := kr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("Predict row %d = %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}

	score, err := kr.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1 {
		t.Errorf("R² = %v, want 1", score)
	}
}

func TestKNNRegressorAveragesNeighborTargets(t *testing.T) {
	// Nearest three to 0.5 are x=0,1,2; the outlier at 10 stays out.
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	y := mat.NewDense(4, 1, []float64{0, 10, 20, 100})

	kr := NewKNNRegressor(3)
	if err := kr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kr.Predict(mat.NewDense(1, 1, []float64{0.5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-10) > 1e-12 {
		t.Errorf("Predict(0.5) = %v, want 10", got)
	}
}

func TestKNNRegressorEqualDistancesPickLowerRow(t *testing.T) {
	// x=1 is equidistant from both rows; row 0 wins the tie.
	X := mat.NewDense(2, 1, []float64{0, 2})
	y := mat.NewDense(2, 1, []float64{5, 9})

	kr := NewKNNRegressor(1)
	if err := kr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); got != 5 {
		t.Errorf("Predict(1) = %v, want 5", got)
	}
}

func TestKNNRegressorCopiesTrainingData(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{10, 20, 30})

	kr := NewKNNRegressor(1)
	if err := kr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	X.Set(0, 0, 1000)
	y.Set(0, 0, -1)

	pred, err := kr.Predict(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); got != 10 {
		t.Errorf("Predict(1) after mutating inputs = %v, want 10", got)
	}
}

func TestKNNRegressorParallelPredict(t *testing.T) {
	// 100 query rows crosses the parallel threshold.
	n := 100
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, 2*float64(i))
	}

	kr := NewKNNRegressor(1)
	if err := kr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < n; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Fatalf("Predict row %d = %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestKNNRegressorFitErrors(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	tests := []struct {
		name  string
		k     int
		X, y  mat.Matrix
		check func(error) bool
	}{
		{
			name: "zero k",
			k:    0, X: X, y: y,
			check: func(err error) bool { var ve *errors.ValueError; return errors.As(err, &ve) },
		},
		{
			name: "k exceeds samples",
			k:    5, X: X, y: y,
			check: func(err error) bool { var ve *errors.ValueError; return errors.As(err, &ve) },
		},
		{
			name: "row mismatch",
			k:    1, X: X, y: mat.NewDense(3, 1, []float64{1, 2, 3}),
			check: func(err error) bool { var de *errors.DimensionError; return errors.As(err, &de) },
		},
		{
			name: "empty data",
			k:    1, X: mat.NewDense(0, 0, nil), y: mat.NewDense(0, 0, nil),
			check: func(err error) bool { return errors.Is(err, errors.ErrEmptyData) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewKNNRegressor(tt.k).Fit(tt.X, tt.y)
			if err == nil || !tt.check(err) {
				t.Errorf("Fit() error = %v, want typed error", err)
			}
		})
	}

	t.Run("predict before fit", func(t *testing.T) {
		_, err := NewKNNRegressor(1).Predict(X)
		var nfe *errors.NotFittedError
		if !errors.As(err, &nfe) {
			t.Errorf("Predict() error = %v, want NotFittedError", err)
		}
	})

	t.Run("feature mismatch", func(t *testing.T) {
		kr := NewKNNRegressor(1)
		if err := kr.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		_, err := kr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Errorf("Predict() error = %v, want DimensionError", err)
		}
	})
}

func TestKNNClassifierMajorityVote(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	kc := NewKNNClassifier(3)
	if err := kc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kc.Predict(mat.NewDense(2, 1, []float64{1, 11}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 0 {
		t.Errorf("Predict(1) = %v, want 0", pred.At(0, 0))
	}
	if pred.At(1, 0) != 1 {
		t.Errorf("Predict(11) = %v, want 1", pred.At(1, 0))
	}

	score, err := kc.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1 {
		t.Errorf("accuracy = %v, want 1", score)
	}
}

func TestKNNClassifierProbaIsVoteFraction(t *testing.T) {
	// Nearest four to x=0 are rows 0..3: three votes for class 0, one
	// for class 1.
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 100})
	y := mat.NewDense(5, 1, []float64{0, 0, 0, 1, 1})

	kc := NewKNNClassifier(4)
	if err := kc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	proba, err := kc.PredictProba(mat.NewDense(1, 1, []float64{0}))
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	if got := proba.At(0, 0); got != 0.75 {
		t.Errorf("P(class 0) = %v, want 0.75", got)
	}
	if got := proba.At(0, 1); got != 0.25 {
		t.Errorf("P(class 1) = %v, want 0.25", got)
	}
}

func TestKNNClassifierVoteTiePicksSmallestLabel(t *testing.T) {
	// One vote per class; the larger label sits on the nearer row index
	// so the tie must resolve by label order, not insertion order.
	X := mat.NewDense(2, 1, []float64{0, 2})
	y := mat.NewDense(2, 1, []float64{9, 4})

	kc := NewKNNClassifier(2)
	if err := kc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := kc.Predict(mat.NewDense(1, 1, []float64{1}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); got != 4 {
		t.Errorf("Predict(1) = %v, want 4", got)
	}
}

func TestKNNClassifierPreservesLabelValues(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	y := mat.NewDense(4, 1, []float64{3, 3, 7, 7})

	kc := NewKNNClassifier(1)
	if err := kc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	classes := kc.Classes()
	if len(classes) != 2 || classes[0] != 3 || classes[1] != 7 {
		t.Fatalf("Classes() = %v, want [3 7]", classes)
	}

	pred, err := kc.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		if got := pred.At(i, 0); got != 3 && got != 7 {
			t.Errorf("Predict row %d = %v, want a training label", i, got)
		}
	}
}

func TestKNNClassifierProbaBeforeFit(t *testing.T) {
	_, err := NewKNNClassifier(1).PredictProba(mat.NewDense(1, 1, []float64{0}))
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Errorf("PredictProba() error = %v, want NotFittedError", err)
	}
}
