package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/salecast/salecast/pkg/errors"
)

func TestYeoJohnson(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		lambda    float64
		want      float64
		tolerance float64
	}{
		{name: "identity positive", x: 3, lambda: 1, want: 3, tolerance: 1e-12},
		{name: "identity negative", x: -2.5, lambda: 1, want: -2.5, tolerance: 1e-12},
		{name: "identity zero", x: 0, lambda: 1, want: 0, tolerance: 1e-12},
		{name: "log branch", x: math.E - 1, lambda: 0, want: 1, tolerance: 1e-12},
		{name: "negative log branch", x: 1 - math.E, lambda: 2, want: -1, tolerance: 1e-12},
		{name: "square root style", x: 3, lambda: 0.5, want: 2, tolerance: 1e-12},
		{name: "negative power branch", x: -3, lambda: 0.5, want: -(math.Pow(4, 1.5) - 1) / 1.5, tolerance: 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := yeoJohnson(tt.x, tt.lambda)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("yeoJohnson(%v, %v) = %v, want %v", tt.x, tt.lambda, got, tt.want)
			}
		})
	}
}

func TestPowerTransformerReducesSkew(t *testing.T) {
	// Exponentially growing values are heavily right-skewed.
	raw := make([]float64, 30)
	for i := range raw {
		raw[i] = math.Exp(float64(i) * 0.2)
	}
	X := mat.NewDense(len(raw), 1, raw)

	pt := NewPowerTransformer()
	out, err := pt.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	after := make([]float64, len(raw))
	for i := range after {
		after[i] = out.At(i, 0)
	}
	before := stat.Skew(raw, nil)
	got := stat.Skew(after, nil)
	if math.Abs(got) >= math.Abs(before) {
		t.Errorf("skew after = %v, before = %v; transform should reduce it", got, before)
	}
	if pt.Lambdas[0] >= 1 {
		t.Errorf("lambda = %v; right-skewed data should pick lambda below 1", pt.Lambdas[0])
	}
}

func TestPowerTransformerConstantColumn(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{7, 7, 7, 7})

	pt := NewPowerTransformer()
	if err := pt.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if pt.Lambdas[0] != 1 {
		t.Errorf("constant column lambda = %v, want identity fallback 1", pt.Lambdas[0])
	}
	out, err := pt.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(0, 0) != 7 {
		t.Errorf("identity transform changed value to %v", out.At(0, 0))
	}
}

func TestPowerTransformerOutputIsFinite(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0.1, -5,
		12, 3,
		150, -0.2,
		1800, 8,
		9, 0,
		0.5, -1.5,
	})

	pt := NewPowerTransformer()
	out, err := pt.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := out.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("non-finite output at [%d,%d]: %v", i, j, v)
			}
		}
	}
}

func TestPowerTransformerErrors(t *testing.T) {
	pt := NewPowerTransformer()

	if _, err := pt.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform before Fit should error")
	} else {
		var nfe *errors.NotFittedError
		if !errors.As(err, &nfe) {
			t.Errorf("expected NotFittedError, got %T", err)
		}
	}

	if err := pt.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatal(err)
	}
	if _, err := pt.Transform(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Error("feature count mismatch should error")
	}
}
