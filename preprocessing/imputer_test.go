package preprocessing

import (
	"math"
	"testing"

	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/pkg/errors"
)

func numCol(name string, floats []float64, missing []bool) dataset.Column {
	if missing == nil {
		missing = make([]bool, len(floats))
	}
	return dataset.Column{Name: name, Kind: dataset.KindNumeric, Floats: floats, Missing: missing}
}

func catCol(name string, labels []string, missing []bool) dataset.Column {
	if missing == nil {
		missing = make([]bool, len(labels))
	}
	return dataset.Column{Name: name, Kind: dataset.KindCategorical, Labels: labels, Missing: missing}
}

func mustTable(t *testing.T, cols ...dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable(cols)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return tbl
}

func mustColumn(t *testing.T, tbl *dataset.Table, name string) *dataset.Column {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not found", name)
	}
	return c
}

func TestImputerNumericMedian(t *testing.T) {
	tests := []struct {
		name    string
		floats  []float64
		missing []bool
		want    float64
	}{
		{
			name:    "odd count",
			floats:  []float64{1, math.NaN(), 3, 9, 5},
			missing: []bool{false, true, false, false, false},
			want:    4, // median of 1,3,9,5
		},
		{
			name:    "even count averages middle pair",
			floats:  []float64{10, 20, math.NaN(), 30, 40, math.NaN()},
			missing: []bool{false, false, true, false, false, true},
			want:    25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustTable(t, numCol("amount", tt.floats, tt.missing))

			im := NewImputer()
			out, err := im.FitTransform(tbl)
			if err != nil {
				t.Fatalf("FitTransform() error = %v", err)
			}
			if got := im.Medians["amount"]; got != tt.want {
				t.Errorf("median = %v, want %v", got, tt.want)
			}

			c := mustColumn(t, out, "amount")
			if c.MissingCount() != 0 {
				t.Errorf("missing cells remain after transform: %d", c.MissingCount())
			}
			for i, masked := range tt.missing {
				if masked && c.Floats[i] != tt.want {
					t.Errorf("row %d = %v, want fill %v", i, c.Floats[i], tt.want)
				}
				if !masked && c.Floats[i] != tt.floats[i] {
					t.Errorf("row %d changed from %v to %v", i, tt.floats[i], c.Floats[i])
				}
			}
		})
	}
}

func TestImputerCategoricalMode(t *testing.T) {
	tbl := mustTable(t, catCol("sector",
		[]string{"retail", "fashion", "", "retail", "fashion"},
		[]bool{false, false, true, false, false}))

	im := NewImputer()
	out, err := im.FitTransform(tbl)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// retail and fashion tie at 2; lexicographic order picks fashion.
	if got := im.Modes["sector"]; got != "fashion" {
		t.Errorf("mode = %q, want %q", got, "fashion")
	}
	if got := mustColumn(t, out, "sector").Labels[2]; got != "fashion" {
		t.Errorf("filled cell = %q, want %q", got, "fashion")
	}
}

func TestImputerAllMissingColumn(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(err error) { warned = append(warned, err) })
	defer errors.SetWarningHandler(nil)

	tbl := mustTable(t,
		numCol("dead", []float64{math.NaN(), math.NaN()}, []bool{true, true}),
		catCol("blank", []string{"", ""}, []bool{true, true}))

	im := NewImputer()
	out, err := im.FitTransform(tbl)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	if got := mustColumn(t, out, "dead").Floats[0]; got != 0 {
		t.Errorf("all-missing numeric fill = %v, want 0", got)
	}
	if got := mustColumn(t, out, "blank").Labels[0]; got != "unknown" {
		t.Errorf("all-missing categorical fill = %q, want %q", got, "unknown")
	}
	if len(warned) != 2 {
		t.Errorf("warnings = %d, want 2", len(warned))
	}
}

func TestImputerLeavesCompleteColumnsAlone(t *testing.T) {
	tbl := mustTable(t, numCol("clean", []float64{1, 2, 3}, nil))

	im := NewImputer()
	if _, err := im.FitTransform(tbl); err != nil {
		t.Fatal(err)
	}
	if _, ok := im.Medians["clean"]; ok {
		t.Error("complete column should not learn a fill value")
	}
}

func TestImputerDoesNotMutateInput(t *testing.T) {
	tbl := mustTable(t, numCol("x", []float64{1, math.NaN()}, []bool{false, true}))

	im := NewImputer()
	if _, err := im.FitTransform(tbl); err != nil {
		t.Fatal(err)
	}
	if !tbl.Columns[0].Missing[1] {
		t.Error("Transform mutated its input table")
	}
}

func TestImputerNotFitted(t *testing.T) {
	tbl := mustTable(t, numCol("x", []float64{1}, nil))

	im := NewImputer()
	_, err := im.Transform(tbl)
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
}
