package dataset

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	sales := Column{
		Name:    "sales",
		Kind:    KindNumeric,
		Floats:  []float64{10, 20, 30, math.NaN()},
		Missing: []bool{false, false, false, true},
	}
	state := categoricalColumn("state", []string{"Lagos", "Abuja", "Lagos", "Kano"})
	tbl, err := NewTable([]Column{sales, state})
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(tbl)
	if s.Rows != 4 || s.Cols != 2 {
		t.Fatalf("shape = (%d, %d), want (4, 2)", s.Rows, s.Cols)
	}

	num := s.Columns[0]
	if num.Missing != 1 || num.Distinct != 3 {
		t.Errorf("numeric summary = %+v", num)
	}
	if math.Abs(num.Mean-20) > 1e-10 {
		t.Errorf("Mean = %v, want 20", num.Mean)
	}
	if math.Abs(num.Median-20) > 1e-10 {
		t.Errorf("Median = %v, want 20", num.Median)
	}
	if num.Min != 10 || num.Max != 30 {
		t.Errorf("Min/Max = %v/%v, want 10/30", num.Min, num.Max)
	}

	cat := s.Columns[1]
	if cat.Kind != KindCategorical || cat.Distinct != 3 {
		t.Errorf("categorical summary = %+v", cat)
	}
	if !math.IsNaN(cat.Mean) {
		t.Error("categorical mean should be NaN")
	}
}

func TestSummarizeAllMissingColumn(t *testing.T) {
	c := Column{
		Name:    "empty",
		Kind:    KindNumeric,
		Floats:  []float64{math.NaN(), math.NaN()},
		Missing: []bool{true, true},
	}
	other := numericColumn("x", []float64{1, 2})
	tbl, err := NewTable([]Column{c, other})
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(tbl)
	if !math.IsNaN(s.Columns[0].Mean) || !math.IsNaN(s.Columns[0].Median) {
		t.Error("all-missing column stats should be NaN")
	}
	if s.Columns[0].Missing != 2 {
		t.Errorf("Missing = %d, want 2", s.Columns[0].Missing)
	}
}
