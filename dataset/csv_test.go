package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `business_type,business_age_months,state,monthly_sales_thousands
Retail Shop,24,Lagos,850.5
Restaurant,36,Abuja,1200
,48,Kano,NA
Fashion Store,NaN,Lagos,430.25
`

func TestReadCSVFrom(t *testing.T) {
	tbl, err := ReadCSVFrom(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSVFrom() error = %v", err)
	}

	if tbl.NumRows() != 4 || tbl.NumCols() != 4 {
		t.Fatalf("shape = (%d, %d), want (4, 4)", tbl.NumRows(), tbl.NumCols())
	}

	bt, ok := tbl.Column("business_type")
	if !ok || bt.Kind != KindCategorical {
		t.Fatalf("business_type should be categorical")
	}
	if !bt.Missing[2] || bt.Labels[2] != "" {
		t.Error("empty cell should be masked as missing")
	}
	if bt.Labels[0] != "Retail Shop" {
		t.Errorf("label = %q, want Retail Shop", bt.Labels[0])
	}

	age, ok := tbl.Column("business_age_months")
	if !ok || age.Kind != KindNumeric {
		t.Fatalf("business_age_months should be numeric")
	}
	if !age.Missing[3] || !math.IsNaN(age.Floats[3]) {
		t.Error("NaN token should mask the cell and store NaN")
	}
	if age.Floats[0] != 24 {
		t.Errorf("age[0] = %v, want 24", age.Floats[0])
	}

	sales, _ := tbl.Column("monthly_sales_thousands")
	if sales.Kind != KindNumeric {
		t.Fatal("sales should be numeric")
	}
	if !sales.Missing[2] {
		t.Error("NA token should mask the cell")
	}
	if sales.Floats[3] != 430.25 {
		t.Errorf("sales[3] = %v, want 430.25", sales.Floats[3])
	}
}

func TestReadCSVFromErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"header only", "a,b,c\n"},
		{"ragged rows", "a,b\n1,2\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSVFrom(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	if err == nil {
		t.Fatal("missing file should error")
	}
}

func TestReadCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if tbl.NumRows() != 4 {
		t.Errorf("rows = %d, want 4", tbl.NumRows())
	}
}

func TestIsMissingToken(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"NA", true},
		{"nan", true},
		{"NULL", true},
		{"Lagos", false},
		{"0", false},
	}
	for _, tt := range tests {
		if got := IsMissingToken(tt.in); got != tt.want {
			t.Errorf("IsMissingToken(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
