package preprocessing

import (
	"testing"

	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/pkg/errors"
)

func TestOrdinalEncoderCodesAreAlphabetical(t *testing.T) {
	tbl := mustTable(t, catCol("sector", []string{"retail", "fashion", "agro", "retail"}, nil))

	enc := NewOrdinalEncoder()
	if err := enc.Fit(tbl); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	want := map[string]float64{"agro": 0, "fashion": 1, "retail": 2}
	for label, code := range want {
		if got := enc.Mapping["sector"][label]; got != code {
			t.Errorf("code for %q = %v, want %v", label, got, code)
		}
	}
}

func TestOrdinalEncoderTransform(t *testing.T) {
	tbl := mustTable(t,
		numCol("amount", []float64{100, 200, 300}, nil),
		catCol("state", []string{"lagos", "abuja", "lagos"}, nil))

	enc := NewOrdinalEncoder()
	out, err := enc.FitTransform(tbl)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	state := mustColumn(t, out, "state")
	if state.Kind != dataset.KindNumeric {
		t.Fatalf("encoded column kind = %v, want numeric", state.Kind)
	}
	wantCodes := []float64{1, 0, 1} // abuja=0, lagos=1
	for i, w := range wantCodes {
		if state.Floats[i] != w {
			t.Errorf("row %d code = %v, want %v", i, state.Floats[i], w)
		}
	}

	amount := mustColumn(t, out, "amount")
	if amount.Floats[1] != 200 {
		t.Error("numeric column should pass through unchanged")
	}
	if tbl.Columns[1].Kind != dataset.KindCategorical {
		t.Error("Transform mutated its input table")
	}
}

func TestOrdinalEncoderUnseenLabel(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(err error) { warned = append(warned, err) })
	defer errors.SetWarningHandler(nil)

	enc := NewOrdinalEncoder()
	if err := enc.Fit(mustTable(t, catCol("sector", []string{"agro", "retail"}, nil))); err != nil {
		t.Fatal(err)
	}

	out, err := enc.Transform(mustTable(t, catCol("sector", []string{"mining", "agro"}, nil)))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got := mustColumn(t, out, "sector").Floats[0]; got != UnseenCode {
		t.Errorf("unseen label code = %v, want %v", got, UnseenCode)
	}
	if len(warned) != 1 {
		t.Fatalf("warnings = %d, want 1", len(warned))
	}
	var ucw *errors.UnseenCategoryWarning
	if !errors.As(warned[0], &ucw) {
		t.Fatalf("warning type = %T", warned[0])
	}
	if ucw.Feature != "sector" || ucw.Value != "mining" {
		t.Errorf("warning = %+v", ucw)
	}
}

func TestOrdinalEncoderRejectsMissingCells(t *testing.T) {
	enc := NewOrdinalEncoder()
	tbl := mustTable(t, catCol("sector", []string{"agro", ""}, []bool{false, true}))
	if err := enc.Fit(tbl); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Transform(tbl); err == nil {
		t.Error("Transform should reject columns with missing cells")
	}
}

func TestOrdinalEncoderUnknownColumn(t *testing.T) {
	enc := NewOrdinalEncoder()
	if err := enc.Fit(mustTable(t, catCol("sector", []string{"agro"}, nil))); err != nil {
		t.Fatal(err)
	}
	_, err := enc.Transform(mustTable(t, catCol("region", []string{"north"}, nil)))
	var ve *errors.ValueError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValueError for column absent at fit, got %v", err)
	}
}

func TestOrdinalEncoderEncodeValue(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(err error) { warned = append(warned, err) })
	defer errors.SetWarningHandler(nil)

	enc := NewOrdinalEncoder()
	if err := enc.Fit(mustTable(t, catCol("sector", []string{"agro", "retail"}, nil))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		column   string
		label    string
		want     float64
		wantErr  bool
		wantWarn bool
	}{
		{name: "known label", column: "sector", label: "retail", want: 1},
		{name: "unseen label", column: "sector", label: "mining", want: UnseenCode, wantWarn: true},
		{name: "unknown column", column: "region", label: "north", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warned = warned[:0]
			got, err := enc.EncodeValue(tt.column, tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EncodeValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("EncodeValue() = %v, want %v", got, tt.want)
			}
			if (len(warned) > 0) != tt.wantWarn {
				t.Errorf("warnings = %d, wantWarn %v", len(warned), tt.wantWarn)
			}
		})
	}
}

func TestOrdinalEncoderIsCategorical(t *testing.T) {
	enc := NewOrdinalEncoder()
	if err := enc.Fit(mustTable(t,
		numCol("amount", []float64{1}, nil),
		catCol("sector", []string{"agro"}, nil))); err != nil {
		t.Fatal(err)
	}
	if !enc.IsCategorical("sector") {
		t.Error("sector should be categorical")
	}
	if enc.IsCategorical("amount") {
		t.Error("amount should not be categorical")
	}
}
