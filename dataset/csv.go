package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/salecast/salecast/pkg/errors"
)

var nan = math.NaN()

// Missing tokens recognized in CSV cells, compared case-insensitively after
// trimming whitespace.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// IsMissingToken reports whether a raw CSV cell counts as missing.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ReadCSV loads a headered CSV file into a Table.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadCSV: open %s", path)
	}
	defer f.Close()

	tbl, err := ReadCSVFrom(f)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadCSV: %s", path)
	}
	return tbl, nil
}

// ReadCSVFrom parses headered CSV data from r. The first record is the
// header; column kinds are inferred per column: numeric when every
// non-missing cell parses as a float, categorical otherwise. A column with
// no usable cells defaults to numeric with every cell masked.
func ReadCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "ReadCSVFrom: parse")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSVFrom: no header row")
	}

	header := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSVFrom: no data rows")
	}

	cols := make([]Column, len(header))
	for j, name := range header {
		cols[j] = inferColumn(strings.TrimSpace(name), rows, j)
	}
	return NewTable(cols)
}

func inferColumn(name string, rows [][]string, j int) Column {
	n := len(rows)
	missing := make([]bool, n)
	floats := make([]float64, n)
	numeric := true

	for i, row := range rows {
		cell := strings.TrimSpace(row[j])
		if IsMissingToken(cell) {
			missing[i] = true
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			numeric = false
			break
		}
		floats[i] = v
	}

	if numeric {
		for i := range missing {
			if missing[i] {
				floats[i] = nan
			}
		}
		return Column{Name: name, Kind: KindNumeric, Floats: floats, Missing: missing}
	}

	labels := make([]string, n)
	for i, row := range rows {
		cell := strings.TrimSpace(row[j])
		if IsMissingToken(cell) {
			missing[i] = true
			labels[i] = ""
			continue
		}
		missing[i] = false
		labels[i] = cell
	}
	return Column{Name: name, Kind: KindCategorical, Labels: labels, Missing: missing}
}
