package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds the inspection stats for one column. The numeric
// stats are NaN for categorical columns and for numeric columns with no
// usable cells.
type ColumnSummary struct {
	Name     string
	Kind     Kind
	Missing  int
	Distinct int
	Mean     float64
	Median   float64
	Min      float64
	Max      float64
}

// Summary describes a table's shape and per-column stats. It is diagnostic
// only; nothing downstream branches on it.
type Summary struct {
	Rows    int
	Cols    int
	Columns []ColumnSummary
}

// Summarize computes the inspection summary for a table.
func Summarize(t *Table) Summary {
	s := Summary{
		Rows:    t.NumRows(),
		Cols:    t.NumCols(),
		Columns: make([]ColumnSummary, len(t.Columns)),
	}
	for i := range t.Columns {
		s.Columns[i] = summarizeColumn(&t.Columns[i])
	}
	return s
}

func summarizeColumn(c *Column) ColumnSummary {
	cs := ColumnSummary{
		Name:     c.Name,
		Kind:     c.Kind,
		Missing:  c.MissingCount(),
		Distinct: c.Distinct(),
		Mean:     math.NaN(),
		Median:   math.NaN(),
		Min:      math.NaN(),
		Max:      math.NaN(),
	}
	if c.Kind != KindNumeric {
		return cs
	}

	present := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return cs
	}

	sort.Float64s(present)
	cs.Mean = stat.Mean(present, nil)
	cs.Median = stat.Quantile(0.5, stat.Empirical, present, nil)
	cs.Min = present[0]
	cs.Max = present[len(present)-1]
	return cs
}
