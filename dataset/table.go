// Package dataset provides the columnar table the trainer feeds into the
// AutoML engine: CSV loading with missing-value masks, per-column summary
// statistics, and task-type detection from target cardinality.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

// Kind classifies a column as numeric or categorical.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is one named column. Numeric columns carry Floats with NaN in
// missing cells; categorical columns carry Labels with "" in missing cells.
// Missing is the authoritative mask either way.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Labels  []string
	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == KindCategorical {
		return len(c.Labels)
	}
	return len(c.Floats)
}

// MissingCount returns the number of masked cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Distinct returns the number of distinct non-missing values.
func (c *Column) Distinct() int {
	if c.Kind == KindCategorical {
		seen := map[string]struct{}{}
		for i, v := range c.Labels {
			if !c.Missing[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
	seen := map[float64]struct{}{}
	for i, v := range c.Floats {
		if !c.Missing[i] {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Vector copies a numeric column into a gonum vector.
func (c *Column) Vector() (*mat.VecDense, error) {
	if c.Kind != KindNumeric {
		return nil, errors.NewValueError("Column.Vector", "column '"+c.Name+"' is categorical; encode it first")
	}
	if len(c.Floats) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Column.Vector: "+c.Name)
	}
	v := mat.NewVecDense(len(c.Floats), nil)
	for i, val := range c.Floats {
		v.SetVec(i, val)
	}
	return v, nil
}

// Clone deep-copies the column.
func (c *Column) Clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Labels != nil {
		out.Labels = append([]string(nil), c.Labels...)
	}
	if c.Missing != nil {
		out.Missing = append([]bool(nil), c.Missing...)
	}
	return out
}

// Table is an ordered set of equally sized columns.
type Table struct {
	Columns []Column
}

// NewTable validates column lengths and name uniqueness.
func NewTable(cols []Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewTable")
	}
	n := cols[0].Len()
	names := map[string]struct{}{}
	for i := range cols {
		if cols[i].Len() != n {
			return nil, errors.NewDimensionError("NewTable", n, cols[i].Len(), 0)
		}
		if _, dup := names[cols[i].Name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", cols[i].Name)
		}
		names[cols[i].Name] = struct{}{}
	}
	return &Table{Columns: cols}, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// Column returns the named column, or false when absent.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i := range t.Columns {
		cols[i] = t.Columns[i].Clone()
	}
	return &Table{Columns: cols}
}

// SplitTarget removes the named column and returns the remaining feature
// table alongside it.
func (t *Table) SplitTarget(name string) (*Table, *Column, error) {
	idx := -1
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, errors.NewValueError("Table.SplitTarget", "no column named '"+name+"'")
	}
	if len(t.Columns) < 2 {
		return nil, nil, errors.NewValueError("Table.SplitTarget", "table has no feature columns besides the target")
	}

	target := t.Columns[idx].Clone()
	features := make([]Column, 0, len(t.Columns)-1)
	for i := range t.Columns {
		if i != idx {
			features = append(features, t.Columns[i].Clone())
		}
	}
	return &Table{Columns: features}, &target, nil
}

// Matrix assembles the table into a dense row-major matrix. Every column
// must be numeric; encode categoricals first.
func (t *Table) Matrix() (*mat.Dense, error) {
	rows := t.NumRows()
	cols := t.NumCols()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Table.Matrix")
	}

	m := mat.NewDense(rows, cols, nil)
	for j := range t.Columns {
		c := &t.Columns[j]
		if c.Kind != KindNumeric {
			return nil, errors.NewValueError("Table.Matrix", "column '"+c.Name+"' is categorical; encode it first")
		}
		for i := 0; i < rows; i++ {
			m.Set(i, j, c.Floats[i])
		}
	}
	return m, nil
}
