package preprocessing

import (
	"sort"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/pkg/errors"
)

// Imputer fills missing cells column by column: numeric columns with the
// column median, categorical columns with the column mode. Columns are
// treated independently; non-missing cells are never touched.
type Imputer struct {
	model.BaseEstimator

	// Medians maps numeric column names to their fill value.
	Medians map[string]float64

	// Modes maps categorical column names to their fill value.
	Modes map[string]string
}

// NewImputer creates an unfitted Imputer.
func NewImputer() *Imputer {
	return &Imputer{}
}

// Fit learns the per-column fill values from t.
//
// A column with every cell missing has no median or mode; it falls back to
// 0 (numeric) or "unknown" (categorical) and emits a warning, so a junk
// column degrades instead of aborting the run.
func (im *Imputer) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 {
		return errors.NewModelError("Imputer.Fit", "empty data", errors.ErrEmptyData)
	}

	im.Medians = make(map[string]float64)
	im.Modes = make(map[string]string)

	for i := range t.Columns {
		c := &t.Columns[i]
		if c.MissingCount() == 0 {
			continue
		}
		switch c.Kind {
		case dataset.KindNumeric:
			med, ok := columnMedian(c)
			if !ok {
				errors.Warn(errors.NewValueError("Imputer.Fit", "column '"+c.Name+"' is entirely missing, filling with 0"))
				med = 0
			}
			im.Medians[c.Name] = med
		case dataset.KindCategorical:
			mode, ok := columnMode(c)
			if !ok {
				errors.Warn(errors.NewValueError("Imputer.Fit", "column '"+c.Name+"' is entirely missing, filling with \"unknown\""))
				mode = "unknown"
			}
			im.Modes[c.Name] = mode
		}
	}

	im.SetFitted()
	return nil
}

// Transform returns a copy of t with every masked cell filled. Columns the
// fit never saw missing pass through untouched; after Transform no missing
// cells remain for columns with a learned fill value.
func (im *Imputer) Transform(t *dataset.Table) (*dataset.Table, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("Imputer", "Transform")
	}

	out := t.Clone()
	for i := range out.Columns {
		c := &out.Columns[i]
		switch c.Kind {
		case dataset.KindNumeric:
			fill, ok := im.Medians[c.Name]
			if !ok {
				continue
			}
			for r := range c.Floats {
				if c.Missing[r] {
					c.Floats[r] = fill
					c.Missing[r] = false
				}
			}
		case dataset.KindCategorical:
			fill, ok := im.Modes[c.Name]
			if !ok {
				continue
			}
			for r := range c.Labels {
				if c.Missing[r] {
					c.Labels[r] = fill
					c.Missing[r] = false
				}
			}
		}
	}
	return out, nil
}

// FitTransform fits on t and returns the filled copy.
func (im *Imputer) FitTransform(t *dataset.Table) (*dataset.Table, error) {
	if err := im.Fit(t); err != nil {
		return nil, err
	}
	return im.Transform(t)
}

// columnMedian computes the median of non-missing cells, averaging the two
// middle values for even counts.
func columnMedian(c *dataset.Column) (float64, bool) {
	present := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, false
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid], true
	}
	return (present[mid-1] + present[mid]) / 2, true
}

// columnMode returns the most frequent non-missing label, breaking ties by
// lexicographic order for determinism.
func columnMode(c *dataset.Column) (string, bool) {
	counts := map[string]int{}
	for i, v := range c.Labels {
		if !c.Missing[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}

	best := ""
	bestCount := -1
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best = label
			bestCount = n
		}
	}
	return best, true
}
