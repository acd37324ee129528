package preprocessing

import (
	"sort"

	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/pkg/errors"
)

// UnseenCode is the sentinel an OrdinalEncoder assigns to a category it
// never saw during fitting. Learned codes start at 0, so the sentinel can
// never collide with one.
const UnseenCode = -1.0

// OrdinalEncoder replaces categorical columns with integer codes assigned
// in lexicographic label order. One encoder covers every categorical column
// of the table it was fitted on.
type OrdinalEncoder struct {
	model.BaseEstimator

	// Mapping holds label-to-code assignments per column.
	Mapping map[string]map[string]float64
}

// NewOrdinalEncoder creates an unfitted OrdinalEncoder.
func NewOrdinalEncoder() *OrdinalEncoder {
	return &OrdinalEncoder{}
}

// Fit learns codes for every categorical column of t. Labels are sorted so
// codes are stable across runs regardless of row order.
func (e *OrdinalEncoder) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 {
		return errors.NewModelError("OrdinalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	e.Mapping = make(map[string]map[string]float64)
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Kind != dataset.KindCategorical {
			continue
		}

		seen := map[string]struct{}{}
		for r, label := range c.Labels {
			if !c.Missing[r] {
				seen[label] = struct{}{}
			}
		}
		labels := make([]string, 0, len(seen))
		for label := range seen {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		codes := make(map[string]float64, len(labels))
		for code, label := range labels {
			codes[label] = float64(code)
		}
		e.Mapping[c.Name] = codes
	}

	e.SetFitted()
	return nil
}

// Transform returns a copy of t with every categorical column replaced by
// a numeric code column. Unseen labels map to UnseenCode with a warning.
// Missing cells must have been imputed first.
func (e *OrdinalEncoder) Transform(t *dataset.Table) (*dataset.Table, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OrdinalEncoder", "Transform")
	}

	out := t.Clone()
	for i := range out.Columns {
		c := &out.Columns[i]
		if c.Kind != dataset.KindCategorical {
			continue
		}
		codes, ok := e.Mapping[c.Name]
		if !ok {
			return nil, errors.NewValueError("OrdinalEncoder.Transform", "column '"+c.Name+"' was not present during fit")
		}
		if c.MissingCount() > 0 {
			return nil, errors.NewValueError("OrdinalEncoder.Transform", "column '"+c.Name+"' still has missing cells; impute first")
		}

		floats := make([]float64, len(c.Labels))
		for r, label := range c.Labels {
			code, seen := codes[label]
			if !seen {
				errors.Warn(errors.NewUnseenCategoryWarning(c.Name, label, UnseenCode))
				code = UnseenCode
			}
			floats[r] = code
		}
		out.Columns[i] = dataset.Column{
			Name:    c.Name,
			Kind:    dataset.KindNumeric,
			Floats:  floats,
			Missing: make([]bool, len(floats)),
		}
	}
	return out, nil
}

// FitTransform fits on t and returns the encoded copy.
func (e *OrdinalEncoder) FitTransform(t *dataset.Table) (*dataset.Table, error) {
	if err := e.Fit(t); err != nil {
		return nil, err
	}
	return e.Transform(t)
}

// EncodeValue encodes one cell for single-row prediction. Unseen labels
// map to UnseenCode with a warning; an unknown column is an error because
// it means the caller's schema disagrees with the artifact.
func (e *OrdinalEncoder) EncodeValue(column, label string) (float64, error) {
	if !e.IsFitted() {
		return 0, errors.NewNotFittedError("OrdinalEncoder", "EncodeValue")
	}
	codes, ok := e.Mapping[column]
	if !ok {
		return 0, errors.NewValueError("OrdinalEncoder.EncodeValue", "no encoding for column '"+column+"'")
	}
	code, seen := codes[label]
	if !seen {
		errors.Warn(errors.NewUnseenCategoryWarning(column, label, UnseenCode))
		return UnseenCode, nil
	}
	return code, nil
}

// IsCategorical reports whether the encoder learned codes for column.
func (e *OrdinalEncoder) IsCategorical(column string) bool {
	_, ok := e.Mapping[column]
	return ok
}
