package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formGetter(form map[string]string) func(string) string {
	return func(name string) string { return form[name] }
}

// TestSalesSchemaLayout verifies the production form covers every
// dataset column with the expected widget kinds.
func TestSalesSchemaLayout(t *testing.T) {
	schema := SalesSchema()

	assert.Len(t, schema.Sections, 5, "form should have five rows")
	assert.Len(t, schema.Fields(), 20, "form should have twenty inputs")

	kinds := map[string]string{}
	for _, f := range schema.Fields() {
		kinds[f.Name] = makeFieldView(f, "").Kind
	}
	assert.Equal(t, "select", kinds["business_type"])
	assert.Equal(t, "select", kinds["month"])
	assert.Equal(t, "slider", kinds["business_age_months"])
	assert.Equal(t, "number", kinds["inventory_value_naira"])
	assert.Equal(t, "checkbox", kinds["uses_pos"])

	defaults := schema.Defaults()
	assert.Equal(t, "Retail_Shop", defaults["business_type"])
	assert.Equal(t, "24", defaults["business_age_months"])
	assert.Equal(t, "500000", defaults["inventory_value_naira"])
	assert.Equal(t, "1", defaults["uses_pos"], "POS checkbox defaults to checked")
	assert.Equal(t, "0", defaults["has_parking"])
}

// TestParseClampsNumericInputs verifies out-of-range sliders and
// numbers are pulled back to their bounds.
func TestParseClampsNumericInputs(t *testing.T) {
	schema := Schema{Sections: []Section{{
		Title: "test",
		Fields: []Field{
			{Name: "staff", Label: "Staff", Default: "3", Widget: Slider{Min: 1, Max: 20, Step: 1}},
			{Name: "budget", Label: "Budget", Default: "5000", Widget: Number{Min: 1000, Max: 90000, Step: 500}},
		},
	}}}

	values, err := schema.Parse(formGetter(map[string]string{
		"staff":  "50",
		"budget": "100",
	}))
	require.NoError(t, err)
	assert.Equal(t, "20", values["staff"], "above max clamps down")
	assert.Equal(t, "1000", values["budget"], "below min clamps up")
}

// TestParseRejectsUnknownSelectOption verifies select validation names
// the offending field.
func TestParseRejectsUnknownSelectOption(t *testing.T) {
	schema := Schema{Sections: []Section{{
		Fields: []Field{
			{Name: "sector", Label: "Sector", Default: "agro", Widget: Select{Options: []string{"agro", "retail"}}},
		},
	}}}

	_, err := schema.Parse(formGetter(map[string]string{"sector": "mining"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sector")
	assert.Contains(t, err.Error(), "mining")
}

// TestParseRejectsNonNumericInput verifies numeric fields reject text.
func TestParseRejectsNonNumericInput(t *testing.T) {
	schema := Schema{Sections: []Section{{
		Fields: []Field{
			{Name: "staff", Label: "Staff", Default: "3", Widget: Slider{Min: 1, Max: 20, Step: 1}},
		},
	}}}

	_, err := schema.Parse(formGetter(map[string]string{"staff": "several"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staff")
}

// TestParseCheckboxCoercion verifies checkbox values become 0/1 and an
// absent checkbox reads as unchecked.
func TestParseCheckboxCoercion(t *testing.T) {
	schema := Schema{Sections: []Section{{
		Fields: []Field{
			{Name: "pos", Label: "POS", Default: "1", Widget: Checkbox{}},
			{Name: "parking", Label: "Parking", Default: "0", Widget: Checkbox{}},
		},
	}}}

	values, err := schema.Parse(formGetter(map[string]string{"pos": "on"}))
	require.NoError(t, err)
	assert.Equal(t, "1", values["pos"])
	assert.Equal(t, "0", values["parking"], "unsubmitted checkbox is unchecked, not default")
}

// TestParseAbsentValuesUseDefaults verifies selects and numbers fall
// back to their field defaults.
func TestParseAbsentValuesUseDefaults(t *testing.T) {
	schema := Schema{Sections: []Section{{
		Fields: []Field{
			{Name: "sector", Label: "Sector", Default: "agro", Widget: Select{Options: []string{"agro", "retail"}}},
			{Name: "staff", Label: "Staff", Default: "3", Widget: Slider{Min: 1, Max: 20, Step: 1}},
		},
	}}}

	values, err := schema.Parse(formGetter(nil))
	require.NoError(t, err)
	assert.Equal(t, "agro", values["sector"])
	assert.Equal(t, "3", values["staff"])
}
