// Package app serves the prediction web UI: a form described by a
// hand-authored feature schema, backed by a trained pipeline artifact.
package app

import (
	"strconv"

	"github.com/salecast/salecast/pkg/errors"
)

// Widget is the closed set of form controls a field can render as.
type Widget interface {
	widget()
}

// Select renders a dropdown restricted to Options.
type Select struct {
	Options []string
}

// Slider renders a range input.
type Slider struct {
	Min, Max, Step float64
}

// Number renders a numeric input.
type Number struct {
	Min, Max, Step float64
}

// Checkbox renders a checkbox that coerces to "1" or "0".
type Checkbox struct{}

func (Select) widget()   {}
func (Slider) widget()   {}
func (Number) widget()   {}
func (Checkbox) widget() {}

// Field is one form input bound to a dataset column of the same name.
type Field struct {
	Name    string
	Label   string
	Default string
	Widget  Widget
}

// Section groups fields under a heading, one per form row.
type Section struct {
	Title  string
	Fields []Field
}

// Schema is the full form layout. It is not validated against the
// artifact's columns; a mismatch surfaces as a prediction error.
type Schema struct {
	Sections []Section
}

// Fields returns every field in layout order.
func (s Schema) Fields() []Field {
	var fields []Field
	for _, sec := range s.Sections {
		fields = append(fields, sec.Fields...)
	}
	return fields
}

// Defaults returns the prefill values keyed by field name.
func (s Schema) Defaults() map[string]string {
	values := make(map[string]string)
	for _, f := range s.Fields() {
		values[f.Name] = f.Default
	}
	return values
}

// Parse reads one submitted value per field through get, validates it
// against the field's widget, and returns the canonical feature map.
// Selects must match an option, numeric inputs are clamped to their
// bounds, checkboxes coerce to "1"/"0", and absent values fall back to
// the field default.
func (s Schema) Parse(get func(name string) string) (map[string]string, error) {
	values := make(map[string]string)
	for _, f := range s.Fields() {
		raw := get(f.Name)

		switch w := f.Widget.(type) {
		case Select:
			if raw == "" {
				raw = f.Default
			}
			if !containsOption(w.Options, raw) {
				return nil, errors.Newf("field %q: %q is not one of the allowed options", f.Name, raw)
			}
			values[f.Name] = raw
		case Slider:
			v, err := parseBounded(f, raw, w.Min, w.Max)
			if err != nil {
				return nil, err
			}
			values[f.Name] = v
		case Number:
			v, err := parseBounded(f, raw, w.Min, w.Max)
			if err != nil {
				return nil, err
			}
			values[f.Name] = v
		case Checkbox:
			values[f.Name] = parseCheckbox(raw)
		default:
			return nil, errors.Newf("field %q: unsupported widget %T", f.Name, f.Widget)
		}
	}
	return values, nil
}

func parseBounded(f Field, raw string, min, max float64) (string, error) {
	if raw == "" {
		raw = f.Default
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", errors.Newf("field %q: %q is not a number", f.Name, raw)
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func parseCheckbox(raw string) string {
	switch raw {
	case "on", "1", "true":
		return "1"
	default:
		return "0"
	}
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// SalesSchema is the SME sales form: twenty inputs across five rows,
// matching the columns of the bundled training dataset.
func SalesSchema() Schema {
	return Schema{Sections: []Section{
		{
			Title: "🏪 Business Profile",
			Fields: []Field{
				{
					Name:    "business_type",
					Label:   "🏪 Business Type",
					Default: "Retail_Shop",
					Widget: Select{Options: []string{
						"Retail_Shop", "Restaurant", "Salon", "Electronics",
						"Pharmacy", "Supermarket", "Fashion_Store",
					}},
				},
				{
					Name:    "business_age_months",
					Label:   "📅 Business Age (months)",
					Default: "24",
					Widget:  Slider{Min: 6, Max: 120, Step: 1},
				},
				{
					Name:    "location_type",
					Label:   "📍 Location Type",
					Default: "Market",
					Widget: Select{Options: []string{
						"Market", "Shopping_Mall", "Street_Shop", "Estate", "Online",
					}},
				},
				{
					Name:    "state",
					Label:   "🗺️ State",
					Default: "Lagos",
					Widget: Select{Options: []string{
						"Lagos", "Abuja", "Kano", "Port_Harcourt", "Ibadan", "Enugu",
					}},
				},
			},
		},
		{
			Title: "⚙️ Store Operations",
			Fields: []Field{
				{
					Name:    "num_employees",
					Label:   "👥 Number of Employees",
					Default: "3",
					Widget:  Slider{Min: 1, Max: 20, Step: 1},
				},
				{
					Name:    "store_size_sqm",
					Label:   "📐 Store Size (sqm)",
					Default: "50",
					Widget:  Slider{Min: 10, Max: 200, Step: 5},
				},
				{
					Name:    "opening_hours_per_day",
					Label:   "⏰ Opening Hours Per Day",
					Default: "12",
					Widget:  Slider{Min: 8, Max: 16, Step: 1},
				},
				{
					Name:    "foot_traffic_daily",
					Label:   "🚶 Daily Foot Traffic",
					Default: "100",
					Widget:  Slider{Min: 20, Max: 500, Step: 10},
				},
			},
		},
		{
			Title: "📦 Inventory & Products",
			Fields: []Field{
				{
					Name:    "num_products",
					Label:   "🛍️ Number of Products",
					Default: "100",
					Widget:  Slider{Min: 20, Max: 500, Step: 5},
				},
				{
					Name:    "inventory_value_naira",
					Label:   "📦 Inventory Value (₦)",
					Default: "500000",
					Widget:  Number{Min: 100000, Max: 5000000, Step: 10000},
				},
				{
					Name:    "average_product_price_naira",
					Label:   "💰 Average Product Price (₦)",
					Default: "5000",
					Widget:  Number{Min: 500, Max: 50000, Step: 100},
				},
				{
					Name:    "competition_nearby",
					Label:   "🏢 Nearby Competitors",
					Default: "3",
					Widget:  Slider{Min: 0, Max: 10, Step: 1},
				},
			},
		},
		{
			Title: "📣 Marketing & Customer Engagement",
			Fields: []Field{
				{
					Name:    "marketing_spend_naira",
					Label:   "📢 Monthly Marketing Spend (₦)",
					Default: "30000",
					Widget:  Number{Min: 5000, Max: 200000, Step: 1000},
				},
				{
					Name:    "customer_retention_rate",
					Label:   "🔄 Customer Retention Rate (%)",
					Default: "60",
					Widget:  Slider{Min: 30, Max: 95, Step: 1},
				},
				{
					Name:    "month",
					Label:   "📆 Month",
					Default: "January",
					Widget: Select{Options: []string{
						"January", "February", "March", "April", "May", "June",
						"July", "August", "September", "October", "November", "December",
					}},
				},
			},
		},
		{
			Title: "💳 Technology & Payment Options",
			Fields: []Field{
				{
					Name:    "has_online_presence",
					Label:   "🌐 Has Online Presence",
					Default: "0",
					Widget:  Checkbox{},
				},
				{
					Name:    "uses_pos",
					Label:   "💳 Uses POS System",
					Default: "1",
					Widget:  Checkbox{},
				},
				{
					Name:    "accepts_credit_cards",
					Label:   "💳 Accepts Credit/Debit Cards",
					Default: "1",
					Widget:  Checkbox{},
				},
				{
					Name:    "has_loyalty_program",
					Label:   "⭐ Has Loyalty Program",
					Default: "0",
					Widget:  Checkbox{},
				},
				{
					Name:    "has_parking",
					Label:   "🅿️ Has Dedicated Parking",
					Default: "0",
					Widget:  Checkbox{},
				},
			},
		},
	}}
}
