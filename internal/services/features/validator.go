package features

import (
	"encoding/json"
	"math"
	"strings"

	"FlightFare/internal/domain/models"
	"FlightFare/pkg/util"
)

// DepartureDateKey is the optional trend request field holding the departure date.
const DepartureDateKey = "departure_date"

// Option configures a Validator.
type Option func(*Validator)

// WithStrictOneHot additionally rejects categories with more than one flag set to 1.
func WithStrictOneHot(strict bool) Option {
	return func(v *Validator) {
		v.strict = strict
	}
}

// Validator checks raw request maps against a Schema and turns them into FareRequest values.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	schema   *Schema
	strict   bool
	required []string
}

// NewValidator creates a validator for schema.
func NewValidator(schema *Schema, opts ...Option) *Validator {
	v := &Validator{schema: schema}
	for _, opt := range opts {
		opt(v)
	}

	// days_left is checked first, then the other numeric fields in schema order.
	numeric := schema.Numeric()
	v.required = make([]string, 0, len(numeric))
	for _, n := range numeric {
		if n == DaysLeft {
			v.required = append(v.required, n)
		}
	}
	for _, n := range numeric {
		if n != DaysLeft {
			v.required = append(v.required, n)
		}
	}
	return v
}

// Strict reports whether exactly-one semantics are enforced.
func (v *Validator) Strict() bool { return v.strict }

// Validate performs the structural checks and returns the first failure.
// Numeric fields are checked before categories; categories in schema order.
func (v *Validator) Validate(raw map[string]any) error {
	for _, f := range v.required {
		val, ok := raw[f]
		if !ok {
			return &MissingFieldError{Field: f}
		}
		if _, ok := toFloat(val); !ok {
			return &TypeMismatchError{Field: f}
		}
	}

	for _, c := range v.schema.categories {
		present, selected := 0, 0
		for k, val := range raw {
			if !strings.HasPrefix(k, c.Prefix) {
				continue
			}
			present++
			if f, ok := toFlag(val); ok && f == 1 {
				selected++
			}
		}
		if present == 0 {
			return &EmptyCategoryError{Category: c.Name}
		}
		if selected == 0 || (v.strict && selected > 1) {
			return &AmbiguousCategoryError{Category: c.Name, Selected: selected}
		}
	}

	// Schema flags are copied into the vector, so they must be numbers or booleans.
	for _, n := range v.schema.names[len(v.schema.numeric):] {
		val, ok := raw[n]
		if !ok {
			continue
		}
		if _, ok := toFlag(val); !ok {
			return &TypeMismatchError{Field: n}
		}
	}

	return nil
}

// Parse validates raw and converts it into a FareRequest. departure_date is ignored.
// Unknown keys, including prefixed keys outside the schema, are dropped after validation.
func (v *Validator) Parse(raw map[string]any) (models.FareRequest, error) {
	if err := v.Validate(raw); err != nil {
		return models.FareRequest{}, err
	}

	var req models.FareRequest
	for _, f := range v.required {
		x, _ := toFloat(raw[f])
		switch f {
		case Duration:
			req.Duration = x
		case DaysLeft:
			req.DaysLeft = x
		case DepartureTime:
			req.DepartureTime = x
		case ArrivalTime:
			req.ArrivalTime = x
		}
	}

	req.Flags = make(map[string]int, len(v.schema.names)-len(v.schema.numeric))
	for _, n := range v.schema.names[len(v.schema.numeric):] {
		val, ok := raw[n]
		if !ok {
			continue
		}
		x, _ := toFlag(val)
		req.Flags[n] = int(x)
	}

	return req, nil
}

// ParseTrend is Parse plus the optional departure_date. A missing, null or empty date leaves
// HasDate unset; anything else that is not a YYYY-MM-DD string fails with InvalidDateError.
func (v *Validator) ParseTrend(raw map[string]any) (models.FareRequest, error) {
	req, err := v.Parse(raw)
	if err != nil {
		return req, err
	}

	val, ok := raw[DepartureDateKey]
	if !ok || val == nil {
		return req, nil
	}
	s, ok := val.(string)
	if !ok {
		return models.FareRequest{}, &InvalidDateError{Value: val}
	}
	if s == "" {
		return req, nil
	}
	d, ok := util.ParseDate(s)
	if !ok {
		return models.FareRequest{}, &InvalidDateError{Value: s}
	}
	req.SetDepartureDate(d)
	return req, nil
}

// toFlag is toFloat for one-hot keys, which also accept true (1) and false (0).
func toFlag(v any) (float64, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return toFloat(v)
}

// toFloat accepts JSON numbers only. Booleans, strings and null are not numeric.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
