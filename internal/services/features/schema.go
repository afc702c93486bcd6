package features

import (
	"fmt"
	"strings"

	"FlightFare/internal/domain/models"
)

// Numeric feature names.
const (
	Duration      = "duration"
	DaysLeft      = "days_left"
	DepartureTime = "departure_time"
	ArrivalTime   = "arrival_time"
)

// Category is a group of one-hot features sharing a name prefix.
type Category struct {
	Name   string
	Prefix string
}

// Option returns the option name encoded by feature, e.g. "Vistara" for "airline_Vistara".
func (c Category) Option(feature string) string {
	return strings.TrimPrefix(feature, c.Prefix)
}

var defaultNumeric = []string{Duration, DaysLeft, DepartureTime, ArrivalTime}

var defaultCategories = []Category{
	{Name: "airline", Prefix: "airline_"},
	{Name: "source_city", Prefix: "source_city_"},
	{Name: "destination_city", Prefix: "destination_city_"},
	{Name: "class", Prefix: "class_"},
	{Name: "stops", Prefix: "stops_"},
}

var defaultOneHot = []string{
	"airline_AirAsia", "airline_Air_India", "airline_GO_FIRST", "airline_Indigo", "airline_SpiceJet", "airline_Vistara",
	"source_city_Bangalore", "source_city_Chennai", "source_city_Delhi", "source_city_Hyderabad", "source_city_Kolkata", "source_city_Mumbai",
	"destination_city_Bangalore", "destination_city_Chennai", "destination_city_Delhi", "destination_city_Hyderabad", "destination_city_Kolkata", "destination_city_Mumbai",
	"class_Business", "class_Economy",
	"stops_one", "stops_two_or_more", "stops_zero",
}

// Schema is the ordered list of model input features. Immutable after construction.
type Schema struct {
	names      []string
	index      map[string]int
	numeric    []string
	categories []Category
	categoryOf map[string]int
}

// NewSchema builds a schema laid out as numeric features followed by one-hot features.
// Every one-hot feature must match exactly one category prefix and every category needs a feature.
func NewSchema(numeric []string, categories []Category, oneHot []string) (*Schema, error) {
	s := &Schema{
		names:      make([]string, 0, len(numeric)+len(oneHot)),
		index:      make(map[string]int, len(numeric)+len(oneHot)),
		numeric:    append([]string(nil), numeric...),
		categories: append([]Category(nil), categories...),
		categoryOf: make(map[string]int, len(oneHot)),
	}

	add := func(name string) error {
		if name == "" {
			return fmt.Errorf("empty feature name")
		}
		if _, dup := s.index[name]; dup {
			return fmt.Errorf("duplicate feature %q", name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
		return nil
	}

	for _, n := range numeric {
		if err := add(n); err != nil {
			return nil, err
		}
	}

	counts := make([]int, len(categories))
	for _, n := range oneHot {
		if err := add(n); err != nil {
			return nil, err
		}
		match := -1
		for i, c := range categories {
			if !strings.HasPrefix(n, c.Prefix) {
				continue
			}
			if match >= 0 {
				return nil, fmt.Errorf("feature %q matches categories %q and %q", n, categories[match].Name, c.Name)
			}
			match = i
		}
		if match < 0 {
			return nil, fmt.Errorf("feature %q matches no category", n)
		}
		s.categoryOf[n] = match
		counts[match]++
	}

	for i, c := range categories {
		if counts[i] == 0 {
			return nil, fmt.Errorf("category %q has no features", c.Name)
		}
	}

	return s, nil
}

// DefaultSchema returns the 27-feature schema the fare model was trained on.
func DefaultSchema() *Schema {
	s, err := NewSchema(defaultNumeric, defaultCategories, defaultOneHot)
	if err != nil {
		panic(fmt.Sprintf("features: default schema: %v", err))
	}
	return s
}

// Names returns a copy of the feature names in vector order.
func (s *Schema) Names() []string { return append([]string(nil), s.names...) }

// Len is the vector width.
func (s *Schema) Len() int { return len(s.names) }

// Index returns the vector position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Numeric returns the numeric feature names in vector order.
func (s *Schema) Numeric() []string { return append([]string(nil), s.numeric...) }

// Categories returns the categories in validation order.
func (s *Schema) Categories() []Category { return append([]Category(nil), s.categories...) }

// IsOneHot reports whether name is a one-hot feature of the schema.
func (s *Schema) IsOneHot(name string) bool {
	_, ok := s.categoryOf[name]
	return ok
}

// CategoryOf returns the category of a one-hot feature.
func (s *Schema) CategoryOf(name string) (Category, bool) {
	i, ok := s.categoryOf[name]
	if !ok {
		return Category{}, false
	}
	return s.categories[i], true
}

// Selected returns the first option of category c set to 1 in req, in schema order, or "".
func (s *Schema) Selected(req models.FareRequest, c Category) string {
	for _, n := range s.names[len(s.numeric):] {
		if req.Flags[n] == 1 && strings.HasPrefix(n, c.Prefix) {
			return c.Option(n)
		}
	}
	return ""
}
