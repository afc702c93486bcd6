package features

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return m
}

const exampleBody = `{
	"duration": 120, "days_left": 15, "departure_time": 8.5, "arrival_time": 10.5,
	"airline_Air_India": 1, "source_city_Delhi": 1, "destination_city_Mumbai": 1,
	"class_Economy": 1, "stops_zero": 1
}`

func TestDefaultSchemaLayout(t *testing.T) {
	s := DefaultSchema()
	if s.Len() != 27 {
		t.Fatalf("expected 27 features, got %d", s.Len())
	}
	names := s.Names()
	want := []string{Duration, DaysLeft, DepartureTime, ArrivalTime}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("position %d: expected %s, got %s", i, n, names[i])
		}
	}
	if names[26] != "stops_zero" {
		t.Fatalf("unexpected last feature %s", names[26])
	}
	c, ok := s.CategoryOf("destination_city_Mumbai")
	if !ok || c.Name != "destination_city" {
		t.Fatalf("unexpected category %+v", c)
	}
	if _, ok := s.CategoryOf("duration"); ok {
		t.Fatalf("numeric feature must not belong to a category")
	}
	names[0] = "mutated"
	if s.Names()[0] != Duration {
		t.Fatalf("Names must return a copy")
	}
}

func TestNewSchemaRejectsInconsistentLayouts(t *testing.T) {
	cats := []Category{{Name: "a", Prefix: "a_"}, {Name: "b", Prefix: "b_"}}
	cases := map[string][]string{
		"duplicate":      {"a_x", "a_x", "b_y"},
		"no category":    {"a_x", "b_y", "c_z"},
		"empty category": {"a_x"},
	}
	for name, oneHot := range cases {
		if _, err := NewSchema([]string{"n"}, cats, oneHot); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	overlapping := []Category{{Name: "a", Prefix: "a_"}, {Name: "ab", Prefix: "a_b"}}
	if _, err := NewSchema(nil, overlapping, []string{"a_bc"}); err == nil {
		t.Fatalf("expected error for overlapping prefixes")
	}
}

func TestValidateMissingNumericField(t *testing.T) {
	v := NewValidator(DefaultSchema())
	for _, f := range []string{DaysLeft, Duration, DepartureTime, ArrivalTime} {
		raw := decode(t, exampleBody)
		delete(raw, f)
		err := v.Validate(raw)
		var mf *MissingFieldError
		if !errors.As(err, &mf) || mf.Field != f {
			t.Fatalf("expected missing %s, got %v", f, err)
		}
		if !strings.Contains(err.Error(), f) {
			t.Fatalf("message %q does not name %s", err.Error(), f)
		}
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest")
		}
	}
}

func TestValidateChecksDaysLeftFirst(t *testing.T) {
	err := NewValidator(DefaultSchema()).Validate(map[string]any{})
	if err == nil || err.Error() != "Missing required field: days_left" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateRejectsNonNumeric(t *testing.T) {
	v := NewValidator(DefaultSchema())
	for _, bad := range []any{"120", true, nil, []any{1}} {
		raw := decode(t, exampleBody)
		raw[Duration] = bad
		err := v.Validate(raw)
		var tm *TypeMismatchError
		if !errors.As(err, &tm) || tm.Field != Duration {
			t.Fatalf("value %v: expected type mismatch, got %v", bad, err)
		}
		if err.Error() != "duration must be numeric" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestValidateEmptyCategory(t *testing.T) {
	raw := decode(t, exampleBody)
	delete(raw, "stops_zero")
	err := NewValidator(DefaultSchema()).Validate(raw)
	var ec *EmptyCategoryError
	if !errors.As(err, &ec) || ec.Category != "stops" {
		t.Fatalf("expected empty stops category, got %v", err)
	}
	want := "No stops features found. At least one stops feature must be set."
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateCategoryWithoutSelection(t *testing.T) {
	raw := decode(t, exampleBody)
	raw["class_Economy"] = json.Number("0")
	raw["class_Business"] = json.Number("0")
	err := NewValidator(DefaultSchema()).Validate(raw)
	var ac *AmbiguousCategoryError
	if !errors.As(err, &ac) || ac.Category != "class" {
		t.Fatalf("expected ambiguous class, got %v", err)
	}
	if err.Error() != "Exactly one class must be selected (set to 1)" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateCategoriesInOrder(t *testing.T) {
	raw := decode(t, `{"duration": 1, "days_left": 1, "departure_time": 1, "arrival_time": 1}`)
	err := NewValidator(DefaultSchema()).Validate(raw)
	var ec *EmptyCategoryError
	if !errors.As(err, &ec) || ec.Category != "airline" {
		t.Fatalf("expected airline to be checked first, got %v", err)
	}
}

func TestValidateAllowsSeveralFlagsByDefault(t *testing.T) {
	raw := decode(t, exampleBody)
	raw["airline_Vistara"] = json.Number("1")
	if err := NewValidator(DefaultSchema()).Validate(raw); err != nil {
		t.Fatalf("expected at-least-one semantics, got %v", err)
	}
}

func TestValidateStrictRejectsSeveralFlags(t *testing.T) {
	raw := decode(t, exampleBody)
	raw["airline_Vistara"] = json.Number("1")
	err := NewValidator(DefaultSchema(), WithStrictOneHot(true)).Validate(raw)
	var ac *AmbiguousCategoryError
	if !errors.As(err, &ac) || ac.Category != "airline" || ac.Selected != 2 {
		t.Fatalf("expected strict rejection, got %v", err)
	}
	if err := NewValidator(DefaultSchema(), WithStrictOneHot(true)).Validate(decode(t, exampleBody)); err != nil {
		t.Fatalf("single selection must pass strict mode: %v", err)
	}
}

func TestValidateCountsUnknownPrefixedKeys(t *testing.T) {
	raw := decode(t, exampleBody)
	delete(raw, "airline_Air_India")
	raw["airline_Akasa"] = json.Number("1")
	v := NewValidator(DefaultSchema())
	if err := v.Validate(raw); err != nil {
		t.Fatalf("unknown prefixed key should satisfy the category: %v", err)
	}
	req, err := v.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := req.Flags["airline_Akasa"]; ok {
		t.Fatalf("unknown key must not reach the request flags")
	}
}

func TestValidateRejectsNonNumericFlag(t *testing.T) {
	raw := decode(t, exampleBody)
	raw["airline_Vistara"] = "yes"
	err := NewValidator(DefaultSchema()).Validate(raw)
	var tm *TypeMismatchError
	if !errors.As(err, &tm) || tm.Field != "airline_Vistara" {
		t.Fatalf("expected type mismatch on flag, got %v", err)
	}
}

func TestValidateAcceptsBooleanFlags(t *testing.T) {
	s := DefaultSchema()
	raw := decode(t, exampleBody)
	raw["airline_Air_India"] = true
	raw["airline_Vistara"] = false

	req, err := NewValidator(s).Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Flags["airline_Air_India"] != 1 || req.Flags["airline_Vistara"] != 0 {
		t.Fatalf("unexpected flags %v", req.Flags)
	}
	vec := NewBuilder(s).Build(req)
	if i, _ := s.Index("airline_Air_India"); vec[i] != 1 {
		t.Fatalf("expected airline_Air_India=1 in vector, got %v", vec[i])
	}

	raw["airline_Air_India"] = false
	err = NewValidator(s).Validate(raw)
	var ae *AmbiguousCategoryError
	if !errors.As(err, &ae) || ae.Category != "airline" {
		t.Fatalf("expected ambiguous airline with no true flag, got %v", err)
	}
}

func TestBuildEndToEndExample(t *testing.T) {
	s := DefaultSchema()
	req, err := NewValidator(s).Parse(decode(t, exampleBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vec := NewBuilder(s).Build(req)
	if len(vec) != 27 {
		t.Fatalf("expected 27 values, got %d", len(vec))
	}

	want := map[string]float64{
		Duration: 120, DaysLeft: 15, DepartureTime: 8.5, ArrivalTime: 10.5,
		"airline_Air_India": 1, "source_city_Delhi": 1, "destination_city_Mumbai": 1,
		"class_Economy": 1, "stops_zero": 1,
	}
	for i, name := range s.Names() {
		if vec[i] != want[name] {
			t.Fatalf("%s: expected %v, got %v", name, want[name], vec[i])
		}
	}
}

func TestBuildCategorySumsAtLeastOne(t *testing.T) {
	s := DefaultSchema()
	bodies := []string{
		exampleBody,
		`{"duration": 2.5, "days_left": 1, "departure_time": 0, "arrival_time": 22,
		  "airline_Vistara": 1, "airline_Indigo": 1, "source_city_Mumbai": 1, "destination_city_Delhi": 1,
		  "destination_city_Chennai": 0, "class_Business": 1, "stops_one": 1, "stops_two_or_more": 1}`,
	}
	v, b := NewValidator(s), NewBuilder(s)
	for _, body := range bodies {
		req, err := v.Parse(decode(t, body))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		vec := b.Build(req)
		for _, c := range s.Categories() {
			sum := 0.0
			for i, name := range s.Names() {
				if strings.HasPrefix(name, c.Prefix) {
					sum += vec[i]
				}
			}
			if sum < 1 {
				t.Fatalf("category %s sums to %v", c.Name, sum)
			}
		}
	}
}

func TestBuildIsDeterministicAndFresh(t *testing.T) {
	s := DefaultSchema()
	req, err := NewValidator(s).Parse(decode(t, exampleBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := NewBuilder(s)
	a1, a2 := b.Build(req), b.Build(req)
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("position %d differs: %v vs %v", i, a1[i], a2[i])
		}
	}
	a1[0] = -1
	if a2[0] == -1 {
		t.Fatalf("vectors must not share storage")
	}
}

func TestBuildWithDaysLeftOverridesOnlyDaysLeft(t *testing.T) {
	s := DefaultSchema()
	req, err := NewValidator(s).Parse(decode(t, exampleBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := NewBuilder(s)
	base := b.Build(req)
	over := b.BuildWithDaysLeft(req, -7)
	idx, _ := s.Index(DaysLeft)
	for i := range base {
		if i == idx {
			if over[i] != -7 {
				t.Fatalf("expected override -7, got %v", over[i])
			}
			continue
		}
		if base[i] != over[i] {
			t.Fatalf("position %d changed", i)
		}
	}
	if req.DaysLeft != 15 {
		t.Fatalf("request must not be mutated, days_left=%v", req.DaysLeft)
	}
}

func TestBuildTruncatesAndPassesThroughFlagValues(t *testing.T) {
	s := DefaultSchema()
	raw := decode(t, exampleBody)
	raw["stops_one"] = json.Number("2.9")
	req, err := NewValidator(s).Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vec := NewBuilder(s).Build(req)
	idx, _ := s.Index("stops_one")
	if vec[idx] != 2 {
		t.Fatalf("expected integer-coerced 2, got %v", vec[idx])
	}
}

func TestParseTrendDepartureDate(t *testing.T) {
	v := NewValidator(DefaultSchema())

	raw := decode(t, exampleBody)
	req, err := v.ParseTrend(raw)
	if err != nil || req.HasDepartureDate() {
		t.Fatalf("absent date: %+v %v", req, err)
	}

	raw["departure_date"] = ""
	if req, err = v.ParseTrend(raw); err != nil || req.HasDepartureDate() {
		t.Fatalf("empty date: %+v %v", req, err)
	}

	raw["departure_date"] = "2025-10-15"
	req, err = v.ParseTrend(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := req.DepartureDate.Format("2006-01-02"); got != "2025-10-15" {
		t.Fatalf("unexpected date %s", got)
	}

	raw["departure_date"] = "0001-01-01"
	if req, err = v.ParseTrend(raw); err != nil || !req.HasDepartureDate() || !req.DepartureDate.IsZero() {
		t.Fatalf("explicit zero date must be kept: %+v %v", req, err)
	}

	for _, bad := range []any{"15/10/2025", "2025-13-01", json.Number("20251015")} {
		raw["departure_date"] = bad
		_, err := v.ParseTrend(raw)
		var de *InvalidDateError
		if !errors.As(err, &de) || !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("value %v: expected invalid date, got %v", bad, err)
		}
	}
}

func TestSchemaSelected(t *testing.T) {
	s := DefaultSchema()
	req, err := NewValidator(s).Parse(decode(t, exampleBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[string]string{}
	for _, c := range s.Categories() {
		got[c.Name] = s.Selected(req, c)
	}
	want := map[string]string{
		"airline": "Air_India", "source_city": "Delhi", "destination_city": "Mumbai",
		"class": "Economy", "stops": "zero",
	}
	for k, w := range want {
		if got[k] != w {
			t.Fatalf("%s: expected %s, got %s", k, w, got[k])
		}
	}
}
