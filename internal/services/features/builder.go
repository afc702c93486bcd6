package features

import "FlightFare/internal/domain/models"

// Builder maps validated requests onto dense feature vectors.
type Builder struct {
	schema *Schema
	// vector positions of the typed numeric fields, -1 when the schema lacks one
	duration, daysLeft, departureTime, arrivalTime int
}

// NewBuilder creates a builder for schema.
func NewBuilder(schema *Schema) *Builder {
	pos := func(name string) int {
		if i, ok := schema.Index(name); ok {
			return i
		}
		return -1
	}
	return &Builder{
		schema:        schema,
		duration:      pos(Duration),
		daysLeft:      pos(DaysLeft),
		departureTime: pos(DepartureTime),
		arrivalTime:   pos(ArrivalTime),
	}
}

// Schema returns the schema the builder lays vectors out for.
func (b *Builder) Schema() *Schema { return b.schema }

// Build returns a fresh vector for req using its own days_left.
func (b *Builder) Build(req models.FareRequest) models.FeatureVector {
	return b.BuildWithDaysLeft(req, req.DaysLeft)
}

// BuildWithDaysLeft returns a fresh vector for req with days_left replaced by daysLeft.
// req is not modified. Flag values other than 0 and 1 are copied as is.
func (b *Builder) BuildWithDaysLeft(req models.FareRequest, daysLeft float64) models.FeatureVector {
	v := make(models.FeatureVector, b.schema.Len())

	set := func(i int, x float64) {
		if i >= 0 {
			v[i] = x
		}
	}
	set(b.duration, req.Duration)
	set(b.daysLeft, daysLeft)
	set(b.departureTime, req.DepartureTime)
	set(b.arrivalTime, req.ArrivalTime)

	for name, x := range req.Flags {
		if i, ok := b.schema.Index(name); ok && b.schema.IsOneHot(name) {
			v[i] = float64(x)
		}
	}
	return v
}
