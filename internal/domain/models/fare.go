package models

import (
	"math"
	"time"
)

// FareRequest is a parsed and validated prediction request.
// Flags holds the schema one-hot features present in the request body, keyed by feature name.
type FareRequest struct {
	Duration      float64
	DaysLeft      float64
	DepartureTime float64
	ArrivalTime   float64
	Flags         map[string]int
	DepartureDate time.Time // civil date at UTC midnight
	HasDate       bool      // set only when the request carried departure_date
}

// HasDepartureDate reports whether the request carried a departure date.
func (r FareRequest) HasDepartureDate() bool { return r.HasDate }

// SetDepartureDate records an explicit departure date, including the zero date 0001-01-01.
func (r *FareRequest) SetDepartureDate(d time.Time) {
	r.DepartureDate = d
	r.HasDate = true
}

// FeatureVector is the dense model input, ordered like the feature schema.
type FeatureVector []float64

// Series identifies which half of a trend a point belongs to.
type Series string

const (
	SeriesHistorical Series = "historical"
	SeriesForecast   Series = "forecast"
)

// ForecastPoint is one dated prediction of a trend.
type ForecastPoint struct {
	Date  time.Time
	Price float64
}

// FareTrend is the full output of the forecast engine for one request.
type FareTrend struct {
	Today        time.Time
	Departure    time.Time
	BaseDaysLeft int
	Historical   []ForecastPoint
	Forecast     []ForecastPoint
}

// Source tells where a prediction was requested from.
type Source string

const (
	SourceHTTP      Source = "http"
	SourceWebsocket Source = "ws"
	SourceKafka     Source = "kafka"
)

// PredictionKind distinguishes single predictions from trend computations.
type PredictionKind string

const (
	KindPoint PredictionKind = "point"
	KindTrend PredictionKind = "trend"
)

// PredictionEvent is the record emitted for every served prediction.
// Categorical columns carry the selected option (e.g. "Vistara", "Delhi", "zero").
type PredictionEvent struct {
	ID              string
	RequestID       string
	Kind            PredictionKind
	Source          Source
	Airline         string
	SourceCity      string
	DestinationCity string
	Class           string
	Stops           string
	Duration        float64
	DaysLeft        float64
	Price           float64
	Points          int // number of trend points, 1 for single predictions
	Model           string
	CreatedAt       time.Time
}

// Route returns a low-cardinality "source-destination" label.
func (e *PredictionEvent) Route() string {
	if e.SourceCity == "" && e.DestinationCity == "" {
		return "unknown"
	}
	return e.SourceCity + "-" + e.DestinationCity
}

// RoundPrice rounds a price to two decimals for presentation.
func RoundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
