package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FlightFare/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightfare_predictions_total",
				Help: "Total number of predictions served",
			},
			[]string{"backend", "kind", "source", "airline"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightfare_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flightfare_last_price",
				Help: "Last predicted price for a route",
			},
			[]string{"route"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightfare_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a served prediction.
func (r *Recorder) RecordPrediction(backend string, e *models.PredictionEvent) {
	r.predictions.WithLabelValues(backend, string(e.Kind), string(e.Source), e.Airline).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a route.
func (r *Recorder) RecordLastPrice(route string, price float64) {
	r.lastPrice.WithLabelValues(route).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
