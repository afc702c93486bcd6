package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API tracks latency and errors of the fare endpoints.
type API struct {
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	limited  *prometheus.CounterVec
	wsFrames prometheus.Counter
}

// NewAPI registers endpoint metrics on reg.
func NewAPI(reg prometheus.Registerer) *API {
	f := promauto.With(reg)
	return &API{
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flightfare",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of fare endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flightfare",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by fare endpoint and status class",
			},
			[]string{"endpoint", "class"},
		),
		limited: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flightfare",
				Subsystem: "api",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the trend rate limiter",
			},
			[]string{"endpoint"},
		),
		wsFrames: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flightfare",
				Subsystem: "api",
				Name:      "ws_frames_total",
				Help:      "Trend frames written to websocket clients",
			},
		),
	}
}

// Observe records one endpoint call. status is the HTTP status written.
func (a *API) Observe(endpoint string, status int, d time.Duration) {
	if a == nil {
		return
	}
	a.latency.WithLabelValues(endpoint).Observe(d.Seconds())
	switch {
	case status >= 500:
		a.errors.WithLabelValues(endpoint, "5xx").Inc()
	case status >= 400:
		a.errors.WithLabelValues(endpoint, "4xx").Inc()
	}
}

func (a *API) RateLimited(endpoint string) {
	if a == nil {
		return
	}
	a.limited.WithLabelValues(endpoint).Inc()
}

func (a *API) Frame() {
	if a == nil {
		return
	}
	a.wsFrames.Inc()
}
