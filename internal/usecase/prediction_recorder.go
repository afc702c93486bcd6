package usecase

import (
	"context"
	"fmt"
	"time"

	"FlightFare/internal/domain/models"
	drepo "FlightFare/internal/domain/repository"
	"FlightFare/pkg/logger"
)

// Backend names accepted by PredictionRecorder.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// PredictionRecorder routes prediction events to the configured backend.
type PredictionRecorder struct {
	pub     drepo.PredictionPublisher
	store   drepo.PredictionStore
	metrics drepo.Metrics
	backend string
	timeout time.Duration
	log     *logger.Logger
}

// NewPredictionRecorder creates a recorder. pub and store may be nil when their backend is not selected.
func NewPredictionRecorder(
	pub drepo.PredictionPublisher,
	store drepo.PredictionStore,
	metrics drepo.Metrics,
	backend string,
	timeout time.Duration,
	l *logger.Logger,
) *PredictionRecorder {
	if l == nil {
		l = logger.Nop()
	}
	if backend == "" {
		backend = BackendNone
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PredictionRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		timeout: timeout,
		log:     l.With("prediction-recorder"),
	}
}

// Backend returns the configured backend name.
func (p *PredictionRecorder) Backend() string { return p.backend }

// Process sends a single event to the configured backend within the recorder timeout.
func (p *PredictionRecorder) Process(ctx context.Context, e *models.PredictionEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.Publish(ctx, e)
	case BackendClickHouse:
		err = p.store.Store(ctx, e)
	case BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("record")
		return fmt.Errorf("record prediction: %w", err)
	}

	p.metrics.RecordPrediction(p.backend, e)
	p.metrics.RecordLastPrice(e.Route(), e.Price)
	p.metrics.RecordLatency("record", time.Since(start).Seconds())

	return nil
}

// ProcessBatch sends several events in one call.
func (p *PredictionRecorder) ProcessBatch(ctx context.Context, events []*models.PredictionEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, events)
	case BackendClickHouse:
		err = p.store.StoreBatch(ctx, events)
	case BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}

	for _, e := range events {
		p.metrics.RecordPrediction(p.backend, e)
		p.metrics.RecordLastPrice(e.Route(), e.Price)
	}
	p.metrics.RecordLatency("record_batch", time.Since(start).Seconds())

	return nil
}

// Close closes the backends.
func (p *PredictionRecorder) Close() {
	if p.pub != nil {
		if err := p.pub.Close(); err != nil {
			p.log.Warn("close publisher", logger.Error(err))
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.Warn("close store", logger.Error(err))
		}
	}
}
