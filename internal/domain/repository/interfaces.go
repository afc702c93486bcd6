package repository

import (
	"context"

	"FlightFare/internal/domain/models"
)

// PredictionPublisher ships prediction events to a message bus.
type PredictionPublisher interface {
	Publish(ctx context.Context, e *models.PredictionEvent) error
	PublishBatch(ctx context.Context, events []*models.PredictionEvent) error
	Close() error
}

// PredictionStore persists prediction events.
type PredictionStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, e *models.PredictionEvent) error
	StoreBatch(ctx context.Context, events []*models.PredictionEvent) error
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordPrediction(backend string, e *models.PredictionEvent)
	RecordError(kind string)
	RecordLastPrice(route string, price float64)
	RecordLatency(op string, seconds float64)
}
