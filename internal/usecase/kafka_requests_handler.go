package usecase

import (
	"context"
	"errors"
	"fmt"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/services/features"
	pkgkafka "FlightFare/pkg/kafka"
)

// RequestIDKey is the optional message field carrying the caller's correlation id.
const RequestIDKey = "request_id"

// KafkaRequestsHandler scores fare requests consumed from Kafka.
// Each message is a /predict body plus an optional request_id.
type KafkaRequestsHandler struct {
	topic string
	fares *FarePredictor
}

func NewKafkaRequestsHandler(topic string, fares *FarePredictor) *KafkaRequestsHandler {
	return &KafkaRequestsHandler{topic: topic, fares: fares}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// Handle returns permanent errors for messages that can never succeed so they skip retries.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	raw, err := features.DecodeBytes(b)
	if err != nil {
		return pkgkafka.Permanent(err)
	}

	requestID, _ := raw[RequestIDKey].(string)
	if requestID == "" {
		requestID = pkgkafka.TraceIDFromContext(ctx)
	}

	if _, err := h.fares.Predict(ctx, raw, models.SourceKafka, requestID); err != nil {
		if errors.Is(err, features.ErrInvalidRequest) {
			return pkgkafka.Permanent(fmt.Errorf("request %s: %w", requestID, err))
		}
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
