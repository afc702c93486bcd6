package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/domain/repository"
	pkgch "FlightFare/pkg/clickhouse"
	pkgkafka "FlightFare/pkg/kafka"
	"FlightFare/pkg/logger"
)

const predictionColumns = "id, request_id, kind, source, airline, source_city, destination_city, class, stops, duration, days_left, price, points, model, created_at"

// PredictionSchema returns the DDL for the predictions table in database db.
func PredictionSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
    id               UUID,
    request_id       String,
    kind             LowCardinality(String),
    source           LowCardinality(String),
    airline          LowCardinality(String),
    source_city      LowCardinality(String),
    destination_city LowCardinality(String),
    class            LowCardinality(String),
    stops            LowCardinality(String),
    duration         Float64,
    days_left        Float64,
    price            Float64,
    points           UInt16,
    model            LowCardinality(String),
    created_at       DateTime64(3)
) ENGINE = MergeTree
PARTITION BY toYYYYMM(created_at)
ORDER BY (source_city, destination_city, created_at)`, db),
	}
}

// ClickHouseStore implements PredictionStore for ClickHouse.
type ClickHouseStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	log    *logger.Logger
}

// NewClickHouseStore creates a store writing to <database>.predictions.
func NewClickHouseStore(client *pkgch.Client, l *logger.Logger) repository.PredictionStore {
	if l == nil {
		l = logger.Nop()
	}
	return &ClickHouseStore{
		client: client,
		db:     client.DB(),
		table:  client.Database() + ".predictions",
		log:    l.With("clickhouse-store"),
	}
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, PredictionSchema(s.client.Database()))
}

func (s *ClickHouseStore) Store(ctx context.Context, e *models.PredictionEvent) error {
	return s.StoreBatch(ctx, []*models.PredictionEvent{e})
}

// StoreBatch inserts events with multi-row VALUES in chunks.
func (s *ClickHouseStore) StoreBatch(ctx context.Context, events []*models.PredictionEvent) error {
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}
		q, args := insertQuery(s.table, events[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.log.Error("clickhouse insert failed", logger.Int("rows", end-start), logger.Error(err))
			return fmt.Errorf("insert predictions: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseStore) Close() error {
	return s.client.Close()
}

func insertQuery(table string, events []*models.PredictionEvent) (string, []any) {
	values := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*15)
	for _, e := range events {
		if e == nil || e.ID == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.ID,
			e.RequestID,
			string(e.Kind),
			string(e.Source),
			e.Airline,
			e.SourceCity,
			e.DestinationCity,
			e.Class,
			e.Stops,
			e.Duration,
			e.DaysLeft,
			e.Price,
			uint16(e.Points),
			e.Model,
			e.CreatedAt,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, predictionColumns, strings.Join(values, ","))
	return q, args
}

// KafkaPublisher implements PredictionPublisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a publisher keyed by route, so one route stays on one partition.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.PredictionPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Route()), eventPayload(e))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*models.PredictionEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Route()), Value: eventPayload(e)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func eventPayload(e *models.PredictionEvent) map[string]interface{} {
	return map[string]interface{}{
		"id":               e.ID,
		"request_id":       e.RequestID,
		"kind":             e.Kind,
		"source":           e.Source,
		"airline":          e.Airline,
		"source_city":      e.SourceCity,
		"destination_city": e.DestinationCity,
		"class":            e.Class,
		"stops":            e.Stops,
		"duration":         e.Duration,
		"days_left":        e.DaysLeft,
		"price":            models.RoundPrice(e.Price),
		"points":           e.Points,
		"model":            e.Model,
		"ts":               e.CreatedAt.UnixMilli(),
	}
}
