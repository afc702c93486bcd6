package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/services/features"
	"FlightFare/internal/services/forecast"
)

const exampleBody = `{
	"duration": 120, "days_left": 15, "departure_time": 8.5, "arrival_time": 10.5,
	"airline_Air_India": 1, "source_city_Delhi": 1, "destination_city_Mumbai": 1,
	"class_Economy": 1, "stops_zero": 1
}`

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

// linearPredictor prices a vector as 5000 + 10*days_left.
type linearPredictor struct {
	idx int
	err error
}

func (p *linearPredictor) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return 5000 + 10*v[p.idx], nil
}

func (p *linearPredictor) Kind() string { return "linear" }

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	lastPrice   map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		predictions: map[string]int{},
		errors:      map[string]int{},
		lastPrice:   map[string]float64{},
	}
}

func (m *fakeMetrics) RecordPrediction(backend string, e *models.PredictionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[backend]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastPrice(route string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrice[route] = price
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type sinkRecorder struct {
	mu     sync.Mutex
	events []*models.PredictionEvent
}

func (s *sinkRecorder) Record(e *models.PredictionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.PredictionEvent
	err    error
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, e *models.PredictionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, events []*models.PredictionEvent) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type fakeStore struct {
	fakePublisher
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(ctx context.Context, e *models.PredictionEvent) error {
	return s.Publish(ctx, e)
}

func (s *fakeStore) StoreBatch(ctx context.Context, events []*models.PredictionEvent) error {
	return s.PublishBatch(ctx, events)
}

func (s *fakeStore) Health(context.Context) error { return nil }

var errModelDown = errors.New("model down")

func newFarePredictor(t *testing.T, predErr error) (*FarePredictor, *sinkRecorder, *fakeMetrics) {
	t.Helper()
	s := features.DefaultSchema()
	idx, _ := s.Index(features.DaysLeft)
	p := &linearPredictor{idx: idx, err: predErr}
	b := features.NewBuilder(s)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	engine := forecast.New(b, p,
		forecast.WithClock(func() time.Time { return now }),
		forecast.WithLocation(time.UTC),
	)
	sink := &sinkRecorder{}
	m := newFakeMetrics()
	u := NewFarePredictor(features.NewValidator(s), b, p, engine, sink, m, time.Second, nil)
	u.now = func() time.Time { return now }
	return u, sink, m
}
