package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FlightFare/internal/domain/models"
	drepo "FlightFare/internal/domain/repository"
	domsvc "FlightFare/internal/domain/service"
	"FlightFare/internal/services/features"
	"FlightFare/internal/services/forecast"
	"FlightFare/pkg/logger"
)

// EventSink receives an event for every served prediction.
type EventSink interface {
	Record(e *models.PredictionEvent)
}

// FarePredictor serves single predictions and price trends.
type FarePredictor struct {
	validator    *features.Validator
	builder      *features.Builder
	predictor    domsvc.Predictor
	engine       *forecast.Engine
	sink         EventSink
	metrics      drepo.Metrics
	trendTimeout time.Duration
	now          func() time.Time
	log          *logger.Logger
}

// NewFarePredictor wires the prediction use case. sink may be nil.
func NewFarePredictor(
	validator *features.Validator,
	builder *features.Builder,
	predictor domsvc.Predictor,
	engine *forecast.Engine,
	sink EventSink,
	metrics drepo.Metrics,
	trendTimeout time.Duration,
	l *logger.Logger,
) *FarePredictor {
	if l == nil {
		l = logger.Nop()
	}
	return &FarePredictor{
		validator:    validator,
		builder:      builder,
		predictor:    predictor,
		engine:       engine,
		sink:         sink,
		metrics:      metrics,
		trendTimeout: trendTimeout,
		now:          time.Now,
		log:          l.With("fare-predictor"),
	}
}

// ModelKind names the model behind the predictor.
func (u *FarePredictor) ModelKind() string { return u.predictor.Kind() }

// FeatureCount is the model input width.
func (u *FarePredictor) FeatureCount() int { return u.builder.Schema().Len() }

// Predict validates raw and returns one price. departure_date is ignored.
// Validation failures match features.ErrInvalidRequest.
func (u *FarePredictor) Predict(ctx context.Context, raw map[string]any, src models.Source, requestID string) (float64, error) {
	start := time.Now()
	req, err := u.validator.Parse(raw)
	if err != nil {
		u.metrics.RecordError("validation")
		return 0, err
	}

	price, err := u.predictor.Predict(ctx, u.builder.Build(req))
	u.metrics.RecordLatency("predict", time.Since(start).Seconds())
	if err != nil {
		u.metrics.RecordError("inference")
		u.log.Error("prediction failed", logger.String("request_id", requestID), logger.Error(err))
		return 0, fmt.Errorf("predict: %w", err)
	}

	u.record(u.event(req, models.KindPoint, src, requestID, price, 1))
	return price, nil
}

// Trend validates raw and computes the full historical and forecast series.
func (u *FarePredictor) Trend(ctx context.Context, raw map[string]any, src models.Source, requestID string) (models.FareTrend, error) {
	req, err := u.parseTrend(raw)
	if err != nil {
		return models.FareTrend{}, err
	}

	ctx, cancel := u.withTrendTimeout(ctx)
	defer cancel()

	start := time.Now()
	trend, err := u.engine.Forecast(ctx, req)
	u.metrics.RecordLatency("trend", time.Since(start).Seconds())
	if err != nil {
		return models.FareTrend{}, u.trendFailed(requestID, err)
	}

	u.record(u.event(req, models.KindTrend, src, requestID, meanPrice(trend.Forecast), len(trend.Historical)+len(trend.Forecast)))
	return trend, nil
}

// StreamTrend is Trend with every point handed to emit as soon as it is computed.
// Validation happens before the first emit.
func (u *FarePredictor) StreamTrend(ctx context.Context, raw map[string]any, src models.Source, requestID string, emit forecast.EmitFunc) error {
	req, err := u.parseTrend(raw)
	if err != nil {
		return err
	}

	ctx, cancel := u.withTrendTimeout(ctx)
	defer cancel()

	var (
		points int
		sum    float64
		ahead  int
	)
	start := time.Now()
	_, err = u.engine.Stream(ctx, req, func(series models.Series, p models.ForecastPoint) error {
		points++
		if series == models.SeriesForecast {
			sum += p.Price
			ahead++
		}
		return emit(series, p)
	})
	u.metrics.RecordLatency("trend_stream", time.Since(start).Seconds())
	if err != nil {
		return u.trendFailed(requestID, err)
	}

	var mean float64
	if ahead > 0 {
		mean = sum / float64(ahead)
	}
	u.record(u.event(req, models.KindTrend, src, requestID, mean, points))
	return nil
}

func (u *FarePredictor) parseTrend(raw map[string]any) (models.FareRequest, error) {
	req, err := u.validator.ParseTrend(raw)
	if err != nil {
		u.metrics.RecordError("validation")
	}
	return req, err
}

func (u *FarePredictor) withTrendTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.trendTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.trendTimeout)
}

func (u *FarePredictor) trendFailed(requestID string, err error) error {
	kind := "inference"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = "trend_aborted"
	}
	u.metrics.RecordError(kind)
	u.log.Error("trend failed", logger.String("request_id", requestID), logger.String("kind", kind), logger.Error(err))
	return fmt.Errorf("trend: %w", err)
}

func (u *FarePredictor) record(e *models.PredictionEvent) {
	if u.sink != nil {
		u.sink.Record(e)
	}
}

func (u *FarePredictor) event(req models.FareRequest, kind models.PredictionKind, src models.Source, requestID string, price float64, points int) *models.PredictionEvent {
	schema := u.builder.Schema()
	selected := make(map[string]string, 5)
	for _, c := range schema.Categories() {
		selected[c.Name] = schema.Selected(req, c)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &models.PredictionEvent{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		Kind:            kind,
		Source:          src,
		Airline:         selected["airline"],
		SourceCity:      selected["source_city"],
		DestinationCity: selected["destination_city"],
		Class:           selected["class"],
		Stops:           selected["stops"],
		Duration:        req.Duration,
		DaysLeft:        req.DaysLeft,
		Price:           price,
		Points:          points,
		Model:           u.predictor.Kind(),
		CreatedAt:       u.now().UTC(),
	}
}

func meanPrice(points []models.ForecastPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points))
}
