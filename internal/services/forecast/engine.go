package forecast

import (
	"context"
	"fmt"
	"time"

	"FlightFare/internal/domain/models"
	domsvc "FlightFare/internal/domain/service"
	"FlightFare/internal/services/features"
	"FlightFare/pkg/util"
)

const (
	DefaultHorizonDays = 10
	DefaultHistoryDays = 30
	// MaxPoints bounds each series so one request cannot fan out into unbounded inference.
	MaxPoints = 365
)

// EmitFunc receives trend points in the order they are produced.
// Returning an error stops the computation.
type EmitFunc func(series models.Series, p models.ForecastPoint) error

// Option configures an Engine.
type Option func(*Engine)

// WithHorizon sets the number of forecast days after the departure date.
func WithHorizon(days int) Option {
	return func(e *Engine) {
		if days > 0 && days <= MaxPoints {
			e.horizon = days
		}
	}
}

// WithHistory sets the number of historical days before today.
func WithHistory(days int) Option {
	return func(e *Engine) {
		if days > 0 && days <= MaxPoints {
			e.history = days
		}
	}
}

// WithLocation sets the time zone that decides the current calendar date.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine synthesizes a price trend by re-running the predictor with only days_left varying.
type Engine struct {
	builder   *features.Builder
	predictor domsvc.Predictor
	horizon   int
	history   int
	loc       *time.Location
	now       func() time.Time
}

// New creates a forecast engine.
func New(builder *features.Builder, predictor domsvc.Predictor, opts ...Option) *Engine {
	e := &Engine{
		builder:   builder,
		predictor: predictor,
		horizon:   DefaultHorizonDays,
		history:   DefaultHistoryDays,
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current civil date in the engine's time zone.
func (e *Engine) Today() time.Time {
	return util.CivilDate(e.now(), e.loc)
}

// Horizon returns the number of forecast points per trend.
func (e *Engine) Horizon() int { return e.horizon }

// History returns the number of historical points per trend.
func (e *Engine) History() int { return e.history }

// Stream computes the trend for req and hands every point to emit.
// Historical points come first, dated today-history..today-1 with days_left = -i.
// Forecast points follow, dated departure+1..departure+horizon with days_left counted from today.
// A request without a departure date departs today. The returned trend carries no points.
func (e *Engine) Stream(ctx context.Context, req models.FareRequest, emit EmitFunc) (models.FareTrend, error) {
	today := e.Today()
	departure := today
	if req.HasDepartureDate() {
		departure = req.DepartureDate
	}
	trend := models.FareTrend{
		Today:        today,
		Departure:    departure,
		BaseDaysLeft: util.DaysBetween(today, departure),
	}

	point := func(series models.Series, date time.Time, daysLeft int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec := e.builder.BuildWithDaysLeft(req, float64(daysLeft))
		price, err := e.predictor.Predict(ctx, vec)
		if err != nil {
			return fmt.Errorf("predict %s %s: %w", series, util.FormatDate(date), err)
		}
		return emit(series, models.ForecastPoint{Date: date, Price: price})
	}

	// The historical window is anchored on today, not on the departure date.
	for i := e.history; i >= 1; i-- {
		if err := point(models.SeriesHistorical, util.AddDays(today, -i), -i); err != nil {
			return trend, err
		}
	}

	for day := 1; day <= e.horizon; day++ {
		future := util.AddDays(departure, day)
		if err := point(models.SeriesForecast, future, util.DaysBetween(today, future)); err != nil {
			return trend, err
		}
	}

	return trend, nil
}

// Forecast computes the complete trend for req.
func (e *Engine) Forecast(ctx context.Context, req models.FareRequest) (models.FareTrend, error) {
	historical := make([]models.ForecastPoint, 0, e.history)
	forecast := make([]models.ForecastPoint, 0, e.horizon)

	trend, err := e.Stream(ctx, req, func(series models.Series, p models.ForecastPoint) error {
		if series == models.SeriesHistorical {
			historical = append(historical, p)
		} else {
			forecast = append(forecast, p)
		}
		return nil
	})
	if err != nil {
		return models.FareTrend{}, err
	}

	trend.Historical = historical
	trend.Forecast = forecast
	return trend, nil
}
