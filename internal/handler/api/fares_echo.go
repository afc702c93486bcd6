package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/service/metrics"
	"FlightFare/internal/service/ratelimit"
	"FlightFare/internal/services/features"
	"FlightFare/internal/usecase"
	xhttp "FlightFare/pkg/http"
	xlogger "FlightFare/pkg/logger"
	"FlightFare/pkg/util"
)

// FaresEchoHandler serves the fare prediction endpoints.
type FaresEchoHandler struct {
	logger   *xlogger.Logger
	fares    *usecase.FarePredictor
	compare  *usecase.ComparisonService
	rl       *ratelimit.Limiter
	api      *metrics.API
	upgrader websocket.Upgrader
}

func NewFaresEchoHandler(
	logger *xlogger.Logger,
	fares *usecase.FarePredictor,
	compare *usecase.ComparisonService,
	rl *ratelimit.Limiter,
	api *metrics.API,
) *FaresEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &FaresEchoHandler{
		logger:  logger.With("fares-api"),
		fares:   fares,
		compare: compare,
		rl:      rl,
		api:     api,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *FaresEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.observe("predict", h.Predict))
	e.POST("/predict_trend", h.observe("predict_trend", h.limit("predict_trend", h.PredictTrend)))
	e.GET("/ws/predict_trend", h.limit("ws_predict_trend", h.StreamTrend))
	e.GET("/compare", h.observe("compare", h.Compare))
	e.GET("/health", h.Health)
}

func (h *FaresEchoHandler) Predict(c echo.Context) error {
	raw, err := features.Decode(c.Request().Body)
	if err != nil {
		return h.fail(c, "predict", err)
	}

	price, err := h.fares.Predict(c.Request().Context(), raw, models.SourceHTTP, requestID(c))
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, models.PredictResponse{
		Price:    models.RoundPrice(price),
		Currency: models.CurrencyINR,
		Status:   xhttp.StatusSuccess,
	})
}

func (h *FaresEchoHandler) PredictTrend(c echo.Context) error {
	raw, err := features.Decode(c.Request().Body)
	if err != nil {
		return h.fail(c, "predict_trend", err)
	}

	trend, err := h.fares.Trend(c.Request().Context(), raw, models.SourceHTTP, requestID(c))
	if err != nil {
		return h.fail(c, "predict_trend", err)
	}
	return xhttp.SuccessResponse(c, models.TrendResponse{
		Historical: trendPoints(trend.Historical),
		Forecast:   trendPoints(trend.Forecast),
		Status:     xhttp.StatusSuccess,
	})
}

func (h *FaresEchoHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	prices := h.compare.Compare(c.Request().Context(), req.Origin, req.Destination, req.Date)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, models.CompareResponse{
		Prices: prices,
		Count:  len(prices),
		Status: xhttp.StatusSuccess,
	})
}

func (h *FaresEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.HealthResponse{
		Status:   "ok",
		Model:    h.fares.ModelKind(),
		Features: h.fares.FeatureCount(),
	})
}

// fail maps validation failures to 400 and everything else to 500.
func (h *FaresEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	if errors.Is(err, features.ErrInvalidRequest) {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c, err.Error())
}

func (h *FaresEchoHandler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		h.api.Observe(endpoint, c.Response().Status, time.Since(start))
		return err
	}
}

func (h *FaresEchoHandler) limit(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			h.api.RateLimited(endpoint)
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

func requestID(c echo.Context) string {
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func trendPoints(points []models.ForecastPoint) []models.TrendPoint {
	out := make([]models.TrendPoint, len(points))
	for i, p := range points {
		out[i] = models.TrendPoint{Date: util.FormatDate(p.Date), Price: models.RoundPrice(p.Price)}
	}
	return out
}
