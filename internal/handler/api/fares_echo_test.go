package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/service/metrics"
	"FlightFare/internal/service/ratelimit"
	"FlightFare/internal/services/features"
	"FlightFare/internal/services/forecast"
	"FlightFare/internal/usecase"
	pkgmetrics "FlightFare/pkg/metrics"
)

const exampleBody = `{
	"duration": 120, "days_left": 15, "departure_time": 8.5, "arrival_time": 10.5,
	"airline_Air_India": 1, "source_city_Delhi": 1, "destination_city_Mumbai": 1,
	"class_Economy": 1, "stops_zero": 1
}`

type linearPredictor struct {
	idx int
	err error
}

func (p *linearPredictor) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return 5000.004 + 10*v[p.idx], nil
}

func (p *linearPredictor) Kind() string { return "linear" }

type stubScraper struct{ prices []int }

func (s stubScraper) ScrapeComparisonPrices(context.Context, string, string, string) []int {
	return s.prices
}

func newTestEcho(t *testing.T, predErr error, rl *ratelimit.Limiter) *echo.Echo {
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
	reg := prometheus.NewRegistry()
	fares := usecase.NewFarePredictor(features.NewValidator(s), b, p, engine, nil,
		pkgmetrics.NewWithRegisterer(reg), time.Second, nil)
	cmp := usecase.NewComparisonService(stubScraper{prices: []int{5200, 5350}}, nil, time.Minute, nil)

	e := echo.New()
	NewFaresEchoHandler(nil, fares, cmp, rl, metrics.NewAPI(reg)).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestPredict(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	rec := do(e, http.MethodPost, "/predict", exampleBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["price"] != 5150.0 || body["currency"] != "₹" || body["status"] != "success" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictMissingDaysLeft(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	rec := do(e, http.MethodPost, "/predict", strings.Replace(exampleBody, `"days_left": 15,`, "", 1))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "days_left") || body["status"] != "error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictBadRequests(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	cases := map[string]string{
		"malformed":      `{"duration": `,
		"not an object":  `[1]`,
		"string numeric": strings.Replace(exampleBody, `"duration": 120`, `"duration": "120"`, 1),
		"no selection":   strings.Replace(exampleBody, `"class_Economy": 1`, `"class_Economy": 0`, 1),
	}
	for name, body := range cases {
		if rec := do(e, http.MethodPost, "/predict", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, body %s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestPredictModelFailure(t *testing.T) {
	e := newTestEcho(t, errors.New("booster exploded"), nil)

	rec := do(e, http.MethodPost, "/predict", exampleBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictTrend(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	body := strings.Replace(exampleBody, `"stops_zero": 1`, `"stops_zero": 1, "departure_date": "2025-10-20"`, 1)
	rec := do(e, http.MethodPost, "/predict_trend", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.TrendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Historical) != 30 || len(resp.Forecast) != 10 || resp.Status != "success" {
		t.Fatalf("unexpected trend %d/%d %s", len(resp.Historical), len(resp.Forecast), resp.Status)
	}
	if resp.Historical[0].Date != "2025-09-01" || resp.Historical[29].Date != "2025-09-30" {
		t.Fatalf("historical range %s..%s", resp.Historical[0].Date, resp.Historical[29].Date)
	}
	if resp.Forecast[0].Date != "2025-10-21" || resp.Forecast[9].Date != "2025-10-30" {
		t.Fatalf("forecast range %s..%s", resp.Forecast[0].Date, resp.Forecast[9].Date)
	}
	if resp.Forecast[0].Price != 5200 {
		t.Fatalf("first forecast price = %v", resp.Forecast[0].Price)
	}
}

func TestPredictTrendInvalidDate(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	body := strings.Replace(exampleBody, `"stops_zero": 1`, `"stops_zero": 1, "departure_date": "tomorrow"`, 1)
	if rec := do(e, http.MethodPost, "/predict_trend", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPredictTrendRateLimited(t *testing.T) {
	e := newTestEcho(t, nil, ratelimit.New(1, 0.001))

	if rec := do(e, http.MethodPost, "/predict_trend", exampleBody); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/predict_trend", exampleBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCompare(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	rec := do(e, http.MethodGet, "/compare?origin=DEL&destination=BOM&date=15/10/2025", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.CompareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Prices) != 2 || resp.Status != "success" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCompareValidation(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	for _, q := range []string{
		"origin=DEL&destination=BOM",
		"origin=DELHI&destination=BOM&date=15/10/2025",
		"origin=DEL&destination=DEL&date=15/10/2025",
		"origin=DEL&destination=BOM&date=2025-10-15",
	} {
		if rec := do(e, http.MethodGet, "/compare?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t, nil, nil)

	rec := do(e, http.MethodGet, "/health", "")
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["model"] != "linear" || body["features"] != 27.0 {
		t.Fatalf("unexpected health %d %v", rec.Code, body)
	}
}

func dialTrend(t *testing.T, e *echo.Echo) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/predict_trend", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamTrend(t *testing.T) {
	conn := dialTrend(t, newTestEcho(t, nil, nil))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(exampleBody)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var counts = map[models.Series]int{}
	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		if frame["status"] == "success" {
			break
		}
		if frame["status"] == "error" {
			t.Fatalf("error frame %v", frame)
		}
		counts[models.Series(frame["series"].(string))]++
	}
	if counts[models.SeriesHistorical] != 30 || counts[models.SeriesForecast] != 10 {
		t.Fatalf("frames %v", counts)
	}
}

func TestStreamTrendInvalidRequest(t *testing.T) {
	conn := dialTrend(t, newTestEcho(t, nil, nil))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"duration": 1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame["status"] != "error" || !strings.Contains(frame["error"].(string), "days_left") {
		t.Fatalf("unexpected frame %v", frame)
	}
}
