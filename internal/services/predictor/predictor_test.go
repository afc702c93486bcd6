package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/services/features"
	"FlightFare/pkg/cache"
	"FlightFare/pkg/config"
	xhttp "FlightFare/pkg/http"
)

func modelServer(t *testing.T, fail *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "features": 27})
		case "/predict":
			if fail != nil && atomic.AddInt32(fail, -1) >= 0 {
				http.Error(w, "warming up", http.StatusServiceUnavailable)
				return
			}
			var req remoteReq
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if len(req.Instances) != 1 || len(req.FeatureNames) != len(req.Instances[0]) {
				http.Error(w, "shape mismatch", http.StatusBadRequest)
				return
			}
			// price depends on days_left (index 1)
			_ = json.NewEncoder(w).Encode(remoteResp{Predictions: []float64{4000 + 20*req.Instances[0][1]}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLoadRemotePredictor(t *testing.T) {
	srv := modelServer(t, nil)
	defer srv.Close()

	schema := features.DefaultSchema()
	p, err := Load(context.Background(), config.ModelConfig{Type: KindRemote, ServiceURL: srv.URL, Timeout: time.Second, Retries: 1}, schema)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Kind() != KindRemote {
		t.Fatalf("unexpected kind %s", p.Kind())
	}

	v := make(models.FeatureVector, schema.Len())
	v[1] = 15
	price, err := p.Predict(context.Background(), v)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if price != 4300 {
		t.Fatalf("expected 4300, got %v", price)
	}
}

func TestRemotePredictorRetriesServerErrors(t *testing.T) {
	fail := int32(2)
	srv := modelServer(t, &fail)
	defer srv.Close()

	p := NewRemotePredictor(NewHTTPServiceBase(srv.URL, time.Second), features.DefaultSchema().Names(), 3)
	if _, err := p.Predict(context.Background(), make(models.FeatureVector, 27)); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}

	atomic.StoreInt32(&fail, 5)
	_, err := p.Predict(context.Background(), make(models.FeatureVector, 27))
	var ie *InferenceError
	if !errors.As(err, &ie) || ie.Kind != KindRemote {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestRemotePredictorDoesNotRetryBadBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	p := NewRemotePredictor(NewHTTPServiceBase(srv.URL, time.Second), features.DefaultSchema().Names(), 3)
	if _, err := p.Predict(context.Background(), make(models.FeatureVector, 27)); err == nil {
		t.Fatal("expected decode failure")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", fmt.Errorf("request failed: %w", &url.Error{Op: "Post", URL: "http://m", Err: errors.New("connection refused")}), true},
		{"unavailable", &xhttp.ResponseError{Code: http.StatusServiceUnavailable}, true},
		{"bad request", &xhttp.ResponseError{Code: http.StatusBadRequest}, false},
		{"decode", fmt.Errorf("decode json: %w", errors.New("invalid character '<'")), false},
		{"canceled", &url.Error{Op: "Post", URL: "http://m", Err: context.Canceled}, false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRemotePredictorRejectsWrongWidth(t *testing.T) {
	p := NewRemotePredictor(NewHTTPServiceBase("http://127.0.0.1:1", time.Second), features.DefaultSchema().Names(), 1)
	_, err := p.Predict(context.Background(), make(models.FeatureVector, 3))
	var ie *InferenceError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
}

func TestLoadXGBoostRejectsPickledModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pkl")
	// pickle protocol 4 header followed by a few bytes of payload
	if err := os.WriteFile(path, []byte("\x80\x04\x95\x10\x00\x00\x00"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadXGBoost(path, 27)
	var le *ModelLoadError
	if !errors.As(err, &le) || le.Kind != KindXGBoost {
		t.Fatalf("expected ModelLoadError, got %v", err)
	}
	if !strings.Contains(err.Error(), "save_model") {
		t.Fatalf("error should name the export step: %v", err)
	}
}

func TestLoadFailures(t *testing.T) {
	schema := features.DefaultSchema()
	cases := map[string]config.ModelConfig{
		"missing file": {Type: KindXGBoost, Path: filepath.Join(t.TempDir(), "missing.bin")},
		"unreachable":  {Type: KindRemote, ServiceURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond},
		"unknown type": {Type: "onnx"},
	}
	for name, cfg := range cases {
		_, err := Load(context.Background(), cfg, schema)
		var le *ModelLoadError
		if !errors.As(err, &le) {
			t.Fatalf("%s: expected ModelLoadError, got %v", name, err)
		}
	}
}

func TestLoadRemoteRejectsSchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "features": 30})
	}))
	defer srv.Close()

	_, err := Load(context.Background(), config.ModelConfig{Type: KindRemote, ServiceURL: srv.URL, Timeout: time.Second}, features.DefaultSchema())
	var le *ModelLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected ModelLoadError, got %v", err)
	}
}

type countingPredictor struct{ calls int32 }

func (p *countingPredictor) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	atomic.AddInt32(&p.calls, 1)
	return 1000 + v[0], nil
}

func (p *countingPredictor) Kind() string { return "counting" }

func TestCachedPredictor(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	next := &countingPredictor{}
	p := NewCachedPredictor(next, mc, time.Minute)

	a := models.FeatureVector{1, 2, 3}
	b := models.FeatureVector{1, 2, 4}
	for i := 0; i < 3; i++ {
		if got, err := p.Predict(context.Background(), a); err != nil || got != 1001 {
			t.Fatalf("unexpected %v %v", got, err)
		}
	}
	if _, err := p.Predict(context.Background(), b); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 underlying calls, got %d", next.calls)
	}
	if p.Kind() != "counting" {
		t.Fatalf("kind must pass through")
	}
	if VectorKey("x", a) == VectorKey("x", b) || VectorKey("x", a) == VectorKey("y", a) {
		t.Fatalf("keys must differ by vector and kind")
	}
}
