package predictor

import (
	"context"
	"fmt"

	"FlightFare/internal/domain/models"
	domsvc "FlightFare/internal/domain/service"
)

const KindRemote = "remote"

// RemotePredictor scores vectors on a model server exposing POST /predict.
type RemotePredictor struct {
	base     *HTTPServiceBase
	names    []string
	attempts int
}

type remoteReq struct {
	FeatureNames []string    `json:"feature_names"`
	Instances    [][]float64 `json:"instances"`
}

type remoteResp struct {
	Predictions []float64 `json:"predictions"`
}

type remoteHealth struct {
	Status   string `json:"status"`
	Features int    `json:"features,omitempty"`
}

// NewRemotePredictor creates a predictor that sends feature vectors labelled with names.
func NewRemotePredictor(base *HTTPServiceBase, names []string, attempts int) *RemotePredictor {
	if attempts < 1 {
		attempts = 1
	}
	return &RemotePredictor{base: base, names: names, attempts: attempts}
}

// Check calls GET /health and verifies the server expects the same number of features.
func (p *RemotePredictor) Check(ctx context.Context) error {
	var h remoteHealth
	if err := p.base.GetJSON(ctx, "/health", &h); err != nil {
		return err
	}
	if h.Features != 0 && h.Features != len(p.names) {
		return fmt.Errorf("model server expects %d features, schema has %d", h.Features, len(p.names))
	}
	return nil
}

func (p *RemotePredictor) Predict(ctx context.Context, v models.FeatureVector) (float64, error) {
	if len(v) != len(p.names) {
		return 0, &InferenceError{Kind: KindRemote, Err: fmt.Errorf("vector has %d values, want %d", len(v), len(p.names))}
	}
	var resp remoteResp
	req := remoteReq{FeatureNames: p.names, Instances: [][]float64{v}}
	if err := p.base.PostJSONWithRetry(ctx, "/predict", req, &resp, p.attempts); err != nil {
		return 0, &InferenceError{Kind: KindRemote, Err: err}
	}
	if len(resp.Predictions) != 1 {
		return 0, &InferenceError{Kind: KindRemote, Err: fmt.Errorf("expected 1 prediction, got %d", len(resp.Predictions))}
	}
	return resp.Predictions[0], nil
}

func (p *RemotePredictor) Kind() string { return KindRemote }

var _ domsvc.Predictor = (*RemotePredictor)(nil)
