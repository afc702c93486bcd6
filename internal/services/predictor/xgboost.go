package predictor

import (
	"context"
	"fmt"

	"github.com/dmitryikh/leaves"

	"FlightFare/internal/domain/models"
	domsvc "FlightFare/internal/domain/service"
)

const KindXGBoost = "xgboost"

// XGBoostPredictor evaluates a binary XGBoost booster in-process.
// The ensemble is immutable once loaded, so concurrent Predict calls need no locking.
type XGBoostPredictor struct {
	ensemble *leaves.Ensemble
	width    int
}

// binaryFormatHint names the export step that produces a loadable artifact from a trained
// (or pickled) booster. Only the legacy binary format is read; JSON, UBJSON and pickle are not.
const binaryFormatHint = `expected the XGBoost binary format, export with booster.save_model("xgboost_model.bin")`

// LoadXGBoost reads an XGBoost model saved in the binary format and checks it fits width features.
func LoadXGBoost(path string, width int) (*XGBoostPredictor, error) {
	ensemble, err := leaves.XGEnsembleFromFile(path, false)
	if err != nil {
		return nil, &ModelLoadError{Kind: KindXGBoost, Source: path, Err: fmt.Errorf("%w (%s)", err, binaryFormatHint)}
	}
	if n := ensemble.NFeatures(); n > width {
		return nil, &ModelLoadError{Kind: KindXGBoost, Source: path, Err: fmt.Errorf("model uses %d features, schema has %d", n, width)}
	}
	return &XGBoostPredictor{ensemble: ensemble, width: width}, nil
}

func (p *XGBoostPredictor) Predict(ctx context.Context, v models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &InferenceError{Kind: KindXGBoost, Err: err}
	}
	if len(v) != p.width {
		return 0, &InferenceError{Kind: KindXGBoost, Err: fmt.Errorf("vector has %d values, want %d", len(v), p.width)}
	}
	// 0 evaluates every tree of the ensemble.
	return p.ensemble.PredictSingle(v, 0), nil
}

func (p *XGBoostPredictor) Kind() string { return KindXGBoost }

var _ domsvc.Predictor = (*XGBoostPredictor)(nil)
