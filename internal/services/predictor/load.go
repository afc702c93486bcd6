package predictor

import (
	"context"
	"fmt"

	domsvc "FlightFare/internal/domain/service"
	"FlightFare/internal/services/features"
	"FlightFare/pkg/config"
)

// Load builds the predictor selected by cfg. Any failure is a *ModelLoadError.
func Load(ctx context.Context, cfg config.ModelConfig, schema *features.Schema) (domsvc.Predictor, error) {
	switch cfg.Type {
	case KindXGBoost:
		p, err := LoadXGBoost(cfg.Path, schema.Len())
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindRemote:
		p := NewRemotePredictor(NewHTTPServiceBase(cfg.ServiceURL, cfg.Timeout), schema.Names(), cfg.Retries+1)
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := p.Check(checkCtx); err != nil {
			return nil, &ModelLoadError{Kind: KindRemote, Source: cfg.ServiceURL, Err: err}
		}
		return p, nil
	default:
		return nil, &ModelLoadError{Kind: cfg.Type, Source: cfg.Path, Err: fmt.Errorf("unknown model type %q", cfg.Type)}
	}
}
