package service

import (
	"context"

	"FlightFare/internal/domain/models"
)

// Predictor evaluates the trained fare regressor on one feature vector.
// Implementations are read-only after construction and safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, v models.FeatureVector) (float64, error)
	// Kind names the implementation, e.g. "xgboost" or "remote".
	Kind() string
}

// ComparisonScraper fetches live prices for a route from a third-party site.
// It is best-effort: any failure yields an empty slice.
type ComparisonScraper interface {
	ScrapeComparisonPrices(ctx context.Context, origin, destination, date string) []int
}
