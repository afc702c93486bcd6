package predictor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"FlightFare/internal/domain/models"
	domsvc "FlightFare/internal/domain/service"
	"FlightFare/pkg/cache"
)

// CachedPredictor memoizes a deterministic predictor by feature vector.
type CachedPredictor struct {
	next  domsvc.Predictor
	cache cache.Service
	ttl   time.Duration
}

// NewCachedPredictor wraps next with c. Cache errors fall through to next.
func NewCachedPredictor(next domsvc.Predictor, c cache.Service, ttl time.Duration) *CachedPredictor {
	return &CachedPredictor{next: next, cache: c, ttl: ttl}
}

func (p *CachedPredictor) Predict(ctx context.Context, v models.FeatureVector) (float64, error) {
	price, _, err := cache.GetOrLoad(ctx, p.cache, VectorKey(p.next.Kind(), v), p.ttl, func(ctx context.Context) (float64, error) {
		return p.next.Predict(ctx, v)
	})
	return price, err
}

func (p *CachedPredictor) Kind() string { return p.next.Kind() }

// VectorKey derives a cache key from the model kind and the exact vector values.
func VectorKey(kind string, v models.FeatureVector) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return cache.GenerateKey("prediction:"+kind, cache.HashKey(b.String()))
}

var _ domsvc.Predictor = (*CachedPredictor)(nil)
