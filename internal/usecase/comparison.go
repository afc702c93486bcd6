package usecase

import (
	"context"
	"strings"
	"time"

	domsvc "FlightFare/internal/domain/service"
	"FlightFare/pkg/cache"
	"FlightFare/pkg/logger"
)

// ComparisonService returns third-party prices for a route and date, cached per query.
type ComparisonService struct {
	scraper domsvc.ComparisonScraper
	cache   cache.Service
	ttl     time.Duration
	log     *logger.Logger
}

// NewComparisonService creates the service. c may be nil to disable caching.
func NewComparisonService(scraper domsvc.ComparisonScraper, c cache.Service, ttl time.Duration, l *logger.Logger) *ComparisonService {
	if l == nil {
		l = logger.Nop()
	}
	return &ComparisonService{scraper: scraper, cache: c, ttl: ttl, log: l.With("comparison")}
}

// Compare returns at most a handful of prices. It never fails: an empty list means nothing was found.
func (s *ComparisonService) Compare(ctx context.Context, origin, destination, date string) []int {
	origin = strings.ToUpper(origin)
	destination = strings.ToUpper(destination)
	key := cache.GenerateKeyWithParams("compare", origin, destination, date)

	if s.cache != nil {
		var prices []int
		if err := s.cache.Get(ctx, key, &prices); err == nil {
			return prices
		}
	}

	prices := s.scraper.ScrapeComparisonPrices(ctx, origin, destination, date)
	if prices == nil {
		prices = []int{}
	}

	// Empty results are usually transient scrape failures.
	if s.cache != nil && len(prices) > 0 {
		if err := s.cache.Set(ctx, key, prices, s.ttl); err != nil {
			s.log.Warn("cache comparison prices", logger.String("key", key), logger.Error(err))
		}
	}
	return prices
}
