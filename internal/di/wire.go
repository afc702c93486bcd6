//go:build wireinject
// +build wireinject

package di

import (
	"FlightFare/pkg/config"
	"FlightFare/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegisterer,
		ProvideMetrics,
		ProvideAPIMetrics,

		// Model
		ProvideSchema,
		ProvideValidator,
		ProvideBuilder,
		ProvideCache,
		ProvidePredictor,
		ProvideForecastEngine,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvidePredictionStore,
		ProvidePredictionPublisher,

		// Use cases
		ProvidePredictionRecorder,
		ProvideRecordingPipeline,
		ProvideFarePredictor,
		ProvideScraper,
		ProvideComparisonService,
		ProvideKafkaRequestsHandler,

		// Transport
		ProvideRateLimiter,
		ProvideFaresHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
