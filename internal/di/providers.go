package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"FlightFare/internal/domain/repository"
	domsvc "FlightFare/internal/domain/service"
	"FlightFare/internal/handler/api"
	"FlightFare/internal/middleware"
	internalrepo "FlightFare/internal/repository"
	apimetrics "FlightFare/internal/service/metrics"
	"FlightFare/internal/service/ratelimit"
	"FlightFare/internal/services/features"
	"FlightFare/internal/services/forecast"
	"FlightFare/internal/services/predictor"
	"FlightFare/internal/services/scraper"
	"FlightFare/internal/usecase"
	"FlightFare/pkg/cache"
	pkgch "FlightFare/pkg/clickhouse"
	"FlightFare/pkg/config"
	xhttp "FlightFare/pkg/http"
	pkgkafka "FlightFare/pkg/kafka"
	"FlightFare/pkg/logger"
	"FlightFare/pkg/metrics"
	"FlightFare/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegisterer returns the registry every collector is attached to.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ProvideSchema returns the feature schema the model was trained on.
func ProvideSchema() *features.Schema {
	return features.DefaultSchema()
}

func ProvideValidator(schema *features.Schema, cfg *config.Config) *features.Validator {
	return features.NewValidator(schema, features.WithStrictOneHot(cfg.Features.StrictOneHot))
}

func ProvideBuilder(schema *features.Schema) *features.Builder {
	return features.NewBuilder(schema)
}

// ProvideCache creates the prediction and comparison cache selected by cache.type.
// Returns nil for "none".
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	redisCache := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Type {
	case "memory":
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	case "redis":
		rc, err := redisCache()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "layered":
		rc, err := redisCache()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(time.Minute),
		), nil
	default:
		return nil, nil
	}
}

// ProvidePredictor loads the model. A load failure aborts startup.
func ProvidePredictor(cfg *config.Config, schema *features.Schema, c cache.Service, l *logger.Logger) (domsvc.Predictor, error) {
	p, err := predictor.Load(context.Background(), cfg.Model, schema)
	if err != nil {
		return nil, err
	}
	l.Info("model loaded",
		logger.String("type", cfg.Model.Type),
		logger.String("path", cfg.Model.Path),
		logger.Int("features", schema.Len()),
	)
	if c != nil && cfg.Cache.PredictionTTL > 0 {
		return predictor.NewCachedPredictor(p, c, cfg.Cache.PredictionTTL), nil
	}
	return p, nil
}

func ProvideForecastEngine(cfg *config.Config, b *features.Builder, p domsvc.Predictor) (*forecast.Engine, error) {
	loc, err := cfg.Forecast.Location()
	if err != nil {
		return nil, fmt.Errorf("forecast timezone: %w", err)
	}
	return forecast.New(b, p,
		forecast.WithHorizon(cfg.Forecast.HorizonDays),
		forecast.WithHistory(cfg.Forecast.HistoryDays),
		forecast.WithLocation(loc),
	), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

func ProvideAPIMetrics(reg prometheus.Registerer) *apimetrics.API {
	return apimetrics.NewAPI(reg)
}

// ProvideClickHouseClient connects to ClickHouse when it is the recording backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != usecase.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePredictionStore creates the ClickHouse store and ensures its table exists.
func ProvidePredictionStore(client *pkgch.Client, l *logger.Logger) (repository.PredictionStore, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseStore(client, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is the recording backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePredictionPublisher creates the Kafka publisher for prediction events.
func ProvidePredictionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.PredictionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.PredictionsTopic)
}

func ProvidePredictionRecorder(
	pub repository.PredictionPublisher,
	store repository.PredictionStore,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.PredictionRecorder {
	return usecase.NewPredictionRecorder(pub, store, m, cfg.Backend.Type, cfg.Backend.RecordTimeout, l)
}

// ProvideRecordingPipeline batches prediction events in front of the recorder.
func ProvideRecordingPipeline(
	recorder *usecase.PredictionRecorder,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *middleware.RecordingPipeline {
	return middleware.NewRecordingPipeline(recorder, m,
		middleware.WithBatchSize(cfg.Backend.BatchSize),
		middleware.WithFlushInterval(cfg.Backend.FlushInterval),
		middleware.WithBufferSize(cfg.Backend.BufferSize),
		middleware.WithFlushTimeout(cfg.Backend.RecordTimeout),
		middleware.WithLogger(l),
	)
}

func ProvideFarePredictor(
	v *features.Validator,
	b *features.Builder,
	p domsvc.Predictor,
	engine *forecast.Engine,
	pipeline *middleware.RecordingPipeline,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.FarePredictor {
	return usecase.NewFarePredictor(v, b, p, engine, pipeline, m, cfg.Forecast.Timeout, l)
}

// ProvideScraper returns the comparison scraper, or a no-op one when scraping is disabled.
func ProvideScraper(cfg *config.Config, l *logger.Logger) domsvc.ComparisonScraper {
	if !cfg.Scraper.Enabled {
		return scraper.Disabled{}
	}
	return scraper.NewMMTScraper(cfg.Scraper, l)
}

func ProvideComparisonService(s domsvc.ComparisonScraper, c cache.Service, cfg *config.Config, l *logger.Logger) *usecase.ComparisonService {
	return usecase.NewComparisonService(s, c, cfg.Scraper.CacheTTL, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.TrendCapacity, cfg.RateLimit.TrendRefill)
}

func ProvideFaresHandler(
	l *logger.Logger,
	fares *usecase.FarePredictor,
	cmp *usecase.ComparisonService,
	rl *ratelimit.Limiter,
	m *apimetrics.API,
) *api.FaresEchoHandler {
	return api.NewFaresEchoHandler(l, fares, cmp, rl, m)
}

func ProvideHTTPServer(cfg *config.Config, h *api.FaresEchoHandler, l *logger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.SlowThreshold),
	)
}

// ProvideKafkaConsumer creates the fare request consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideKafkaRequestsHandler handles the fare request topic.
func ProvideKafkaRequestsHandler(cfg *config.Config, fares *usecase.FarePredictor) *usecase.KafkaRequestsHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.Consumer.RequestsTopic, fares)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	pipeline *middleware.RecordingPipeline,
	recorder *usecase.PredictionRecorder,
	c cache.Service,
	rl *ratelimit.Limiter,
) *server.App {
	var handler pkgkafka.MessageHandler
	if consumer != nil {
		handler = kh
	}
	return server.New(cfg, l, httpServer, consumer, handler, pipeline, recorder, c, rl)
}
