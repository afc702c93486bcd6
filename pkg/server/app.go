package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlightFare/internal/middleware"
	"FlightFare/internal/service/ratelimit"
	"FlightFare/internal/usecase"
	"FlightFare/pkg/cache"
	"FlightFare/pkg/config"
	xhttp "FlightFare/pkg/http"
	pkgkafka "FlightFare/pkg/kafka"
	applogger "FlightFare/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	pipeline   *middleware.RecordingPipeline
	recorder   *usecase.PredictionRecorder
	cache      cache.Service
	limiter    *ratelimit.Limiter
	stopPrune  chan struct{}
}

// New creates a new App instance with all dependencies.
// consumer, kh and c may be nil when the corresponding feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	pipeline *middleware.RecordingPipeline,
	recorder *usecase.PredictionRecorder,
	c cache.Service,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.With("app"),
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
		pipeline:   pipeline,
		recorder:   recorder,
		cache:      c,
		limiter:    limiter,
		stopPrune:  make(chan struct{}),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}

// Start launches the recording pipeline, the optional Kafka consumer and the HTTP server.
func (a *App) Start() error {
	a.pipeline.Start()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.limiter != nil {
		go a.pruneLimiter(time.Minute)
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	a.log.Info("flightfare started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("model", a.cfg.Model.Type),
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.String("cache", a.cfg.Cache.Type),
		applogger.Int("port", a.cfg.Server.Port),
	)
	return nil
}

// Shutdown stops intake first, then drains in-flight recording and closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")
	close(a.stopPrune)

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if err := a.pipeline.Stop(ctx); err != nil {
		a.log.Warn("recording pipeline stop error", applogger.Error(err))
	}

	// Closes the publisher or store behind the configured backend.
	if a.recorder != nil {
		a.recorder.Close()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) pruneLimiter(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := a.limiter.Prune(); n > 0 {
				a.log.Debug("rate limiter pruned", applogger.Int("keys", n))
			}
		case <-a.stopPrune:
			return
		}
	}
}
