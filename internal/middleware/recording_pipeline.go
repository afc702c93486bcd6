package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FlightFare/internal/domain/models"
	domrepo "FlightFare/internal/domain/repository"
	"FlightFare/pkg/logger"
)

// BatchProc is the minimal processor interface the pipeline needs.
type BatchProc interface {
	ProcessBatch(ctx context.Context, events []*models.PredictionEvent) error
}

// RecordingPipeline sits between request handling and the recording backend.
// It buffers prediction events, ships them in batches and never blocks the caller.
type RecordingPipeline struct {
	proc       BatchProc
	metrics    domrepo.Metrics
	log        *logger.Logger
	batchSize  int
	flushEvery time.Duration
	timeout    time.Duration
	attempts   int
	bufCh      chan *models.PredictionEvent
	stopCh     chan struct{}
	doneCh     chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

type PipelineOption func(*RecordingPipeline)

// WithBatchSize sets the number of events shipped per backend call.
func WithBatchSize(n int) PipelineOption {
	return func(p *RecordingPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithFlushInterval sets the longest time an event waits for its batch to fill.
func WithFlushInterval(d time.Duration) PipelineOption {
	return func(p *RecordingPipeline) {
		if d > 0 {
			p.flushEvery = d
		}
	}
}

// WithBufferSize sets how many events may wait before new ones are dropped.
func WithBufferSize(n int) PipelineOption {
	return func(p *RecordingPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.PredictionEvent, n)
		}
	}
}

// WithFlushTimeout bounds every backend call.
func WithFlushTimeout(d time.Duration) PipelineOption {
	return func(p *RecordingPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithFlushAttempts sets how often a failing batch is tried before it is dropped.
func WithFlushAttempts(n int) PipelineOption {
	return func(p *RecordingPipeline) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) PipelineOption {
	return func(p *RecordingPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewRecordingPipeline creates a new pipeline. Call Start before recording.
func NewRecordingPipeline(proc BatchProc, metrics domrepo.Metrics, opts ...PipelineOption) *RecordingPipeline {
	p := &RecordingPipeline{
		proc:       proc,
		metrics:    metrics,
		log:        logger.Nop(),
		batchSize:  100,
		flushEvery: time.Second,
		timeout:    5 * time.Second,
		attempts:   3,
		bufCh:      make(chan *models.PredictionEvent, 1000),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("recording-pipeline")
	return p
}

// Start launches background batching.
func (p *RecordingPipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	go p.run()
}

// Record enqueues e without blocking. Events are dropped when the buffer is full or the pipeline stopped.
func (p *RecordingPipeline) Record(e *models.PredictionEvent) {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		p.metrics.RecordError("pipeline_stopped")
		return
	}
	select {
	case p.bufCh <- e:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

// Stop flushes buffered events and waits for the last batch, bounded by ctx.
func (p *RecordingPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stopCh)
	if !started {
		return nil
	}

	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recording pipeline stop: %w", ctx.Err())
	}
}

func (p *RecordingPipeline) run() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.flushEvery)
	defer ticker.Stop()

	batch := make([]*models.PredictionEvent, 0, p.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.flush(batch)
		batch = make([]*models.PredictionEvent, 0, p.batchSize)
	}

	for {
		select {
		case e := <-p.bufCh:
			batch = append(batch, e)
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.stopCh:
			// Record no longer sends once stopped is set, so the drain terminates.
			for {
				select {
				case e := <-p.bufCh:
					batch = append(batch, e)
					if len(batch) >= p.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (p *RecordingPipeline) flush(batch []*models.PredictionEvent) {
	start := time.Now()
	backoff := 50 * time.Millisecond

	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.proc.ProcessBatch(ctx, batch)
		cancel()
		if err == nil {
			p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
			return
		}

		p.metrics.RecordError("pipeline_flush")
		if attempt >= p.attempts {
			p.metrics.RecordError("pipeline_batch_drop")
			p.log.Warn("dropping prediction batch",
				logger.Int("events", len(batch)),
				logger.Int("attempts", attempt),
				logger.Error(err),
			)
			return
		}
		time.Sleep(backoff)
		// exponential backoff with cap
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func validateEvent(e *models.PredictionEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.ID == "" {
		return fmt.Errorf("event id empty")
	}
	if e.Kind != models.KindPoint && e.Kind != models.KindTrend {
		return fmt.Errorf("event kind %q invalid", e.Kind)
	}
	return nil
}
