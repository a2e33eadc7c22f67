package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PublisherConfig configures the asynchronous publisher
type PublisherConfig struct {
	QueueSize       int           `json:"queue_size"`
	BatchSize       int           `json:"batch_size"`
	BatchTimeout    time.Duration `json:"batch_timeout"`
	PublishTimeout  time.Duration `json:"publish_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DefaultPublisherConfig returns sensible defaults
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		QueueSize:       1000,
		BatchSize:       20,
		BatchTimeout:    200 * time.Millisecond,
		PublishTimeout:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// PublisherMetrics are cumulative publisher counters
type PublisherMetrics struct {
	EventsPublished int64
	EventsDropped   int64
	BatchesFailed   int64
}

// Publisher is a Sink that queues events and writes them to a Store in
// batches from a single background worker. Record never blocks: when the
// queue is full the event is dropped and logged.
type Publisher struct {
	logger *zap.Logger
	store  Store
	config PublisherConfig

	queue      chan *ComplianceEvent
	shutdownCh chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewPublisher creates a publisher and starts its worker
func NewPublisher(logger *zap.Logger, store Store, config PublisherConfig) *Publisher {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultPublisherConfig().QueueSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultPublisherConfig().BatchSize
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = DefaultPublisherConfig().BatchTimeout
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultPublisherConfig().PublishTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultPublisherConfig().ShutdownTimeout
	}

	p := &Publisher{
		logger:     logger,
		store:      store,
		config:     config,
		queue:      make(chan *ComplianceEvent, config.QueueSize),
		shutdownCh: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.worker()

	return p
}

// Record queues the event
func (p *Publisher) Record(ctx context.Context, event *ComplianceEvent) error {
	select {
	case <-p.shutdownCh:
		p.dropped.Add(1)
		p.logger.Warn("Audit publisher closed, dropping event",
			zap.String("kind", event.Kind.String()),
			zap.String("event_id", event.ID.String()))
		return nil
	default:
	}

	select {
	case p.queue <- event:
	case <-ctx.Done():
		p.dropped.Add(1)
		p.logger.Warn("Failed to queue audit event due to context cancellation",
			zap.String("kind", event.Kind.String()),
			zap.String("event_id", event.ID.String()))
	default:
		p.dropped.Add(1)
		p.logger.Error("Audit queue full, dropping event",
			zap.String("kind", event.Kind.String()),
			zap.String("event_id", event.ID.String()),
			zap.Int("queue_size", len(p.queue)))
	}
	return nil
}

// Close flushes queued events and stops the worker
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		p.logger.Info("Shutting down audit publisher")
		close(p.shutdownCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("Shutdown timeout reached, some audit events may be lost")
	}
	return nil
}

// Metrics returns a snapshot of the counters
func (p *Publisher) Metrics() PublisherMetrics {
	return PublisherMetrics{
		EventsPublished: p.published.Load(),
		EventsDropped:   p.dropped.Load(),
		BatchesFailed:   p.failed.Load(),
	}
}

func (p *Publisher) worker() {
	defer p.wg.Done()

	batch := make([]*ComplianceEvent, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.BatchTimeout)
	defer ticker.Stop()

	for {
		select {
		case event := <-p.queue:
			batch = append(batch, event)
			if len(batch) >= p.config.BatchSize {
				p.flush(batch)
				batch = make([]*ComplianceEvent, 0, p.config.BatchSize)
				ticker.Reset(p.config.BatchTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = make([]*ComplianceEvent, 0, p.config.BatchSize)
			}

		case <-p.shutdownCh:
			// drain whatever is still queued
			for {
				select {
				case event := <-p.queue:
					batch = append(batch, event)
				default:
					if len(batch) > 0 {
						p.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (p *Publisher) flush(batch []*ComplianceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.store.Append(ctx, batch); err != nil {
		p.failed.Add(1)
		p.logger.Error("Failed to persist audit batch",
			zap.Error(err),
			zap.Int("batch_size", len(batch)))
		return
	}
	p.published.Add(int64(len(batch)))
}
