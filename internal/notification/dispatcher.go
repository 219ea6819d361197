package notification

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Sink receives every dispatched event. Errors are logged, never retried.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event model.OrderEvent) error
}

// Dispatcher decouples order placement from delivery: Notify enqueues and
// returns immediately, a single worker started by Run drains the queue.
type Dispatcher struct {
	queue   chan model.OrderEvent
	sinks   []Sink
	dropped prometheus.Counter
	timeout time.Duration
	logger  logger.ZapLogger
}

type DispatcherConfig struct {
	QueueSize      int
	DeliverTimeout time.Duration
	// Dropped counts events discarded on a full queue. Optional.
	Dropped prometheus.Counter
}

func NewDispatcher(cfg DispatcherConfig, log logger.ZapLogger, sinks ...Sink) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = 10 * time.Second
	}
	return &Dispatcher{
		queue:   make(chan model.OrderEvent, cfg.QueueSize),
		sinks:   sinks,
		dropped: cfg.Dropped,
		timeout: cfg.DeliverTimeout,
		logger:  log,
	}
}

// Notify never blocks. When the queue is full the event is dropped.
func (d *Dispatcher) Notify(event model.OrderEvent) {
	select {
	case d.queue <- event:
	default:
		if d.dropped != nil {
			d.dropped.Inc()
		}
		d.logger.Warn("notification queue full, dropping event",
			zap.String("tenant_id", event.TenantID),
			zap.String("order_id", event.OrderID),
		)
	}
}

// Run delivers queued events until ctx is cancelled, then flushes what is
// already queued.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("notification dispatcher started", zap.Int("sinks", len(d.sinks)))
	for {
		select {
		case <-ctx.Done():
			d.flush()
			d.logger.Info("notification dispatcher stopped")
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event model.OrderEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	for _, s := range d.sinks {
		if err := s.Deliver(ctx, event); err != nil {
			d.logger.Warn("notification sink failed",
				zap.String("sink", s.Name()),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}
}
