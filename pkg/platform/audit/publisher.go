package audit

import (
	"context"
	"log/slog"
	"time"

	"welfarehub/pkg/requestcontext"
)

// Publisher buffers events and flushes them to a Store in batches from Run.
// Emit never blocks on the store.
type Publisher struct {
	store     Store
	buffer    *ringBuffer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	notify    chan struct{}
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithCapacity bounds how many unflushed events are kept.
func WithCapacity(n int) Option {
	return func(p *Publisher) { p.buffer = newRingBuffer(n) }
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		buffer:    newRingBuffer(1024),
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
		notify:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit queues event. Timestamp and RequestID are filled from ctx when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.buffer.enqueue(event) {
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event",
			"request_id", event.RequestID,
			"dropped_total", p.buffer.droppedCount(),
		)
	}
	if p.buffer.len() >= p.batchSize {
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
}

// Run flushes until ctx is cancelled, then drains what is left with a short
// grace period.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			p.Flush(drainCtx)
			cancel()
			return nil
		case <-ticker.C:
			p.Flush(ctx)
		case <-p.notify:
			p.Flush(ctx)
		}
	}
}

// Flush writes every buffered event. A failed batch is logged and dropped.
func (p *Publisher) Flush(ctx context.Context) {
	for {
		batch := p.buffer.dequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		if err := p.store.Append(ctx, batch...); err != nil {
			p.logger.ErrorContext(ctx, "failed to persist audit events",
				"count", len(batch),
				"error", err,
			)
			return
		}
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.buffer.droppedCount()
}
