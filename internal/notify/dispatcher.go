package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize      = 256
	defaultPublishTimeout = 10 * time.Second
)

// Dispatcher hands events to a Publisher on a background goroutine. Publish
// only enqueues; a full queue drops the event with a warning. Close drains
// what is queued and stops the worker.
type Dispatcher struct {
	next    Publisher
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewDispatcher starts the worker. size <= 0 selects DefaultQueueSize.
func NewDispatcher(next Publisher, logger *zap.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		next:    next,
		logger:  logger,
		timeout: defaultPublishTimeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish never blocks and never fails the caller.
func (d *Dispatcher) Publish(_ context.Context, ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification dropped after shutdown", zap.String("type", string(ev.Type)),
			zap.String("allocation_id", ev.AllocationID))
		return nil
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("notification queue full, dropping event", zap.String("type", string(ev.Type)),
			zap.String("allocation_id", ev.AllocationID))
	}
	return nil
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("notification publisher panicked", zap.Any("panic", p),
				zap.String("type", string(ev.Type)))
		}
	}()
	if err := d.next.Publish(ctx, ev); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("type", string(ev.Type)),
			zap.String("allocation_id", ev.AllocationID),
			zap.Error(err))
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
