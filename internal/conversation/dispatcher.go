package conversation

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// EventHandler processes one inbound event.
type EventHandler interface {
	Process(ctx context.Context, ev Event)
}

// Dispatcher fans events out to a fixed set of workers. A sender always maps
// to the same shard, so its events are processed in arrival order.
type Dispatcher struct {
	handler EventHandler
	shards  []*shardQueue
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.FlowMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkerCount sets the number of shards and workers.
func WithWorkerCount(count int) DispatcherOption {
	return func(d *Dispatcher) {
		if count > 0 {
			d.shards = make([]*shardQueue, count)
		}
	}
}

// WithProcessTimeout bounds the handling of a single event.
func WithProcessTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDispatcherMetrics records dropped events.
func WithDispatcherMetrics(m *metrics.FlowMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher whose shards buffer up to buffer events each.
func NewDispatcher(handler EventHandler, buffer int, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if handler == nil {
		panic("conversation: event handler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		handler: handler,
		shards:  make([]*shardQueue, 4),
		timeout: 30 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.shards {
		d.shards[i] = newShardQueue(buffer)
	}
	return d
}

// Start launches one worker per shard. Workers run until Close.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, shard := range d.shards {
		d.wg.Add(1)
		go d.run(ctx, i, shard)
	}
}

// Submit queues ev on its sender's shard without blocking. When the shard is
// full the event is dropped and ErrShardFull returned.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.ObserveDropped("closed")
		return ErrDispatcherClosed
	}
	if err := d.shardFor(ev.Sender).offer(ctx, ev); err != nil {
		reason := "canceled"
		if errors.Is(err, ErrShardFull) {
			reason = "shard_full"
		}
		d.metrics.ObserveDropped(reason)
		d.logger.Warn("inbound event dropped", "sender", ev.Sender, "message_id", ev.MessageID, "error", err)
		return err
	}
	return nil
}

// Close stops accepting events, drains queued ones and waits for workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, shard := range d.shards {
		shard.close()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Pending returns the number of queued events across shards.
func (d *Dispatcher) Pending() int {
	total := 0
	for _, shard := range d.shards {
		total += shard.pending()
	}
	return total
}

func (d *Dispatcher) run(ctx context.Context, workerID int, shard *shardQueue) {
	defer d.wg.Done()
	for ev := range shard.ch {
		d.process(ctx, workerID, ev)
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while processing event", "worker", workerID, "sender", ev.Sender, "message_id", ev.MessageID, "panic", r)
		}
	}()
	procCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	d.handler.Process(procCtx, ev)
}

func (d *Dispatcher) shardFor(sender string) *shardQueue {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sender))
	return d.shards[h.Sum32()%uint32(len(d.shards))]
}
