package conversation

import (
	"context"

	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// Processor runs one inbound event through the store, the engine and the
// gateway. Events of the same sender are serialized.
type Processor struct {
	engine  *Engine
	store   Store
	gateway Gateway
	locks   *keyedLock
	logger  *logging.Logger
	metrics *metrics.FlowMetrics
}

// NewProcessor wires a processor. metrics may be nil.
func NewProcessor(engine *Engine, store Store, gateway Gateway, logger *logging.Logger, m *metrics.FlowMetrics) *Processor {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if gateway == nil {
		panic("conversation: gateway cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		engine:  engine,
		store:   store,
		gateway: gateway,
		locks:   newKeyedLock(),
		logger:  logger,
		metrics: m,
	}
}

// Process handles ev to completion. Failures are logged and counted; none
// is returned because the transport has already been acknowledged.
func (p *Processor) Process(ctx context.Context, ev Event) {
	ev = ev.Normalize()
	if ev.Sender == "" {
		p.metrics.ObserveInbound(string(ev.Kind), "dropped")
		p.logger.Warn("inbound event without sender dropped", "message_id", ev.MessageID)
		return
	}

	unlock := p.locks.Lock(ev.Sender)
	defer unlock()

	st, err := p.store.Get(ctx, ev.Sender)
	if err != nil {
		p.metrics.ObserveInbound(string(ev.Kind), "store_error")
		p.logger.Error("failed to load conversation state", "sender", ev.Sender, "message_id", ev.MessageID, "error", err)
		return
	}

	d := p.engine.Decide(st, ev)
	next := st
	switch {
	case d.Clear:
		if err := p.store.Clear(ctx, ev.Sender); err != nil {
			p.logger.Error("failed to clear conversation state", "sender", ev.Sender, "error", err)
		}
		next = State{Sender: ev.Sender}
	case d.Patch != nil:
		next, err = p.store.Patch(ctx, ev.Sender, *d.Patch)
		if err != nil {
			p.logger.Error("failed to persist conversation state", "sender", ev.Sender, "error", err)
		}
	}
	p.metrics.ObserveInbound(string(ev.Kind), "processed")
	p.metrics.ObserveTransition(string(next.Flow()), string(next.Step))
	p.logger.Debug("conversation transition",
		"sender", ev.Sender,
		"message_id", ev.MessageID,
		"kind", ev.Kind,
		"from_flow", st.Flow(),
		"from_step", st.Step,
		"flow", next.Flow(),
		"step", next.Step,
		"replies", len(d.Messages),
	)

	for _, msg := range d.Messages {
		if err := p.gateway.Send(ctx, ev.Sender, msg); err != nil {
			p.logger.Warn("outbound message failed", "sender", ev.Sender, "type", MessageType(msg), "error", err)
		}
	}
}

// Get returns the sender's stored state.
func (p *Processor) Get(ctx context.Context, sender string) (State, error) {
	return p.store.Get(ctx, sender)
}

// Reset clears the sender's state. It waits for any event of the same
// sender that is still being processed, so that event cannot write the
// state back afterwards.
func (p *Processor) Reset(ctx context.Context, sender string) error {
	unlock := p.locks.Lock(sender)
	defer unlock()
	return p.store.Clear(ctx, sender)
}

// Store returns the store the processor reads and writes.
func (p *Processor) Store() Store {
	return p.store
}
