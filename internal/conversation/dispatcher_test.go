package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

func droppedCount(t *testing.T, reg *prometheus.Registry, reason string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "smartbot_dispatcher_dropped_events_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "reason" && lp.GetValue() == reason {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type recordingHandler struct {
	mu      sync.Mutex
	events  []Event
	block   chan struct{}
	panicOn string
}

func (h *recordingHandler) Process(ctx context.Context, ev Event) {
	if h.block != nil {
		<-h.block
	}
	if ev.Text == h.panicOn && h.panicOn != "" {
		panic("boom")
	}
	if _, ok := ctx.Deadline(); !ok {
		panic("process context has no deadline")
	}
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
}

func (h *recordingHandler) bySender() map[string][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]string)
	for _, ev := range h.events {
		out[ev.Sender] = append(out[ev.Sender], ev.Text)
	}
	return out
}

func TestDispatcherPreservesPerSenderOrder(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, 256, logging.Default(), WithWorkerCount(4), WithProcessTimeout(time.Second))
	d.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, sender := range []string{"a", "b", "c"} {
			require.NoError(t, d.Submit(context.Background(), TextEvent(sender, fmt.Sprint(i))))
		}
	}
	d.Close()

	got := h.bySender()
	for _, sender := range []string{"a", "b", "c"} {
		require.Len(t, got[sender], 50)
		for i, text := range got[sender] {
			assert.Equal(t, fmt.Sprint(i), text, "sender %s out of order", sender)
		}
	}
}

func TestDispatcherDropsWhenShardFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := &recordingHandler{block: make(chan struct{})}
	d := NewDispatcher(h, 1, logging.Default(), WithWorkerCount(1), WithDispatcherMetrics(metrics.NewFlowMetrics(reg)))
	d.Start(context.Background())

	// The worker takes the first event and blocks; the second fills the buffer.
	require.NoError(t, d.Submit(context.Background(), TextEvent("a", "1")))
	assert.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.Submit(context.Background(), TextEvent("a", "2")))

	err := d.Submit(context.Background(), TextEvent("a", "3"))
	assert.True(t, errors.Is(err, ErrShardFull))
	assert.Equal(t, float64(1), droppedCount(t, reg, "shard_full"))
	assert.Zero(t, droppedCount(t, reg, "canceled"))

	close(h.block)
	d.Close()
	assert.Equal(t, []string{"1", "2"}, h.bySender()["a"])
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingHandler{}, 4, logging.Default())
	d.Start(context.Background())
	d.Close()
	d.Close()

	err := d.Submit(context.Background(), TextEvent("a", "late"))
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestDispatcherHonorsCancelledSubmitContext(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name:    "canceled",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantErr: context.Canceled,
		},
		{
			name:    "deadline exceeded",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), -time.Second) },
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			d := NewDispatcher(&recordingHandler{}, 4, logging.Default(), WithDispatcherMetrics(metrics.NewFlowMetrics(reg)))
			d.Start(context.Background())
			defer d.Close()

			ctx, cancel := tt.ctx()
			cancel()
			assert.ErrorIs(t, d.Submit(ctx, TextEvent("a", "x")), tt.wantErr)
			assert.Equal(t, float64(1), droppedCount(t, reg, "canceled"))
			assert.Zero(t, droppedCount(t, reg, "shard_full"))
		})
	}
}

func TestDispatcherRecoversFromPanics(t *testing.T) {
	h := &recordingHandler{panicOn: "explode"}
	d := NewDispatcher(h, 4, logging.Default(), WithWorkerCount(1))
	d.Start(context.Background())

	require.NoError(t, d.Submit(context.Background(), TextEvent("a", "explode")))
	require.NoError(t, d.Submit(context.Background(), TextEvent("a", "after")))
	d.Close()

	assert.Equal(t, []string{"after"}, h.bySender()["a"])
}
