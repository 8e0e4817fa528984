package messaging

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

type stubGateway struct {
	mu   sync.Mutex
	sent []conversation.Message
	err  error
}

func (s *stubGateway) Send(_ context.Context, _ string, msg conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *stubGateway) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func outboundCount(t *testing.T, reg *prometheus.Registry, msgType, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "smartbot_whatsapp_outbound_messages_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["type"] == msgType && labels["status"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRateLimitedGatewayDelegates(t *testing.T) {
	inner := &stubGateway{}
	gw := NewRateLimitedGateway(inner, 0, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, gw.Send(context.Background(), "591700", conversation.Text{Body: "hola"}))
	}
	assert.Equal(t, 5, inner.count())
}

func TestRateLimitedGatewayHonorsContext(t *testing.T) {
	inner := &stubGateway{}
	gw := NewRateLimitedGateway(inner, 0.001, 1)

	require.NoError(t, gw.Send(context.Background(), "591700", conversation.Text{Body: "first"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := gw.Send(ctx, "591700", conversation.Text{Body: "second"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.count())
}

func TestRateLimitedGatewayNil(t *testing.T) {
	var gw *RateLimitedGateway
	assert.Error(t, gw.Send(context.Background(), "591700", conversation.Text{Body: "x"}))
}

func TestInstrumentedGatewayCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewFlowMetrics(reg)

	ok := NewInstrumentedGateway(&stubGateway{}, ProviderWhatsApp, m, nil)
	require.NoError(t, ok.Send(context.Background(), "591700", conversation.Buttons{Body: "b"}))
	require.NoError(t, ok.Send(context.Background(), "591700", conversation.Buttons{Body: "b"}))

	sendErr := errors.New("graph down")
	failing := NewInstrumentedGateway(&stubGateway{err: sendErr}, ProviderWhatsApp, m, nil)
	err := failing.Send(context.Background(), "591700", conversation.Image{URL: "https://qr"})
	assert.ErrorIs(t, err, sendErr)

	assert.Equal(t, 2.0, outboundCount(t, reg, "buttons", "sent"))
	assert.Equal(t, 1.0, outboundCount(t, reg, "image", "error"))
}

func TestLogGatewayLogsEveryMessageType(t *testing.T) {
	var buf bytes.Buffer
	gw := NewLogGateway(logging.NewWithWriter("debug", &buf))

	msgs := []conversation.Message{
		conversation.Text{Body: "hola"},
		conversation.Buttons{Body: "elige", Buttons: []conversation.Button{{ID: "A", Title: "a"}, {ID: "B", Title: "b"}, {ID: "C", Title: "c"}, {ID: "D", Title: "d"}}},
		conversation.List{Header: "Demos", Rows: []conversation.Row{{ID: "DEMO_FOOD", Title: "Food"}}},
		conversation.Image{URL: "https://example.com/qr.png", Caption: "QR"},
	}
	for _, msg := range msgs {
		require.NoError(t, gw.Send(context.Background(), "591700", msg))
	}

	out := buf.String()
	assert.Contains(t, out, "dry-run text")
	assert.Contains(t, out, "dry-run buttons")
	assert.Contains(t, out, `"dropped":1`)
	assert.Contains(t, out, "DEMO_FOOD")
	assert.Contains(t, out, "qr.png")
	assert.Error(t, gw.Send(context.Background(), "591700", nil))
}

func TestBuildGatewaySelectsProvider(t *testing.T) {
	gw, provider, reason := BuildGateway(GatewayConfig{}, nil, nil)
	require.NotNil(t, gw)
	assert.Equal(t, ProviderDryRun, provider)
	assert.Equal(t, "WHATSAPP_TOKEN missing, WHATSAPP_PHONE_ID missing", reason)
	assert.NoError(t, gw.Send(context.Background(), "591700", conversation.Text{Body: "hola"}))

	gw, provider, reason = BuildGateway(GatewayConfig{Token: "tok", PhoneID: "123", SendRate: 20, SendBurst: 10}, nil, nil)
	require.NotNil(t, gw)
	assert.Equal(t, ProviderWhatsApp, provider)
	assert.Empty(t, reason)
}
