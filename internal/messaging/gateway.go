package messaging

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// RateLimitedGateway throttles outbound sends to the configured rate.
type RateLimitedGateway struct {
	inner   conversation.Gateway
	limiter *rate.Limiter
}

// NewRateLimitedGateway wraps inner with a token bucket of perSecond and burst.
// A non-positive rate disables throttling.
func NewRateLimitedGateway(inner conversation.Gateway, perSecond float64, burst int) *RateLimitedGateway {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedGateway{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

var _ conversation.Gateway = (*RateLimitedGateway)(nil)

// Send waits for a token, or for ctx to end, before delegating.
func (g *RateLimitedGateway) Send(ctx context.Context, to string, msg conversation.Message) error {
	if g == nil || g.inner == nil {
		return errors.New("messaging: rate limited gateway not configured")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("messaging: wait for send slot: %w", err)
	}
	return g.inner.Send(ctx, to, msg)
}

// InstrumentedGateway counts outbound sends by message type and outcome.
type InstrumentedGateway struct {
	inner    conversation.Gateway
	provider string
	metrics  *metrics.FlowMetrics
	logger   *logging.Logger
}

// NewInstrumentedGateway wraps inner. m may be nil.
func NewInstrumentedGateway(inner conversation.Gateway, provider string, m *metrics.FlowMetrics, logger *logging.Logger) *InstrumentedGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &InstrumentedGateway{inner: inner, provider: provider, metrics: m, logger: logger}
}

var _ conversation.Gateway = (*InstrumentedGateway)(nil)

// Send delegates to the wrapped gateway and records the result.
func (g *InstrumentedGateway) Send(ctx context.Context, to string, msg conversation.Message) error {
	msgType := conversation.MessageType(msg)
	if err := g.inner.Send(ctx, to, msg); err != nil {
		g.metrics.ObserveOutbound(msgType, "error")
		g.logger.Error("outbound send failed",
			"provider", g.provider,
			"to", to,
			"type", msgType,
			"error", err,
		)
		return err
	}
	g.metrics.ObserveOutbound(msgType, "sent")
	return nil
}

// LogGateway logs outbound messages instead of sending them. It is used when
// no WhatsApp credentials are configured.
type LogGateway struct {
	logger *logging.Logger
}

// NewLogGateway creates a dry-run gateway.
func NewLogGateway(logger *logging.Logger) *LogGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogGateway{logger: logger}
}

var _ conversation.Gateway = (*LogGateway)(nil)

// Send logs msg and never fails for a well-formed message.
func (g *LogGateway) Send(_ context.Context, to string, msg conversation.Message) error {
	switch m := msg.(type) {
	case conversation.Text:
		g.logger.Info("dry-run text", "to", to, "body", m.Body)
	case conversation.Buttons:
		kept, dropped := conversation.TruncateButtons(m.Buttons)
		ids := make([]string, 0, len(kept))
		for _, b := range kept {
			ids = append(ids, b.ID)
		}
		g.logger.Info("dry-run buttons", "to", to, "body", m.Body, "buttons", ids, "dropped", dropped)
	case conversation.List:
		ids := make([]string, 0, len(m.Rows))
		for _, r := range m.Rows {
			ids = append(ids, r.ID)
		}
		g.logger.Info("dry-run list", "to", to, "header", m.Header, "rows", ids)
	case conversation.Image:
		g.logger.Info("dry-run image", "to", to, "url", m.URL, "caption", m.Caption)
	default:
		return fmt.Errorf("messaging: unsupported message %T", msg)
	}
	return nil
}
