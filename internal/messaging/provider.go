package messaging

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/smartbot-platform/internal/channels/whatsapp"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

const (
	// ProviderWhatsApp sends through the WhatsApp Cloud API.
	ProviderWhatsApp = "whatsapp"
	// ProviderDryRun logs outbound messages without sending them.
	ProviderDryRun = "dry-run"
)

// GatewayConfig captures what is needed to build the outbound gateway.
type GatewayConfig struct {
	Token       string
	PhoneID     string
	GraphBase   string
	HTTPTimeout time.Duration
	SendRate    float64
	SendBurst   int
	Tracer      trace.Tracer
}

// BuildGateway returns the outbound gateway, the provider that was selected
// and, for the dry-run provider, the reason no real sender was built.
// The result is always rate limited and instrumented.
func BuildGateway(cfg GatewayConfig, m *metrics.FlowMetrics, logger *logging.Logger) (conversation.Gateway, string, string) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		inner    conversation.Gateway
		provider string
		reason   string
	)
	if cfg.Token != "" && cfg.PhoneID != "" {
		client := whatsapp.NewClient(cfg.Token, cfg.PhoneID,
			whatsapp.WithHTTPTimeout(cfg.HTTPTimeout),
			whatsapp.WithClientLogger(logger),
			whatsapp.WithTracer(cfg.Tracer),
		)
		if base := strings.TrimSpace(cfg.GraphBase); base != "" {
			client.SetGraphAPIBase(base)
		}
		inner, provider = client, ProviderWhatsApp
	} else {
		var missing []string
		if cfg.Token == "" {
			missing = append(missing, "WHATSAPP_TOKEN missing")
		}
		if cfg.PhoneID == "" {
			missing = append(missing, "WHATSAPP_PHONE_ID missing")
		}
		inner, provider, reason = NewLogGateway(logger), ProviderDryRun, strings.Join(missing, ", ")
	}

	limited := NewRateLimitedGateway(inner, cfg.SendRate, cfg.SendBurst)
	return NewInstrumentedGateway(limited, provider, m, logger), provider, reason
}
