package bootstrap

import (
	"go.opentelemetry.io/otel"

	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/messaging"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// BuildOutboundGateway creates the WhatsApp gateway, or the dry-run gateway
// when credentials are missing, with the standard wrappers applied.
func BuildOutboundGateway(cfg *appconfig.Config, m *metrics.FlowMetrics, logger *logging.Logger) (conversation.Gateway, string, string) {
	if cfg == nil {
		return messaging.NewLogGateway(logger), messaging.ProviderDryRun, "missing config"
	}
	return messaging.BuildGateway(messaging.GatewayConfig{
		Token:       cfg.WhatsAppToken,
		PhoneID:     cfg.WhatsAppPhoneID,
		GraphBase:   cfg.WhatsAppGraphBase,
		HTTPTimeout: cfg.WhatsAppHTTPTimeout,
		SendRate:    cfg.WhatsAppSendRate,
		SendBurst:   cfg.WhatsAppSendBurst,
		Tracer:      otel.Tracer("smartbot.internal.channels.whatsapp"),
	}, m, logger)
}
