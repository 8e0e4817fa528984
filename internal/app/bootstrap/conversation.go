package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// BuildEngine returns the flow engine configured with the canned content
// references from cfg.
func BuildEngine(cfg *appconfig.Config) (*conversation.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	return conversation.NewEngine(conversation.EngineConfig{
		PaymentQRURL:    cfg.PaymentQRURL,
		DocumentBaseURL: cfg.DocumentBaseURL,
		AdvisorPhone:    cfg.AdvisorPhone,
	}), nil
}

// BuildStateStore selects the conversation store named by STATE_BACKEND.
// The Redis backend needs a client; the memory backend ignores it.
func BuildStateStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (conversation.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StateBackend {
	case "", BackendMemory:
		logger.Info("conversation state in memory", "ttl", cfg.StateTTL.String())
		return conversation.NewMemoryStore(
			conversation.WithStateTTL(cfg.StateTTL),
			conversation.WithMemoryStoreLogger(logger),
		), nil
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: STATE_BACKEND=redis requires REDIS_ADDR")
		}
		logger.Info("conversation state in redis", "ttl", cfg.StateTTL.String())
		return conversation.NewRedisStore(redisClient, cfg.StateTTL, otel.Tracer("smartbot.internal.conversation")), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown STATE_BACKEND %q", cfg.StateBackend)
	}
}
