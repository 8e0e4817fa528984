package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/events"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// BuildSeenStore selects the duplicate-delivery store named by DEDUP_BACKEND.
func BuildSeenStore(cfg *appconfig.Config, redisClient *redis.Client, pool *pgxpool.Pool, logger *logging.Logger) (events.SeenStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.DedupBackend {
	case "", BackendMemory:
		logger.Info("dedup cache in memory", "capacity", cfg.DedupCapacity)
		return events.NewSeenCache(cfg.DedupCapacity), nil
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: DEDUP_BACKEND=redis requires REDIS_ADDR")
		}
		logger.Info("dedup cache in redis", "ttl", cfg.DedupTTL.String())
		return events.NewRedisSeenStore(redisClient, cfg.DedupTTL), nil
	case BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: DEDUP_BACKEND=postgres requires DATABASE_URL")
		}
		logger.Info("dedup ledger in postgres")
		return events.NewProcessedStore(pool), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown DEDUP_BACKEND %q", cfg.DedupBackend)
	}
}
