package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSeenStore shares duplicate suppression across instances using SET NX
// with an expiry.
type RedisSeenStore struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSeenStore creates a RedisSeenStore. Ids are forgotten after ttl.
func NewRedisSeenStore(client *redis.Client, ttl time.Duration) *RedisSeenStore {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSeenStore{redis: client, ttl: ttl, prefix: "smartbot:seen:"}
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, id string) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.prefix+id, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark seen: %w", err)
	}
	return ok, nil
}
