package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/events"
	"github.com/wolfman30/smartbot-platform/internal/messaging"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

func TestBuildEngineRequiresConfig(t *testing.T) {
	_, err := BuildEngine(nil)
	assert.Error(t, err)

	engine, err := BuildEngine(&appconfig.Config{AdvisorPhone: "+591 1"})
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestBuildStateStore(t *testing.T) {
	logger := logging.New("error")
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := BuildStateStore(&appconfig.Config{}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &conversation.MemoryStore{}, store)

	store, err = BuildStateStore(&appconfig.Config{StateBackend: BackendRedis}, client, logger)
	require.NoError(t, err)
	assert.IsType(t, &conversation.RedisStore{}, store)

	_, err = BuildStateStore(&appconfig.Config{StateBackend: BackendRedis}, nil, logger)
	assert.Error(t, err)

	_, err = BuildStateStore(&appconfig.Config{StateBackend: "etcd"}, nil, logger)
	assert.Error(t, err)

	_, err = BuildStateStore(nil, nil, logger)
	assert.Error(t, err)
}

func TestBuildSeenStore(t *testing.T) {
	logger := logging.New("error")
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	seen, err := BuildSeenStore(&appconfig.Config{DedupCapacity: 8}, nil, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &events.SeenCache{}, seen)

	seen, err = BuildSeenStore(&appconfig.Config{DedupBackend: BackendRedis}, client, nil, logger)
	require.NoError(t, err)
	first, err := seen.MarkSeen(context.Background(), "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	_, err = BuildSeenStore(&appconfig.Config{DedupBackend: BackendPostgres}, nil, nil, logger)
	assert.Error(t, err)

	_, err = BuildSeenStore(&appconfig.Config{DedupBackend: "kafka"}, nil, nil, logger)
	assert.Error(t, err)
}

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logger, true))
}

func TestBuildPostgresPoolDisabled(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), &appconfig.Config{})
	assert.NoError(t, err)
	assert.Nil(t, pool)
}

func TestBuildOutboundGatewayFallsBackToDryRun(t *testing.T) {
	gw, provider, reason := BuildOutboundGateway(&appconfig.Config{}, nil, logging.New("error"))
	require.NotNil(t, gw)
	assert.Equal(t, messaging.ProviderDryRun, provider)
	assert.NotEmpty(t, reason)

	_, provider, reason = BuildOutboundGateway(&appconfig.Config{WhatsAppToken: "tok", WhatsAppPhoneID: "1"}, nil, logging.New("error"))
	assert.Equal(t, messaging.ProviderWhatsApp, provider)
	assert.Empty(t, reason)
}
