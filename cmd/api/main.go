package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/smartbot-platform/internal/api/router"
	"github.com/wolfman30/smartbot-platform/internal/app/bootstrap"
	"github.com/wolfman30/smartbot-platform/internal/channels/whatsapp"
	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/events"
	"github.com/wolfman30/smartbot-platform/internal/http/handlers"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting smartbot WhatsApp responder",
		"env", cfg.Env,
		"port", cfg.Port,
		"state_backend", cfg.StateBackend,
		"dedup_backend", cfg.DedupBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler    http.Handler
	dispatcher *conversation.Dispatcher
	redis      *redis.Client
	pool       *pgxpool.Pool
	cancel     context.CancelFunc
}

// close drains queued events before releasing connections.
func (a *app) close() {
	a.dispatcher.Close()
	a.cancel()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func setupMetrics() (http.Handler, *metrics.FlowMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewFlowMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	metricsHandler, flowMetrics := setupMetrics()

	needsRedis := cfg.StateBackend == bootstrap.BackendRedis || cfg.DedupBackend == bootstrap.BackendRedis
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, needsRedis)

	var pool *pgxpool.Pool
	if cfg.DedupBackend == bootstrap.BackendPostgres {
		var err error
		pool, err = bootstrap.BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	store, err := bootstrap.BuildStateStore(cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}
	seen, err := bootstrap.BuildSeenStore(cfg, redisClient, pool, logger)
	if err != nil {
		return nil, err
	}
	engine, err := bootstrap.BuildEngine(cfg)
	if err != nil {
		return nil, err
	}

	gateway, provider, reason := bootstrap.BuildOutboundGateway(cfg, flowMetrics, logger)
	if reason != "" {
		logger.Warn("WhatsApp credentials missing; outbound messages are logged only", "reason", reason)
	}
	logger.Info("outbound gateway ready", "provider", provider)

	runCtx, cancel := context.WithCancel(context.Background())
	if mem, ok := store.(*conversation.MemoryStore); ok && cfg.StateTTL > 0 {
		mem.StartJanitor(runCtx, cfg.StateSweepInterval)
	}
	if ledger, ok := seen.(*events.ProcessedStore); ok && cfg.DedupTTL > 0 {
		go pruneProcessed(runCtx, ledger, cfg.DedupTTL, logger)
	}

	processor := conversation.NewProcessor(engine, store, gateway, logger.Named("processor"), flowMetrics)
	dispatcher := conversation.NewDispatcher(processor, cfg.WorkerBuffer, logger.Named("dispatcher"),
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithProcessTimeout(cfg.ProcessTimeout),
		conversation.WithDispatcherMetrics(flowMetrics),
	)
	dispatcher.Start(runCtx)

	checks := map[string]handlers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}

	webhook := whatsapp.NewWebhookHandler(cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret, dispatcher, seen, logger.Named("webhook"), flowMetrics)
	if cfg.WhatsAppAppSecret == "" {
		logger.Warn("WHATSAPP_APP_SECRET not set; webhook signatures are not verified")
	}

	h := router.New(&router.Config{
		Logger:             logger,
		Webhook:            webhook,
		Health:             handlers.NewHealthHandler(checks),
		MetricsHandler:     metricsHandler,
		AdminConversations: handlers.NewAdminConversationsHandler(processor, logger.Named("admin")),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		AdminRateLimit:     cfg.AdminRateLimit,
		AdminRateBurst:     cfg.AdminRateBurst,
	})

	return &app{
		handler:    h,
		dispatcher: dispatcher,
		redis:      redisClient,
		pool:       pool,
		cancel:     cancel,
	}, nil
}

func pruneProcessed(ctx context.Context, ledger *events.ProcessedStore, ttl time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := ledger.Prune(ctx, now.Add(-ttl))
			if err != nil {
				logger.Warn("failed to prune processed events", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("pruned processed events", "removed", removed)
			}
		}
	}
}
