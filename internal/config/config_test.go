package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "WHATSAPP_TOKEN", "WABA_TOKEN", "WHATSAPP_VERIFY_TOKEN",
		"VERIFY_TOKEN", "STATE_BACKEND", "STATE_TTL", "DEDUP_CAPACITY", "WHATSAPP_HTTP_TIMEOUT",
		"DOCUMENT_BASE_URL",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "10000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.WhatsAppVerifyToken != "smartbot-verify-123" {
		t.Fatalf("expected default verify token, got %s", cfg.WhatsAppVerifyToken)
	}
	if cfg.StateBackend != "memory" {
		t.Fatalf("expected memory state backend, got %s", cfg.StateBackend)
	}
	if cfg.StateTTL != 0 {
		t.Fatalf("expected state ttl disabled by default, got %s", cfg.StateTTL)
	}
	if cfg.DedupCapacity != 1024 {
		t.Fatalf("expected default dedup capacity, got %d", cfg.DedupCapacity)
	}
	if cfg.WhatsAppHTTPTimeout != 10*time.Second {
		t.Fatalf("expected default gateway timeout, got %s", cfg.WhatsAppHTTPTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("WHATSAPP_TOKEN", "")
	t.Setenv("WABA_TOKEN", "legacy-token")
	t.Setenv("WHATSAPP_PHONE_ID", "12345")
	t.Setenv("STATE_BACKEND", " Redis ")
	t.Setenv("STATE_TTL", "45m")
	t.Setenv("DEDUP_CAPACITY", "16")
	t.Setenv("WHATSAPP_SEND_RATE", "2.5")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("DOCUMENT_BASE_URL", "https://docs.example.com/")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.WhatsAppToken != "legacy-token" {
		t.Fatalf("expected legacy token fallback, got %s", cfg.WhatsAppToken)
	}
	if cfg.WhatsAppPhoneID != "12345" {
		t.Fatalf("expected phone id override, got %s", cfg.WhatsAppPhoneID)
	}
	if cfg.StateBackend != "redis" {
		t.Fatalf("expected normalized backend, got %q", cfg.StateBackend)
	}
	if cfg.StateTTL != 45*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.StateTTL)
	}
	if cfg.DedupCapacity != 16 {
		t.Fatalf("expected dedup override, got %d", cfg.DedupCapacity)
	}
	if cfg.WhatsAppSendRate != 2.5 {
		t.Fatalf("expected send rate override, got %v", cfg.WhatsAppSendRate)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.DocumentBaseURL != "https://docs.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.DocumentBaseURL)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("PROCESS_TIMEOUT", "soon")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.ProcessTimeout != 30*time.Second {
		t.Fatalf("expected default process timeout, got %s", cfg.ProcessTimeout)
	}
}
