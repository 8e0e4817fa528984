package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// WhatsApp Cloud API
	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppVerifyToken string
	WhatsAppAppSecret   string
	WhatsAppGraphBase   string
	WhatsAppHTTPTimeout time.Duration
	WhatsAppSendRate    float64
	WhatsAppSendBurst   int

	// Canned content references
	PaymentQRURL    string
	DocumentBaseURL string
	AdvisorPhone    string

	// Conversation state
	StateBackend       string
	StateTTL           time.Duration
	StateSweepInterval time.Duration

	// Duplicate delivery suppression
	DedupBackend  string
	DedupCapacity int
	DedupTTL      time.Duration

	// Inbound processing
	WorkerCount    int
	WorkerBuffer   int
	ProcessTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	AdminJWTSecret string
	AdminRateLimit float64
	AdminRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "10000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WhatsAppToken:       getEnv("WHATSAPP_TOKEN", getEnv("WABA_TOKEN", "")),
		WhatsAppPhoneID:     getEnv("WHATSAPP_PHONE_ID", getEnv("WABA_PHONE_ID", "")),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", getEnv("VERIFY_TOKEN", "smartbot-verify-123")),
		WhatsAppAppSecret:   getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppGraphBase:   getEnv("WHATSAPP_GRAPH_BASE", "https://graph.facebook.com/v20.0"),
		WhatsAppHTTPTimeout: getEnvAsDuration("WHATSAPP_HTTP_TIMEOUT", 10*time.Second),
		WhatsAppSendRate:    getEnvAsFloat("WHATSAPP_SEND_RATE", 20),
		WhatsAppSendBurst:   getEnvAsInt("WHATSAPP_SEND_BURST", 10),

		PaymentQRURL:    getEnv("PAYMENT_QR_URL", ""),
		DocumentBaseURL: strings.TrimRight(getEnv("DOCUMENT_BASE_URL", "https://docs.smartbot-bo.com"), "/"),
		AdvisorPhone:    getEnv("ADVISOR_PHONE", "+591 72296430"),

		StateBackend:       strings.ToLower(strings.TrimSpace(getEnv("STATE_BACKEND", "memory"))),
		StateTTL:           getEnvAsDuration("STATE_TTL", 0),
		StateSweepInterval: getEnvAsDuration("STATE_SWEEP_INTERVAL", 5*time.Minute),

		DedupBackend:  strings.ToLower(strings.TrimSpace(getEnv("DEDUP_BACKEND", "memory"))),
		DedupCapacity: getEnvAsInt("DEDUP_CAPACITY", 1024),
		DedupTTL:      getEnvAsDuration("DEDUP_TTL", 24*time.Hour),

		WorkerCount:    getEnvAsInt("WORKER_COUNT", 4),
		WorkerBuffer:   getEnvAsInt("WORKER_BUFFER", 64),
		ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		AdminRateLimit: getEnvAsFloat("ADMIN_RATE_LIMIT", 5),
		AdminRateBurst: getEnvAsInt("ADMIN_RATE_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
