package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Sync     SyncConfig
}

// RedisConfig configures the optional Redis client used for distributed
// reconciliation locks and webhook idempotency keys.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres-backed identity store.
// An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the audit trail publisher. Empty brokers select the
// in-memory audit store.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// SyncConfig holds the reconciliation tuning knobs.
type SyncConfig struct {
	// PerPlatformTimeout bounds each adapter fetch independently.
	PerPlatformTimeout time.Duration
	// CycleTimeout bounds a whole sync cycle.
	CycleTimeout time.Duration
	// LockTTL bounds how long a crashed instance can hold an identity lock.
	LockTTL time.Duration
	// NumericVarianceThreshold is the coefficient-of-variation cutoff above
	// which divergent numeric fields are flagged as conflicts.
	NumericVarianceThreshold float64
	// PlatformPriority is the fixed tie-break order for conflict resolution.
	PlatformPriority []string
	// AdapterEndpoints maps platform id to the base URL of its profile
	// endpoint, e.g. "youtube=https://yt-proxy.internal".
	AdapterEndpoints map[string]string
	// MinInterval throttles repeat cycles per identity unless forced.
	MinInterval time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("CREATORID_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "creatorid.audit"),
		},
		Sync: SyncConfig{
			PerPlatformTimeout:       envDuration("SYNC_PLATFORM_TIMEOUT", 5*time.Second),
			CycleTimeout:             envDuration("SYNC_CYCLE_TIMEOUT", 30*time.Second),
			LockTTL:                  envDuration("SYNC_LOCK_TTL", time.Minute),
			NumericVarianceThreshold: envFloat("SYNC_CV_THRESHOLD", 0.15),
			PlatformPriority:         splitNonEmptyOr(os.Getenv("SYNC_PLATFORM_PRIORITY"), []string{"youtube", "instagram", "tiktok"}),
			AdapterEndpoints:         parsePairs(os.Getenv("PLATFORM_ADAPTERS")),
			MinInterval:              envDuration("SYNC_MIN_INTERVAL", 5*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parsePairs splits "key=value,key=value" into a map. Malformed entries are
// dropped.
func parsePairs(s string) map[string]string {
	out := map[string]string{}
	for _, part := range splitNonEmpty(s) {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" || value == "" {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

func splitNonEmptyOr(s string, fallback []string) []string {
	if parts := splitNonEmpty(s); len(parts) > 0 {
		return parts
	}
	return fallback
}
