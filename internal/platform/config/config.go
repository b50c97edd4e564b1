// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development-safe default; production overrides
// them through TALENTTRACK_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres captures database connectivity. An empty DSN means the service
// runs on in-memory stores (development and tests).
type Postgres struct {
	DSN string
}

// Redis captures cache/idempotency connectivity. An empty URL disables both
// the webhook delivery dedupe and the incident count cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the optional audit sink. No brokers means audit events stay
// in the store-backed trail only.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Pipeline captures reconciliation behavior knobs.
type Pipeline struct {
	// ReprocessAfter is the cutoff instant for the batch sweep: responses
	// submitted before it are never swept again. Guards against replaying
	// historical backlog after a fix; configured, not hardcoded.
	ReprocessAfter time.Time

	// ScopeResolverToCycle restricts candidate matching to the submission's
	// recruiting cycle. Default false: people re-apply across cycles and a
	// returning applicant should attach to their existing record.
	ScopeResolverToCycle bool

	// IncidentCountCacheTTL bounds staleness of the navigation-badge counts.
	IncidentCountCacheTTL time.Duration

	// WebhookDedupeTTL is how long a provider delivery ID is remembered.
	WebhookDedupeTTL time.Duration

	// WebhookRateLimit caps deliveries per source IP per WebhookRateWindow.
	// Zero disables the limiter.
	WebhookRateLimit  int
	WebhookRateWindow time.Duration
}

// Config is the application root configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Pipeline Pipeline
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("TALENTTRACK_ADDR", ":8080"),
			JWTSigningKey: envOr("TALENTTRACK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("TALENTTRACK_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("TALENTTRACK_REDIS_URL"),
			PoolSize:     envInt("TALENTTRACK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("TALENTTRACK_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("TALENTTRACK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("TALENTTRACK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("TALENTTRACK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("TALENTTRACK_KAFKA_BROKERS"),
			Topic:   envOr("TALENTTRACK_KAFKA_AUDIT_TOPIC", "talenttrack.audit"),
		},
		Pipeline: Pipeline{
			ReprocessAfter:        envTime("TALENTTRACK_REPROCESS_AFTER"),
			ScopeResolverToCycle:  os.Getenv("TALENTTRACK_SCOPE_RESOLVER_TO_CYCLE") == "true",
			IncidentCountCacheTTL: envDuration("TALENTTRACK_INCIDENT_COUNT_CACHE_TTL", 30*time.Second),
			WebhookDedupeTTL:      envDuration("TALENTTRACK_WEBHOOK_DEDUPE_TTL", 24*time.Hour),
			WebhookRateLimit:      envInt("TALENTTRACK_WEBHOOK_RATE_LIMIT", 120),
			WebhookRateWindow:     envDuration("TALENTTRACK_WEBHOOK_RATE_WINDOW", time.Minute),
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envTime parses an RFC3339 instant; the zero time means no cutoff.
func envTime(key string) time.Time {
	if v := os.Getenv(key); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
