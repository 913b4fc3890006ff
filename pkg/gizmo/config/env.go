package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Environment variable mapping:
//
//	PORT                - server port (default "8080")
//	ENVIRONMENT         - runtime environment (default "development")
//	DATABASE_URL        - connection string; a "postgres://" or
//	                      "postgresql://" prefix selects the Postgres
//	                      repository, empty or "memory" selects in-memory
//	REDIS_URL           - optional; enables the Redis view-count buffer
//	VIEW_FLUSH_INTERVAL - flush cadence for buffered views (Go duration)
//	SESSION_SECRET      - HS256 secret for session tokens (required)
//	SESSION_TTL         - session token lifetime (Go duration)
//	EVENT_LOGGING       - "true"/"false", log domain events (default true)
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if v, ok := lookupEnv(prefix, "DATABASE_URL"); ok {
			switch {
			case v == "" || v == "memory":
				c.DatabaseType = "memory"
				c.DatabaseURL = ""
			case strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://"):
				c.DatabaseType = "postgres"
				c.DatabaseURL = v
			default:
				return fmt.Errorf("unrecognized DATABASE_URL %q", v)
			}
		}

		if v, ok := lookupEnv(prefix, "REDIS_URL"); ok {
			c.RedisURL = v
		}
		if err := applyDurationEnv(prefix, "VIEW_FLUSH_INTERVAL", &c.ViewFlushInterval); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "SESSION_SECRET"); ok {
			c.SessionSecret = v
		}
		if err := applyDurationEnv(prefix, "SESSION_TTL", &c.SessionTTL); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "EVENT_LOGGING"); ok && v != "" {
			c.EnableEventLogging = v == "true" || v == "1"
		}

		return nil
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix != "" {
		key = prefix + "_" + key
	}
	return os.LookupEnv(key)
}

func applyDurationEnv(prefix, key string, dst *time.Duration) error {
	v, ok := lookupEnv(prefix, key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
