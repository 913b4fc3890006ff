package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	memoryrepo "github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/memory"
	pgrepo "github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/postgres"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/session"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/viewtrack"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		SessionSecret:      "",
		SessionTTL:         7 * 24 * time.Hour,
		ViewFlushInterval:  30 * time.Second,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the gizmo service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Optional Redis buffer for view counts
	RedisURL          string
	ViewFlushInterval time.Duration

	// Session configuration
	SessionSecret string
	SessionTTL    time.Duration

	// Server options
	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.SessionSecret == "" {
		return errors.New("session_secret is required")
	}

	return nil
}

// BuildLogger creates a zap logger matching the configured environment.
func (c *ServerConfig) BuildLogger() (*zap.Logger, error) {
	if c.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// BuildService creates a Service instance from the server configuration. The
// returned cleanup function closes the resources the service was built on.
func (c *ServerConfig) BuildService(ctx context.Context, logger *zap.Logger) (gizmo.Service, func(), error) {
	cleanup := func() {}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}
	cleanup = closeRepo

	options := []gizmo.Option{
		gizmo.WithRepository(repo),
		gizmo.WithLogger(logger),
	}

	if c.EnableEventLogging {
		options = append(options, gizmo.WithEventSink(gizmo.NewLoggingEventSink(logger)))
	}

	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		tracker := viewtrack.New(rdb, repo, logger)
		options = append(options, gizmo.WithViewCounter(tracker))

		trackerCtx, stopTracker := context.WithCancel(context.Background())
		go tracker.Run(trackerCtx, c.ViewFlushInterval)

		prev := cleanup
		cleanup = func() {
			stopTracker()
			_ = rdb.Close()
			prev()
		}
	}

	svc, err := gizmo.New(options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// BuildSessionIssuer creates the session token issuer.
func (c *ServerConfig) BuildSessionIssuer() (*session.Issuer, error) {
	return session.NewIssuer([]byte(c.SessionSecret), c.SessionTTL)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (gizmo.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), func() {}, nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return pgrepo.NewWithPool(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}
