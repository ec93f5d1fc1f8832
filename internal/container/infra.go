package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/store/migrations"
	"go.uber.org/zap"
)

// Repository is the storage every service shares.
type Repository interface {
	shortener.Repository
	auth.UserRepository
	health.Checker
}

// Redis owns the shared Redis client. Client is nil when no address is configured.
type Redis struct {
	Client *redis.Client
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	if r.Client == nil {
		return nil
	}

	return r.Client.Close()
}

// Postgres owns the connection pool. Pool is nil when no database URL is configured.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	if p.Pool != nil {
		p.Pool.Close()
	}

	return nil
}

// LoggerPackage provides the *zap.Logger. LogFormat "json" selects the
// production encoder.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides *Redis.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.RedisAddr == "" {
			logger.Warn("redis disabled, using in-process rate limiting and discarding analytics events")

			return &Redis{}, nil
		}

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides *Postgres and migrates the schema on first use.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			return &Postgres{}, nil
		}

		migrator, err := migrations.New(opts.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}

		err = migrator.Up()
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", zap.Error(closeErr))
		}

		if err != nil {
			return nil, err
		}

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the Repository: PostgreSQL when a database
// URL is configured, memory otherwise.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (Repository, error) {
		pg := do.MustInvoke[*Postgres](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if pg.Pool == nil {
			logger.Warn("no database configured, mappings live in memory only")

			return store.NewMemoryStore(), nil
		}

		return store.NewPostgresStore(pg.Pool), nil
	})
}
