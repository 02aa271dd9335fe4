// Package bootstrap builds the process-wide infrastructure shared by the server,
// the worker and the operator CLI: logger, key-value store, Redis and S3.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mystik-app/backend/config"
	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/pkg/database"
	"github.com/mystik-app/backend/pkg/redis"
	"github.com/mystik-app/backend/pkg/storage"
)

// NewLogger builds the production JSON logger at level (debug, info, warn, error).
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Infra holds the opened store and the optional Redis client.
type Infra struct {
	Store kvstore.Store
	Redis *redis.Client // nil when REDIS_ADDR is empty

	backend string
	logger  *zap.Logger
}

// Open connects the configured key-value backend. Redis is connected whenever an
// address is configured, since the job queue uses it regardless of the backend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	infra := &Infra{backend: cfg.Store.Backend, logger: logger}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, err
		}
		infra.Redis = rdb
	}

	store, err := openStore(ctx, cfg, infra.Redis, logger)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.Store = store
	logger.Info("key-value store ready", zap.String("backend", cfg.Store.Backend))
	return infra, nil
}

func openStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger) (kvstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return kvstore.NewMemory(), nil
	case config.BackendSQLite:
		return kvstore.OpenSQLite(ctx, cfg.Store.SQLitePath)
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return kvstore.NewPostgres(pool), nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("KV_BACKEND=redis requires REDIS_ADDR")
		}
		return kvstore.NewRedis(rdb.Client, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.Store.Backend)
	}
}

// Close releases the store and the Redis client.
func (i *Infra) Close() {
	if i.Store != nil {
		if err := i.Store.Close(); err != nil {
			i.logger.Warn("close store", zap.Error(err))
		}
	}
	// The Redis store owns the client and has already closed it.
	if i.Redis != nil && i.backend != config.BackendRedis {
		if err := i.Redis.Close(); err != nil {
			i.logger.Warn("close redis", zap.Error(err))
		}
	}
}

// NewExporter returns the S3 export archive, or nil when no bucket is configured.
func NewExporter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.S3, error) {
	if cfg.AWS.ExportsBucket == "" {
		return nil, nil
	}
	return storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ExportsBucket:        cfg.AWS.ExportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
}

// AdminLocation loads the panel's default zone, falling back to UTC.
func AdminLocation(name string, logger *zap.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid ADMIN_TIMEZONE, using UTC", zap.String("timezone", name), zap.Error(err))
		}
		return time.UTC
	}
	return loc
}
