package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/config"
	"github.com/BaSui01/devpod/internal/database"
	"github.com/BaSui01/devpod/internal/migration"
	"github.com/BaSui01/devpod/internal/tlsutil"
	"github.com/BaSui01/devpod/rag"
	"github.com/BaSui01/devpod/types"
)

// connectTimeout bounds the initial Redis ping.
const connectTimeout = 5 * time.Second

// New creates the Store selected by cfg.Store.Backend.
//
// The hash embedder takes its dimension from cfg.Store.EmbeddingDim unless
// opts supply WithEmbedder. When the recorder passed through WithRecorder
// also samples connection pools (database.StatsRecorder), the SQL backend
// reports to it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (Store, error) {
	if cfg == nil {
		return nil, types.NewError(types.ErrConfig, "config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]Option{WithEmbedder(rag.NewHashEmbedder(cfg.Store.EmbeddingDim)), WithLogger(logger)}, opts...)

	switch StoreType(cfg.Store.Backend) {
	case StoreTypeMemory, "":
		return NewMemoryStore(opts...), nil

	case StoreTypeSQL:
		var sqlOpts []SQLOption
		if cfg.Database.Migrations {
			if err := migrateSchema(ctx, cfg.Database, logger); err != nil {
				return nil, err
			}
			sqlOpts = append(sqlOpts, WithoutAutoMigrate())
		}

		var poolOpts []database.PoolOption
		if sr, ok := newOptions(opts).recorder.(database.StatsRecorder); ok {
			poolOpts = append(poolOpts, database.WithStatsRecorder(sr))
		}
		pool, err := database.Open(cfg.Database, logger, poolOpts...)
		if err != nil {
			return nil, storeError("open database", err)
		}
		sqlOpts = append(sqlOpts, WithCloser(pool.Close), WithTransactor(pool))
		s, err := NewSQLStore(ctx, pool.DB(), sqlOpts, opts...)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		return s, nil

	case StoreTypeRedis:
		ropts := &redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}
		if cfg.Redis.TLS {
			ropts.TLSConfig = tlsutil.RedisTLSConfig(cfg.Redis.Addr)
		}
		client := redis.NewClient(ropts)

		// Test connection
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, storeError(fmt.Sprintf("failed to connect to Redis at %s", cfg.Redis.Addr), err)
		}
		return NewRedisStore(client, cfg.Store.KeyPrefix, opts...)

	default:
		return nil, types.NewError(types.ErrConfig, fmt.Sprintf("unsupported store backend: %s", cfg.Store.Backend))
	}
}

// migrateSchema applies the embedded versioned migrations on a separate
// connection.
func migrateSchema(ctx context.Context, dbCfg config.DatabaseConfig, logger *zap.Logger) error {
	m, err := migration.New(dbCfg, logger)
	if err != nil {
		return storeError("open schema migrator", err)
	}
	defer m.Close()
	if err := m.Up(ctx); err != nil {
		return storeError("apply schema migrations", err)
	}
	return nil
}
