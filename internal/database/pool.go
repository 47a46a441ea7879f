package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/devpod/llm/retry"
)

// probeTimeout bounds each background health check.
const probeTimeout = 5 * time.Second

// StatsRecorder 接收健康检查采样的连接数
type StatsRecorder interface {
	RecordDBConnections(database string, open, idle int)
}

// PoolManager 数据库连接池管理器
type PoolManager struct {
	db       *gorm.DB
	sqlDB    *sql.DB
	config   PoolConfig
	logger   *zap.Logger
	recorder StatsRecorder
	mu       sync.RWMutex
	closed   bool
	stop     chan struct{}
	done     chan struct{}
}

// PoolConfig 连接池配置
type PoolConfig struct {
	// 逻辑库名，用作指标 label
	Name string `yaml:"name" json:"name"`

	// 最大空闲连接数
	MaxIdleConns int `yaml:"max_idle_conns" json:"max_idle_conns"`

	// 最大打开连接数
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns"`

	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`

	// 连接最大空闲时间
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`

	// 健康检查间隔，0 表示不启动后台检查
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultPoolConfig 返回默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Name:                "devpod",
		MaxIdleConns:        5,
		MaxOpenConns:        25,
		ConnMaxLifetime:     5 * time.Minute,
		ConnMaxIdleTime:     10 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Validate 校验连接池配置
func (c PoolConfig) Validate() error {
	switch {
	case c.MaxOpenConns <= 0:
		return fmt.Errorf("max_open_conns must be positive")
	case c.MaxIdleConns <= 0:
		return fmt.Errorf("max_idle_conns must be positive")
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

// PoolOption 配置 PoolManager
type PoolOption func(*PoolManager)

// WithStatsRecorder 在每次健康检查后上报连接数
func WithStatsRecorder(r StatsRecorder) PoolOption {
	return func(pm *PoolManager) {
		pm.recorder = r
	}
}

// NewPoolManager 创建连接池管理器
func NewPoolManager(db *gorm.DB, config PoolConfig, logger *zap.Logger, opts ...PoolOption) (*PoolManager, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	pm := &PoolManager{
		db:     db,
		sqlDB:  sqlDB,
		config: config,
		logger: logger.With(zap.String("component", "db_pool")),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(pm)
	}

	if config.HealthCheckInterval > 0 {
		go pm.healthCheckLoop()
	} else {
		close(pm.done)
	}

	pm.logger.Info("database pool initialized",
		zap.Int("max_idle_conns", config.MaxIdleConns),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Duration("conn_max_lifetime", config.ConnMaxLifetime),
	)

	return pm, nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// DB 返回 GORM 数据库实例
func (pm *PoolManager) DB() *gorm.DB {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.db
}

// Ping 检查数据库连接
func (pm *PoolManager) Ping(ctx context.Context) error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.closed {
		return errPoolClosed
	}
	return pm.sqlDB.PingContext(ctx)
}

// Stats 返回连接池统计信息
func (pm *PoolManager) Stats() sql.DBStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.sqlDB.Stats()
}

// Close 停止健康检查并关闭连接池
func (pm *PoolManager) Close() error {
	pm.mu.Lock()
	if pm.closed {
		pm.mu.Unlock()
		return nil
	}
	pm.closed = true
	close(pm.stop)
	pm.mu.Unlock()

	<-pm.done
	pm.logger.Info("closing database pool")
	return pm.sqlDB.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

func (pm *PoolManager) healthCheckLoop() {
	defer close(pm.done)

	ticker := time.NewTicker(pm.config.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-pm.stop:
			return
		case <-ticker.C:
			pm.probe()
		}
	}
}

// probe 探活一次并上报连接数
func (pm *PoolManager) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := pm.Ping(ctx); err != nil {
		pm.logger.Error("database health check failed", zap.Error(err))
		return
	}
	stats := pm.Stats()
	if pm.recorder != nil {
		pm.recorder.RecordDBConnections(pm.config.Name, stats.OpenConnections, stats.Idle)
	}
	pm.logger.Debug("database health check passed",
		zap.Int("open", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
	)
}

// =============================================================================
// 🔄 事务
// =============================================================================

// TransactionFunc 在事务内执行，返回错误即回滚
type TransactionFunc func(tx *gorm.DB) error

var errPoolClosed = errors.New("pool is closed")

// WithTransaction 在单个事务中执行 fn
func (pm *PoolManager) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	pm.mu.RLock()
	closed, db := pm.closed, pm.db
	pm.mu.RUnlock()
	if closed {
		return errPoolClosed
	}
	return db.WithContext(ctx).Transaction(fn)
}

// WithTransactionRetry 与 WithTransaction 相同，但瞬时错误（死锁、序列化
// 失败、SQLite 忙、断连）按指数退避重试，最多 maxRetries 次。
func (pm *PoolManager) WithTransactionRetry(ctx context.Context, maxRetries int, fn TransactionFunc) error {
	policy := retry.Policy{
		MaxRetries:   maxRetries,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
		ShouldRetry:  isTransient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			pm.logger.Warn("transaction failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}
	return retry.NewBackoff(policy, pm.logger).Do(ctx, func() error {
		return pm.WithTransaction(ctx, fn)
	})
}

// transientMarkers 覆盖 postgres、mysql 与 sqlite 驱动的错误文本
var transientMarkers = []string{
	"deadlock",
	"serialization failure",
	"40001",
	"connection reset",
	"connection refused",
	"broken pipe",
	"bad connection",
	"lock timeout",
	"lock wait timeout",
	"database is locked",
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
