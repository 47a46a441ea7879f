package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/devpod/config"
)

// Dialector 按驱动名选择 GORM 方言
func Dialector(dbCfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch dbCfg.Driver {
	case "sqlite":
		if dbCfg.Name == "" {
			return nil, fmt.Errorf("sqlite requires database.name (file path or :memory:)")
		}
		return sqlite.Open(dbCfg.DSN()), nil
	case "postgres":
		return postgres.Open(dbCfg.DSN()), nil
	case "mysql":
		return mysql.Open(dbCfg.DSN()), nil
	case "":
		return nil, fmt.Errorf("database driver not configured")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", dbCfg.Driver)
	}
}

// Open 根据配置打开数据库连接并建立连接池
func Open(dbCfg config.DatabaseConfig, logger *zap.Logger, opts ...PoolOption) (*PoolManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := Dialector(dbCfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	poolCfg := DefaultPoolConfig()
	poolCfg.Name = dbCfg.Name
	if dbCfg.MaxOpenConns > 0 {
		poolCfg.MaxOpenConns = dbCfg.MaxOpenConns
	}
	if dbCfg.MaxIdleConns > 0 {
		poolCfg.MaxIdleConns = dbCfg.MaxIdleConns
	}
	if dbCfg.ConnMaxLifetime > 0 {
		poolCfg.ConnMaxLifetime = dbCfg.ConnMaxLifetime
	}
	if dbCfg.Driver == "sqlite" {
		// SQLite 单写者
		poolCfg.MaxOpenConns = 1
		poolCfg.MaxIdleConns = 1
	}
	if err := poolCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	logger.Info("database connected", zap.String("driver", dbCfg.Driver))
	return NewPoolManager(db, poolCfg, logger, opts...)
}
