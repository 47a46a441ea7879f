package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite" // registers the "sqlite" database/sql driver
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/config"
)

//go:embed migrations
var migrationsFS embed.FS

// TableName 记录迁移版本的表
const TableName = "schema_migrations"

// Dialect 数据库方言
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect 解析 database.driver
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", s)
	}
}

// sqlDriver 返回 database/sql 注册名
func (d Dialect) sqlDriver() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return string(d)
}

// Status 单个迁移的状态
type Status struct {
	Version uint
	Name    string
	Applied bool
	Dirty   bool
}

// Info 迁移状态摘要
type Info struct {
	CurrentVersion uint
	Dirty          bool
	Total          int
	Applied        int
	Pending        int
}

// Migrator 管理 artifacts 表结构的版本
type Migrator interface {
	Up(ctx context.Context) error
	// Down 回滚最近一次迁移
	Down(ctx context.Context) error
	Version(ctx context.Context) (uint, bool, error)
	Status(ctx context.Context) ([]Status, error)
	Info(ctx context.Context) (*Info, error)
	Close() error
}

// SchemaMigrator 基于 golang-migrate 与内嵌 SQL 文件的 Migrator
type SchemaMigrator struct {
	dialect Dialect
	source  fs.FS
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New 为 dbCfg 指向的数据库创建迁移器，使用独立连接。
// 内存 SQLite 每个连接各自一份数据，无法迁移。
func New(dbCfg config.DatabaseConfig, logger *zap.Logger) (*SchemaMigrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialect, err := ParseDialect(dbCfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := dbCfg.DSN()
	if dialect == DialectSQLite && (dsn == "" || strings.Contains(dsn, ":memory:")) {
		return nil, errors.New("sqlite migrations need a database file in database.name")
	}

	db, err := sql.Open(dialect.sqlDriver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := newWithDB(db, dialect, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func newWithDB(db *sql.DB, dialect Dialect, logger *zap.Logger) (*SchemaMigrator, error) {
	var (
		drv database.Driver
		err error
	)
	switch dialect {
	case DialectPostgres:
		drv, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: TableName})
	case DialectMySQL:
		drv, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: TableName})
	case DialectSQLite:
		drv, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: TableName})
	default:
		err = fmt.Errorf("unsupported database type: %s", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, string(dialect), drv)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	log := logger.With(zap.String("component", "migration"), zap.String("dialect", string(dialect)))
	mg.Log = migrateLogger{log.Sugar()}
	mg.LockTimeout = 15 * time.Second

	return &SchemaMigrator{dialect: dialect, source: sub, migrate: mg, logger: log}, nil
}

// Up 应用全部未执行的迁移
func (m *SchemaMigrator) Up(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down 回滚一步
func (m *SchemaMigrator) Down(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version 返回当前版本；尚未迁移时为 0
func (m *SchemaMigrator) Version(ctx context.Context) (uint, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

// Status 列出全部内嵌迁移及其状态
func (m *SchemaMigrator) Status(ctx context.Context) ([]Status, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	files, err := available(m.source)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(files))
	for _, f := range files {
		out = append(out, Status{
			Version: f.version,
			Name:    f.name,
			Applied: f.version <= current,
			Dirty:   dirty && f.version == current,
		})
	}
	return out, nil
}

// Info 返回迁移摘要
func (m *SchemaMigrator) Info(ctx context.Context) (*Info, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	info := &Info{Total: len(statuses)}
	for _, s := range statuses {
		if s.Applied {
			info.Applied++
			info.CurrentVersion = s.Version
		}
		if s.Dirty {
			info.Dirty = true
		}
	}
	info.Pending = info.Total - info.Applied
	return info, nil
}

// Close 关闭迁移连接
func (m *SchemaMigrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

type migrationFile struct {
	version uint
	name    string
}

// available 解析 000001_name.up.sql 形式的文件名，按版本排序
func available(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	var files []migrationFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		if len(parts) < 2 {
			continue
		}
		version, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			continue
		}
		files = append(files, migrationFile{
			version: uint(version),
			name:    strings.TrimSuffix(parts[1], ".up.sql"),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// migrateLogger 把 golang-migrate 的日志转到 zap
type migrateLogger struct {
	s *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool { return false }
