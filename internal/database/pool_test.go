package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/devpod/config"
)

// =============================================================================
// 🧪 PoolManager 测试
// =============================================================================

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

func testPoolConfig() PoolConfig {
	return PoolConfig{
		Name:         "test",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

type statsSink struct {
	mu    sync.Mutex
	calls int
	name  string
}

func (s *statsSink) RecordDBConnections(database string, open, idle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.name = database
}

func (s *statsSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewPoolManager(t *testing.T) {
	mockDB, _, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, manager.logger)
	assert.Equal(t, gormDB, manager.DB())
	assert.Equal(t, 10, manager.Stats().MaxOpenConnections)
}

func TestNewPoolManager_NilDB(t *testing.T) {
	_, err := NewPoolManager(nil, testPoolConfig(), nil)
	assert.Error(t, err)
}

func TestPoolManager_Ping(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, manager.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.Error(t, manager.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransaction(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return nil
	})
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRetry(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	// 第一次死锁回滚，第二次提交
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err = manager.WithTransactionRetry(context.Background(), 2, func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_WithTransactionRetry_NonRetryable(t *testing.T) {
	mockDB, mock, gormDB := setupTestDB(t)
	defer mockDB.Close()

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err = manager.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return errors.New("unique constraint violated")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPoolManager_Close(t *testing.T) {
	_, mock, gormDB := setupTestDB(t)

	manager, err := NewPoolManager(gormDB, testPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, manager.Close())
	// 重复关闭无副作用
	require.NoError(t, manager.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, manager.Ping(context.Background()))
	err = manager.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil })
	assert.Error(t, err)
}

func TestPoolManager_HealthCheckRecordsStats(t *testing.T) {
	_, mock, gormDB := setupTestDB(t)
	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 20; i++ {
		mock.ExpectPing()
	}
	mock.ExpectClose()

	sink := &statsSink{}
	cfg := testPoolConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond

	manager, err := NewPoolManager(gormDB, cfg, zap.NewNop(), WithStatsRecorder(sink))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return sink.count() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, manager.Close())

	sink.mu.Lock()
	assert.Equal(t, "test", sink.name)
	sink.mu.Unlock()
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PoolConfig
		wantErr bool
	}{
		{name: "valid config", config: PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour}},
		{name: "default config", config: DefaultPoolConfig()},
		{name: "invalid max open conns", config: PoolConfig{MaxOpenConns: 0, MaxIdleConns: 5}, wantErr: true},
		{name: "invalid max idle conns", config: PoolConfig{MaxOpenConns: 10, MaxIdleConns: 0}, wantErr: true},
		{name: "idle > open", config: PoolConfig{MaxOpenConns: 5, MaxIdleConns: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Deadlock found when trying to get lock"), true},
		{errors.New("pq: could not serialize access (SQLSTATE 40001)"), true},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("driver: bad connection"), true},
		{errors.New("syntax error at or near"), false},
		{errors.New("UNIQUE constraint failed: artifacts.id"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isTransient(tt.err), "%v", tt.err)
	}
}

// =============================================================================
// 🧪 Open / Dialector 测试
// =============================================================================

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		want    string
		wantErr bool
	}{
		{driver: "sqlite", name: ":memory:", want: "sqlite"},
		{driver: "postgres", name: "devpod", want: "postgres"},
		{driver: "mysql", name: "devpod", want: "mysql"},
		{driver: "sqlite", name: "", wantErr: true},
		{driver: "", wantErr: true},
		{driver: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.name, func(t *testing.T) {
			d, err := Dialector(config.DatabaseConfig{Driver: tt.driver, Name: tt.name, Host: "localhost", Port: 5432})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	pm, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: "file::memory:?cache=shared"}, zap.NewNop())
	require.NoError(t, err)
	defer pm.Close()

	require.NoError(t, pm.Ping(context.Background()))
	assert.Equal(t, 1, pm.Stats().MaxOpenConnections)
}
