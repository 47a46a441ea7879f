package migration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/devpod/config"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{"postgres", DialectPostgres, false},
		{"PostgreSQL", DialectPostgres, false},
		{"pg", DialectPostgres, false},
		{"mysql", DialectMySQL, false},
		{"mariadb", DialectMySQL, false},
		{"sqlite", DialectSQLite, false},
		{"sqlite3", DialectSQLite, false},
		{"mongo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeddedMigrations_SameVersionsPerDialect(t *testing.T) {
	var want []migrationFile
	for _, d := range []Dialect{DialectSQLite, DialectPostgres, DialectMySQL} {
		sub, err := fs.Sub(migrationsFS, "migrations/"+string(d))
		require.NoError(t, err)
		files, err := available(sub)
		require.NoError(t, err)
		require.Len(t, files, 2, d)

		for _, f := range files {
			_, err := fs.Stat(sub, fmt.Sprintf("%06d_%s.down.sql", f.version, f.name))
			assert.NoError(t, err, "%s down migration for %d", d, f.version)
		}
		if want == nil {
			want = files
			continue
		}
		assert.Equal(t, want, files, d)
	}
	assert.Equal(t, migrationFile{version: 1, name: "create_artifacts"}, want[0])
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{"unknown driver", config.DatabaseConfig{Driver: "mongo"}, "unsupported database type"},
		{"memory sqlite", config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, "database file"},
		{"empty sqlite", config.DatabaseConfig{Driver: "sqlite"}, "database file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSchemaMigrator_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "devpod.db")}

	m, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	v, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	info, err := m.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Info{Total: 2, Pending: 2}, info)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx), "no change is not an error")

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Status{
		{Version: 1, Name: "create_artifacts", Applied: true},
		{Version: 2, Name: "index_project_collection", Applied: true},
	}, statuses)

	require.NoError(t, m.Down(ctx))
	v, _, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Up(cancelled), context.Canceled)
}

// fakeMigrator 记录调用并返回预设状态
type fakeMigrator struct {
	version  uint
	dirty    bool
	statuses []Status
	err      error
	calls    []string
}

func (f *fakeMigrator) Up(context.Context) error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Down(context.Context) error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Version(context.Context) (uint, bool, error) {
	return f.version, f.dirty, f.err
}

func (f *fakeMigrator) Status(context.Context) ([]Status, error) { return f.statuses, f.err }

func (f *fakeMigrator) Info(context.Context) (*Info, error) {
	return &Info{CurrentVersion: f.version}, f.err
}

func (f *fakeMigrator) Close() error { return nil }

func TestCLI(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMigrator{
		version: 2,
		statuses: []Status{
			{Version: 1, Name: "create_artifacts", Applied: true},
			{Version: 2, Name: "index_project_collection", Applied: true, Dirty: true},
			{Version: 3, Name: "next", Applied: false},
		},
	}
	tests := []struct {
		action string
		want   []string
	}{
		{"up", []string{"Migrations complete. Current version: 2"}},
		{"down", []string{"Rollback complete. Current version: 2"}},
		{"version", []string{"Current version: 2\n"}},
		{"status", []string{"VERSION", "000001", "create_artifacts", "Dirty", "Pending", "Total: 3, Applied: 2, Pending: 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, NewCLI(fake, &out).Run(ctx, tt.action))
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
	assert.Equal(t, []string{"up", "down"}, fake.calls)

	var out bytes.Buffer
	assert.Error(t, NewCLI(fake, &out).Run(ctx, "force"))

	fake.dirty = true
	out.Reset()
	require.NoError(t, NewCLI(fake, &out).RunVersion(ctx))
	assert.Equal(t, "Current version: 2 (dirty)\n", out.String())

	fake.version, fake.statuses = 0, nil
	out.Reset()
	require.NoError(t, NewCLI(fake, &out).Run(ctx, "version"))
	require.NoError(t, NewCLI(fake, &out).Run(ctx, "status"))
	assert.Equal(t, "No migrations applied yet.\nNo migrations found.\n", out.String())

	fake.err = errors.New("locked")
	assert.ErrorContains(t, NewCLI(fake, &out).Run(ctx, "up"), "locked")
}
