package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, LLMConfig{}, cfg.LLM)
	assert.NotEqual(t, AgentsConfig{}, cfg.Agents)
	assert.NotEqual(t, StoreConfig{}, cfg.Store)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
	assert.NotEmpty(t, cfg.Log.OutputPaths)
}

// --- Individual Default*Config functions ---

func TestDefaultLLMConfig(t *testing.T) {
	cfg := DefaultLLMConfig()
	assert.Equal(t, ProviderHuggingFace, cfg.Provider)
	assert.Equal(t, "mistralai/Mixtral-8x7B-Instruct-v0.1", cfg.Model)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 0.001)
	assert.InDelta(t, 0.95, cfg.TopP, 0.001)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Zero(t, cfg.MaxRetries, "one outbound request per invocation by default")
	assert.Equal(t, "estimator", cfg.Tokenizer)
}

func TestDefaultAgentsConfig(t *testing.T) {
	cfg := DefaultAgentsConfig()
	assert.Equal(t, 4, cfg.CodeConcurrency)
	assert.Equal(t, 5, cfg.QueryLimit)
}

func TestDefaultStoreConfig(t *testing.T) {
	cfg := DefaultStoreConfig()
	assert.Equal(t, StoreMemory, cfg.Backend)
	assert.Empty(t, cfg.KeyPrefix)
	assert.Equal(t, 256, cfg.EmbeddingDim)
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig()
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "devpod.db", cfg.DSN())
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "devpod", cfg.ServiceName)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.Equal(t, "devpod", cfg.Namespace)
	assert.Empty(t, cfg.ListenAddr)
}
