// =============================================================================
// 📦 devpod 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// Provider 名称
const (
	ProviderHuggingFace = "huggingface"
	ProviderOffline     = "offline"
)

// 存储后端名称
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
	StoreRedis  = "redis"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:       DefaultLLMConfig(),
		Agents:    DefaultAgentsConfig(),
		Store:     DefaultStoreConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:       ProviderHuggingFace,
		APIKey:         "",
		BaseURL:        "https://api-inference.huggingface.co",
		Model:          "mistralai/Mixtral-8x7B-Instruct-v0.1",
		MaxTokens:      2048,
		Temperature:    0.7,
		TopP:           0.95,
		Timeout:        2 * time.Minute,
		MaxRetries:     0,
		RateLimitRPS:   0,
		RateLimitBurst: 1,
		Tokenizer:      "estimator",
	}
}

// DefaultAgentsConfig 返回默认角色配置
func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		CodeConcurrency: 4,
		QueryLimit:      5,
	}
}

// DefaultStoreConfig 返回默认存储配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:      StoreMemory,
		EmbeddingDim: 256,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "devpod",
		Password:        "",
		Name:            "devpod.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "devpod",
		SampleRate:   1.0,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "devpod",
	}
}
