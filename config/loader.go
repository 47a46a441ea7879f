// =============================================================================
// 📦 devpod 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("devpod.yaml").
//	    WithEnvPrefix("DEVPOD").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/devpod/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 devpod 的完整配置结构
type Config struct {
	// LLM 文本补全端点配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Agents 角色智能体配置
	Agents AgentsConfig `yaml:"agents" env:"AGENTS"`

	// Store 制品存储配置
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Database 数据库配置（store.backend = sql）
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis 配置（store.backend = redis）
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// LLMConfig 文本补全配置，进程启动后固定不变
type LLMConfig struct {
	// Provider: huggingface, offline
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 最大输出 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 温度参数
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// 核采样
	TopP float64 `yaml:"top_p" env:"TOP_P"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大重试次数，0 表示每次调用只发出一个请求
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 本地限流（每秒请求数，0 为不限）
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 分词器: estimator 或 tiktoken 编码名
	Tokenizer string `yaml:"tokenizer" env:"TOKENIZER"`
	// 追加在每条系统指令之前的人设
	SystemPrompt string `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
}

// AgentsConfig 角色智能体配置
type AgentsConfig struct {
	// 代码文件并发生成数
	CodeConcurrency int `yaml:"code_concurrency" env:"CODE_CONCURRENCY"`
	// ProjectLead 检索条数（每个集合）
	QueryLimit int `yaml:"query_limit" env:"QUERY_LIMIT"`
}

// StoreConfig 制品存储配置
type StoreConfig struct {
	// 后端: memory, sql, redis
	Backend string `yaml:"backend" env:"BACKEND"`
	// 键前缀（可选）
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 嵌入维度
	EmbeddingDim int `yaml:"embedding_dim" env:"EMBEDDING_DIM"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 启用 TLS
	TLS bool `yaml:"tls" env:"TLS"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: sqlite, postgres, mysql
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名；sqlite 时为文件路径
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	// 使用版本化迁移管理表结构，而非 AutoMigrate
	Migrations bool `yaml:"migrations" env:"MIGRATIONS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 暴露地址，为空时不启动 HTTP 端点
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 按 默认值 → YAML → 环境变量 的顺序构建 Config
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建加载器，环境变量前缀默认为 DEVPOD
func NewLoader() *Loader {
	return &Loader{envPrefix: "DEVPOD"}
}

// WithConfigPath 指定 YAML 文件；文件不存在时只用默认值与环境变量
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 追加在加载完成后运行的校验
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 构建配置。任何一步失败都返回 CONFIG 错误。
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	type step struct {
		what string
		run  func(*Config) error
	}
	steps := []step{
		{"failed to load config from file", l.readFile},
		{"failed to load config from env", l.readEnv},
	}
	for _, v := range l.validators {
		steps = append(steps, step{"config validation failed", v})
	}

	for _, s := range steps {
		if err := s.run(cfg); err != nil {
			return nil, types.NewError(types.ErrConfig, s.what).WithCause(err)
		}
	}
	return cfg, nil
}

func (l *Loader) readEnv(cfg *Config) error {
	return bindEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) readFile(cfg *Config) error {
	if l.configPath == "" {
		return nil
	}
	data, err := os.ReadFile(l.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", l.configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

// =============================================================================
// 🔍 校验
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	switch c.LLM.Provider {
	case ProviderHuggingFace:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, "llm.api_key is required for the huggingface provider")
		}
	case ProviderOffline:
	default:
		errs = append(errs, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		errs = append(errs, "llm.top_p must be in (0, 1]")
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, "llm.max_tokens must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, "llm.max_retries must not be negative")
	}

	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StoreSQL:
		switch c.Database.Driver {
		case "sqlite", "postgres", "mysql":
		default:
			errs = append(errs, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}

	if c.Agents.CodeConcurrency <= 0 {
		errs = append(errs, "agents.code_concurrency must be positive")
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrConfig, "config validation errors: "+strings.Join(errs, "; "))
	}

	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
