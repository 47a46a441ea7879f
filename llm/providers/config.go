package providers

import "time"

// BaseProviderConfig 所有 Provider 共享的基础配置字段
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// HuggingFaceConfig Hugging Face Inference API 配置
type HuggingFaceConfig struct {
	BaseProviderConfig `yaml:",inline"`

	// MaxRetries 为 0 时每次补全只发出一次请求
	MaxRetries        int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RetryInitialDelay time.Duration `json:"retry_initial_delay,omitempty" yaml:"retry_initial_delay,omitempty"`

	// RateLimitRPS 为 0 表示不限流
	RateLimitRPS float64 `json:"rate_limit_rps,omitempty" yaml:"rate_limit_rps,omitempty"`
	Burst        int     `json:"burst,omitempty" yaml:"burst,omitempty"`

	// InsecureTransport 使用默认 http.Transport（测试与本地网关）
	InsecureTransport bool `json:"-" yaml:"-"`
}
