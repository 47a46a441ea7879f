package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/devpod/internal/tlsutil"
	"github.com/BaSui01/devpod/llm"
	"github.com/BaSui01/devpod/llm/providers"
	"github.com/BaSui01/devpod/llm/retry"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DefaultTopP    = 0.95

	providerName = "huggingface"
)

// Provider 实现 Hugging Face Inference API 的文本生成
// 特点：
// 1. 单一 inputs 字符串，系统指令与用户提示以 [INST] 标记包装
// 2. 采样参数放在 parameters 中（max_new_tokens/temperature/top_p/do_sample）
// 3. 响应是 [{"generated_text": ...}] 或 {"generated_text": ...}
type Provider struct {
	cfg     providers.HuggingFaceConfig
	client  *http.Client
	limiter *rate.Limiter
	retryer *retry.Backoff
	logger  *zap.Logger
}

// New 创建 Hugging Face Provider
func New(cfg providers.HuggingFaceConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	client := tlsutil.SecureHTTPClient(cfg.Timeout)
	if cfg.InsecureTransport {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.MaxRetries
	if cfg.RetryInitialDelay > 0 {
		policy.InitialDelay = cfg.RetryInitialDelay
	}
	policy.ShouldRetry = isRetryable

	log := logger.With(zap.String("provider", providerName))
	return &Provider{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		retryer: retry.NewBackoff(policy, log),
		logger:  log,
	}
}

func (p *Provider) Name() string { return providerName }

// HealthCheck 查询模型状态端点
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := p.endpoint(providers.ChooseModel(nil, p.cfg.Model, DefaultModel))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	providers.BearerTokenHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency}, fmt.Errorf("huggingface health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float32 `json:"temperature"`
	TopP           float32 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText *string `json:"generated_text"`
}

// FormatPrompt 以 [INST] 标记包装系统指令与用户提示
func FormatPrompt(system, prompt string) string {
	if system != "" {
		return fmt.Sprintf("<s>[INST] %s [/INST]</s>\n<s>[INST] %s [/INST]", system, prompt)
	}
	return fmt.Sprintf("<s>[INST] %s [/INST]", prompt)
}

// Completion 发起一次文本生成请求
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if req == nil {
		return nil, &llm.Error{Code: llm.ErrInvalidRequest, Message: "nil request", Provider: providerName}
	}
	system, prompt := req.SplitMessages()
	model := providers.ChooseModel(req, p.cfg.Model, DefaultModel)

	topP := req.TopP
	if topP == 0 {
		topP = DefaultTopP
	}
	body := hfRequest{
		Inputs: FormatPrompt(system, prompt),
		Parameters: hfParameters{
			MaxNewTokens: req.MaxTokens,
			Temperature:  req.Temperature,
			TopP:         topP,
			DoSample:     true,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &llm.Error{Code: llm.ErrInvalidRequest, Message: err.Error(), Provider: providerName}
	}

	text, err := retry.Do(ctx, p.retryer, func() (string, error) {
		return p.send(ctx, model, payload)
	})
	if err != nil {
		return nil, err
	}

	return &llm.ChatResponse{
		ID:       req.TraceID,
		Provider: providerName,
		Model:    model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: text},
		}},
		CreatedAt: time.Now(),
	}, nil
}

func (p *Provider) send(ctx context.Context, model string, payload []byte) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", &llm.Error{Code: llm.ErrRateLimited, Message: err.Error(), Provider: providerName}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(model), bytes.NewReader(payload))
	if err != nil {
		return "", &llm.Error{Code: llm.ErrInvalidRequest, Message: err.Error(), Provider: providerName}
	}
	providers.BearerTokenHeaders(httpReq, p.cfg.APIKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &llm.Error{
				Code:       llm.ErrUpstreamTimeout,
				Message:    err.Error(),
				HTTPStatus: http.StatusGatewayTimeout,
				Retryable:  true,
				Provider:   providerName,
			}
		}
		return "", &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  ctx.Err() == nil,
			Provider:   providerName,
		}
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		p.logger.Debug("completion rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("model", model),
			zap.String("message", msg))
		return "", providers.MapHTTPError(resp.StatusCode, msg, providerName)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    fmt.Sprintf("read response: %v", err),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   providerName,
		}
	}
	p.logger.Debug("completion received",
		zap.String("model", model),
		zap.Int("bytes", len(data)),
		zap.Duration("latency", time.Since(start)))
	return DecodeGeneratedText(data), nil
}

// DecodeGeneratedText 提取 generated_text；无法识别的响应原样返回
func DecodeGeneratedText(data []byte) string {
	var list []hfGeneration
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 && list[0].GeneratedText != nil {
		return strings.TrimSpace(*list[0].GeneratedText)
	}

	var single hfGeneration
	if err := json.Unmarshal(data, &single); err == nil && single.GeneratedText != nil {
		return strings.TrimSpace(*single.GeneratedText)
	}

	return string(data)
}

func (p *Provider) endpoint(model string) string {
	return fmt.Sprintf("%s/models/%s", strings.TrimRight(p.cfg.BaseURL, "/"), model)
}

func isRetryable(err error) bool {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
