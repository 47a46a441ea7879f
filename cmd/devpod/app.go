package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/lifecycle"
	"github.com/BaSui01/devpod/agent/persistence"
	"github.com/BaSui01/devpod/agent/pipeline"
	"github.com/BaSui01/devpod/agent/prompts"
	"github.com/BaSui01/devpod/agent/roles"
	"github.com/BaSui01/devpod/config"
	"github.com/BaSui01/devpod/internal/metrics"
	"github.com/BaSui01/devpod/internal/server"
	"github.com/BaSui01/devpod/internal/telemetry"
	"github.com/BaSui01/devpod/llm"
	"github.com/BaSui01/devpod/llm/providers"
	"github.com/BaSui01/devpod/llm/providers/huggingface"
	"github.com/BaSui01/devpod/llm/tokenizer"
)

// shutdownTimeout bounds telemetry flush and metrics server drain on exit.
const shutdownTimeout = 5 * time.Second

// app 一次命令执行所需的全部组件
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	otel      *telemetry.Providers
	collector *metrics.Collector
	metrics   *server.Manager
	store     persistence.Store
	pipeline  *pipeline.Pipeline
	team      *roles.Team
	runner    *lifecycle.Runner
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp 按配置装配组件；失败时已创建的部分会被关闭
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	logger.Info("starting devpod",
		zap.String("version", Version),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("store", cfg.Store.Backend),
	)

	a.otel, err = telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		a.otel, err = nil, nil
	}

	reg := prometheus.NewRegistry()
	a.collector = metrics.NewCollectorWithRegistry(cfg.Metrics.Namespace, reg, reg, logger)

	a.store, err = persistence.New(ctx, cfg, logger, persistence.WithRecorder(a.collector))
	if err != nil {
		return a, err
	}

	if cfg.Metrics.ListenAddr != "" {
		mux := server.NewMetricsMux(a.collector.Handler(), a.store.Ping)
		a.metrics = server.NewManager(mux, server.DefaultConfig(cfg.Metrics.ListenAddr), logger)
		if err = a.metrics.Start(); err != nil {
			return a, err
		}
	}

	completer, err := newCompleter(cfg.LLM, logger)
	if err != nil {
		return a, err
	}
	tk, err := tokenizer.New(cfg.LLM.Tokenizer, cfg.LLM.Model)
	if err != nil {
		return a, fmt.Errorf("tokenizer: %w", err)
	}

	a.pipeline = pipeline.New(completer,
		pipeline.WithLogger(logger),
		pipeline.WithPromptBuilder(prompts.NewBuilder(tk, cfg.LLM.SystemPrompt)),
		pipeline.WithMetrics(a.collector),
	)
	a.team = roles.NewTeam(a.pipeline, completer, a.store,
		roles.WithLogger(logger),
		roles.WithCodeConcurrency(cfg.Agents.CodeConcurrency),
		roles.WithQueryLimit(cfg.Agents.QueryLimit),
	)
	a.runner = lifecycle.NewRunner(a.team, a.store, logger)
	return a, nil
}

// newSession 创建一个向收集器报告阶段切换的会话
func (a *app) newSession() *lifecycle.Session {
	return lifecycle.NewSession(a.collector, a.logger)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.otel.Shutdown(ctx))
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// newCompleter 按 llm.provider 选择补全端点
func newCompleter(cfg config.LLMConfig, logger *zap.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOffline:
		logger.Info("offline provider: every artifact will be synthesized")
		return llm.Offline, nil
	case config.ProviderHuggingFace:
		provider := huggingface.New(providers.HuggingFaceConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
				Model:   cfg.Model,
				Timeout: cfg.Timeout,
			},
			MaxRetries:   cfg.MaxRetries,
			RateLimitRPS: cfg.RateLimitRPS,
			Burst:        cfg.RateLimitBurst,
		}, logger)
		return llm.NewCompleter(provider, llm.CompletionOptions{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: float32(cfg.Temperature),
			TopP:        float32(cfg.TopP),
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
