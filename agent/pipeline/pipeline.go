package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/prompts"
	"github.com/BaSui01/devpod/agent/structured"
	"github.com/BaSui01/devpod/internal/ctxkeys"
	"github.com/BaSui01/devpod/llm"
	"github.com/BaSui01/devpod/types"
)

// Result 一次流水线调用的产物
type Result struct {
	RunID     string
	Kind      artifacts.Kind
	Artifacts []artifacts.Artifact
	Origin    artifacts.Origin
	// Reason 为被降级吸收的错误码；直接抽取成功时为空
	Reason types.ErrorCode
	// Cause 为被吸收的原始错误
	Cause error
	// Raw 为补全原文；补全失败时为 "Error: <msg>"
	Raw      string
	Trail    []State
	Duration time.Duration
}

// Extracted 报告产物是否来自模型输出
func (r *Result) Extracted() bool {
	return r.Origin == artifacts.OriginExtracted
}

// Pipeline 将一次文本补全转换为经过校验的制品列表
type Pipeline struct {
	completer llm.Completer
	validator *artifacts.Validator
	prompts   *prompts.Builder
	recorder  MetricsRecorder
	obs       *instruments
	logger    *zap.Logger
	now       func() time.Time
}

// Option 配置 Pipeline
type Option func(*Pipeline)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPromptBuilder 替换默认提示词构建器
func WithPromptBuilder(b *prompts.Builder) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.prompts = b
		}
	}
}

// WithMetrics 设置 Prometheus 记录器
func WithMetrics(r MetricsRecorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New 创建 Pipeline
func New(completer llm.Completer, opts ...Option) *Pipeline {
	p := &Pipeline{
		completer: completer,
		validator: artifacts.NewValidator(),
		prompts:   prompts.NewBuilder(nil, ""),
		recorder:  nopRecorder{},
		obs:       newInstruments(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "pipeline"))
	return p
}

// Prompts 返回提示词构建器
func (p *Pipeline) Prompts() *prompts.Builder {
	return p.prompts
}

// Run 为 kind 构建提示词，发出一次补全请求，抽取并校验结果，失败时降级为兜底合成。
//
// TRANSPORT、PARSE、SCHEMA_VIOLATION 都在内部吸收，记录在 Result.Reason 中。
// 返回的错误只有两类：未知 kind（INVALID_REQUEST）与来源上下文为空导致的
// FALLBACK_CONSTRUCTION。
func (p *Pipeline) Run(ctx context.Context, kind artifacts.Kind, src artifacts.SourceContext) (*Result, error) {
	if !kind.Valid() {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown artifact kind %q", kind))
	}
	prompt, err := p.prompts.ForKind(kind, src)
	if err != nil {
		return nil, err
	}
	return p.RunPrompt(ctx, kind, prompt, src)
}

// RunPrompt 与 Run 相同，但使用调用方给定的提示词
func (p *Pipeline) RunPrompt(ctx context.Context, kind artifacts.Kind, prompt prompts.Prompt, src artifacts.SourceContext) (*Result, error) {
	if !kind.Valid() {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown artifact kind %q", kind))
	}

	start := p.now()
	res := &Result{RunID: uuid.NewString(), Kind: kind}
	ctx = ctxkeys.WithRunID(ctx, res.RunID)
	ctx, span := p.obs.start(ctx, res.RunID, string(kind))

	items, err := p.execute(ctx, res, prompt, src)
	res.Duration = p.now().Sub(start)
	p.obs.end(ctx, span, res, err)
	if err != nil {
		p.logger.Error("pipeline run failed",
			zap.String("run_id", res.RunID),
			zap.String("kind", string(kind)),
			zap.Any("trail", res.Trail),
			zap.Error(err))
		return nil, err
	}

	res.Artifacts = items
	p.recorder.RecordPipelineRun(string(kind), string(res.Origin), string(res.Reason), res.Duration)
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, res *Result, prompt prompts.Prompt, src artifacts.SourceContext) ([]artifacts.Artifact, error) {
	tr := newTracker()
	defer func() { res.Trail = tr.states() }()

	tr.advance(StateCompletionRequested)
	completionStart := p.now()
	raw, err := p.completer.Complete(ctx, prompt.User, prompt.System)
	if err != nil {
		p.recorder.RecordCompletion(string(res.Kind), "error", p.now().Sub(completionStart))
		tr.advance(StateCompletionFailed)
		res.Raw = llm.FailureText(err)
		return p.fallback(tr, res, types.ErrTransport, err, src)
	}
	p.recorder.RecordCompletion(string(res.Kind), "ok", p.now().Sub(completionStart))
	tr.advance(StateCompletionReceived)
	res.Raw = raw

	tr.advance(StateExtracting)
	payload, err := structured.ExtractJSON(raw, artifacts.Shape(res.Kind))
	if err != nil {
		tr.advance(StateExtractFailed)
		return p.fallback(tr, res, types.ErrParse, err, src)
	}
	tr.advance(StateExtracted)

	tr.advance(StateValidating)
	items, err := p.validator.Validate(res.Kind, payload.Value)
	if err != nil {
		tr.advance(StateInvalid)
		return p.fallback(tr, res, types.ErrSchemaViolation, err, src)
	}
	tr.advance(StateValid)
	tr.advance(StateDone)
	if tr.err != nil {
		return nil, tr.err
	}

	res.Origin = artifacts.OriginExtracted
	p.logger.Debug("artifacts extracted",
		zap.String("run_id", res.RunID),
		zap.String("kind", string(res.Kind)),
		zap.Int("count", len(items)))
	return items, nil
}

func (p *Pipeline) fallback(tr *tracker, res *Result, reason types.ErrorCode, cause error, src artifacts.SourceContext) ([]artifacts.Artifact, error) {
	tr.advance(StateFallbackUsed)
	if tr.err != nil {
		return nil, tr.err
	}
	res.Origin = artifacts.OriginFallback
	res.Reason = reason
	res.Cause = cause

	items, err := artifacts.Synthesize(res.Kind, src)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("run_id", res.RunID),
		zap.String("kind", string(res.Kind)),
		zap.String("reason", string(reason)),
		zap.Int("count", len(items)),
		zap.Error(cause),
	}
	if violations := artifacts.Violations(cause); len(violations) > 0 {
		fields = append(fields, zap.Int("violations", len(violations)), zap.String("first_violation", violations[0].Error()))
	}
	p.logger.Warn("falling back to synthesized artifacts", fields...)
	return items, nil
}
