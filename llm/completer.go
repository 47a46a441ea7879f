package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/internal/ctxkeys"
	"github.com/BaSui01/devpod/types"
)

// Completer turns a prompt and an optional system instruction into raw text.
// Every failure, timeouts included, is a TRANSPORT *types.Error.
type Completer interface {
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt, systemPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return f(ctx, prompt, systemPrompt)
}

// CompletionOptions are fixed per process and applied to every request.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Timeout     time.Duration
}

// ProviderCompleter adapts a Provider to Completer.
type ProviderCompleter struct {
	provider Provider
	opts     CompletionOptions
	logger   *zap.Logger
}

// NewCompleter wraps provider with fixed completion options.
func NewCompleter(provider Provider, opts CompletionOptions, logger *zap.Logger) *ProviderCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderCompleter{
		provider: provider,
		opts:     opts,
		logger:   logger.With(zap.String("component", "completer")),
	}
}

// Complete sends exactly one request to the provider.
func (c *ProviderCompleter) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if c.provider == nil {
		return "", types.NewError(types.ErrTransport, "no completion provider configured")
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req := &ChatRequest{
		TraceID:     uuid.NewString(),
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
		Timeout:     c.opts.Timeout,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: prompt})

	start := time.Now()
	resp, err := c.provider.Completion(ctx, req)
	if err != nil {
		c.logger.Debug("completion failed", append(correlation(ctx),
			zap.String("trace_id", req.TraceID),
			zap.String("provider", c.provider.Name()),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))...)
		return "", transportError(err)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewError(types.ErrTransport,
			fmt.Sprintf("%s returned no choices", c.provider.Name()))
	}

	c.logger.Debug("completion received", append(correlation(ctx),
		zap.String("trace_id", req.TraceID),
		zap.String("provider", c.provider.Name()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(resp.Choices[0].Message.Content)))...)
	return resp.Choices[0].Message.Content, nil
}

// correlation 取出 context 中的 run_id、project 与 phase
func correlation(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if v, ok := ctxkeys.RunID(ctx); ok {
		fields = append(fields, zap.String("run_id", v))
	}
	if v, ok := ctxkeys.Project(ctx); ok {
		fields = append(fields, zap.String("project", v))
	}
	if v, ok := ctxkeys.Phase(ctx); ok {
		fields = append(fields, zap.String("phase", v))
	}
	return fields
}

func transportError(err error) *types.Error {
	e := types.NewError(types.ErrTransport, err.Error()).WithCause(err)
	var le *Error
	switch {
	case errors.As(err, &le):
		e.Retryable = le.Retryable
	case errors.Is(err, context.DeadlineExceeded):
		e.Message = "completion timed out"
		e.Retryable = true
	}
	return e
}

// FailureText renders a failed completion as the "Error: <msg>" text that
// stands in for model output.
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if e, ok := types.AsError(err); ok {
		msg = e.Message
		if e.Cause != nil {
			msg = e.Cause.Error()
		}
	}
	return "Error: " + msg
}

// Offline answers every prompt with a TRANSPORT failure. Pipelines driven by
// it always take the fallback path.
var Offline Completer = CompleterFunc(func(context.Context, string, string) (string, error) {
	return "", types.NewError(types.ErrTransport, "offline mode: no completion endpoint configured")
})
