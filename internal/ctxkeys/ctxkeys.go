// Package ctxkeys carries run correlation values through context so that
// completion logs can be tied back to the pipeline run and project phase.
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	projectKey contextKey = "project"
	phaseKey   contextKey = "phase"
)

// WithRunID 设置流水线调用 ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID 获取流水线调用 ID
func RunID(ctx context.Context) (string, bool) {
	return get(ctx, runIDKey)
}

// WithProject 设置项目名
func WithProject(ctx context.Context, project string) context.Context {
	return context.WithValue(ctx, projectKey, project)
}

// Project 获取项目名
func Project(ctx context.Context) (string, bool) {
	return get(ctx, projectKey)
}

// WithPhase 设置当前阶段
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// Phase 获取当前阶段
func Phase(ctx context.Context) (string, bool) {
	return get(ctx, phaseKey)
}

func get(ctx context.Context, k contextKey) (string, bool) {
	v, ok := ctx.Value(k).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
