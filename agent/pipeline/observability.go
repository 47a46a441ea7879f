package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/BaSui01/devpod/agent/pipeline"

// MetricsRecorder 接收流水线指标（internal/metrics.Collector 实现此接口）
type MetricsRecorder interface {
	RecordPipelineRun(kind, origin, reason string, duration time.Duration)
	RecordCompletion(kind, status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordPipelineRun(string, string, string, time.Duration) {}
func (nopRecorder) RecordCompletion(string, string, time.Duration) {}

// instruments 持有 OpenTelemetry tracer 与计数器
type instruments struct {
	tracer   trace.Tracer
	runs     metric.Int64Counter
	fallback metric.Int64Counter
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	ins := &instruments{tracer: otel.Tracer(instrumentationName)}

	// 全局 MeterProvider 的计数器创建不会失败；出错时保留 nil 并跳过记录
	ins.runs, _ = meter.Int64Counter("devpod.pipeline.runs",
		metric.WithDescription("Artifact pipeline invocations"),
		metric.WithUnit("{run}"))
	ins.fallback, _ = meter.Int64Counter("devpod.pipeline.fallbacks",
		metric.WithDescription("Artifact pipeline invocations served by the fallback synthesizer"),
		metric.WithUnit("{run}"))
	return ins
}

func (i *instruments) start(ctx context.Context, runID, kind string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("devpod.run_id", runID),
			attribute.String("devpod.kind", kind),
		))
}

func (i *instruments) end(ctx context.Context, span trace.Span, res *Result, err error) {
	defer span.End()

	attrs := []attribute.KeyValue{attribute.String("kind", string(res.Kind))}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("devpod.origin", string(res.Origin)),
		attribute.String("devpod.reason", string(res.Reason)),
		attribute.Int("devpod.artifacts", len(res.Artifacts)),
	)
	if i.runs != nil {
		i.runs.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("origin", string(res.Origin)))...))
	}
	if res.Reason != "" && i.fallback != nil {
		i.fallback.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("reason", string(res.Reason)))...))
	}
}
