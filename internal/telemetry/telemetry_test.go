package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/devpod/config"
)

// saveAndRestoreGlobalProviders snapshots the global providers and restores
// them on cleanup.
func saveAndRestoreGlobalProviders(t *testing.T) {
	t.Helper()
	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})
}

func TestInit_Disabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	p, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	cfg := config.DefaultTelemetryConfig()
	cfg.Enabled = true
	cfg.ServiceName = "devpod-test"
	cfg.SampleRate = 0.5

	p, err := Init(context.Background(), cfg, "v1.2.3", nil)
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK)
	assert.True(t, mpIsSDK)

	// 没有 collector 时导出可能报连接错误，只要求按时返回
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NotPanics(t, func() { _ = p.Shutdown(ctx) })
}

func TestProviders_ShutdownNil(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, p.Enabled())
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sampler(tt.rate).Description(), "rate %v", tt.rate)
	}

	desc := sampler(0.25).Description()
	assert.True(t, strings.HasPrefix(desc, "ParentBased{"), desc)
	assert.Contains(t, desc, "TraceIDRatioBased{0.25}")
}

func TestServiceVersion(t *testing.T) {
	assert.Equal(t, "v0.3.0", serviceVersion("v0.3.0"))
	// 测试二进制的构建信息通常为 "(devel)"
	assert.Equal(t, "dev", serviceVersion(""))
}
