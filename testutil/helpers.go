package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds every context returned by TestContext.
const DefaultTimeout = 30 * time.Second

// TestContext 返回带超时的测试上下文，测试结束时自动取消
func TestContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文，用于验证阶段与存储对取消的处理
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// FixedClock 返回恒定时间的时钟，使制品键中的时间戳可预测
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
