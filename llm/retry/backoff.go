package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy 定义重试策略
type Policy struct {
	MaxRetries   int           // 最大重试次数（0 表示不重试）
	InitialDelay time.Duration // 首次重试前的等待
	MaxDelay     time.Duration // 单次等待上限
	Multiplier   float64       // 指数退避倍数
	Jitter       bool          // ±25% 随机抖动

	// ShouldRetry 判定错误是否值得重试；为空时所有错误都重试
	ShouldRetry func(err error) bool

	// OnRetry 在每次等待前回调
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy 返回默认策略：不重试，单次补全即结束
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   0,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Backoff 基于指数退避的重试器
type Backoff struct {
	policy Policy
	logger *zap.Logger
}

// NewBackoff 创建重试器，并修正非法参数
func NewBackoff(policy Policy, logger *zap.Logger) *Backoff {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay < policy.InitialDelay {
		policy.MaxDelay = policy.InitialDelay
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backoff{policy: policy, logger: logger}
}

// Policy 返回生效的策略副本
func (b *Backoff) Policy() Policy {
	return b.policy
}

// Do 执行 fn，失败时按策略重试
func (b *Backoff) Do(ctx context.Context, fn func() error) error {
	_, err := Do(ctx, b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do 执行返回结果的 fn，失败时按策略重试。
// 不可重试的错误原样返回；重试耗尽时包装最后一次错误。
func Do[T any](ctx context.Context, b *Backoff, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= b.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := b.Delay(attempt)
			b.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", b.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if b.policy.OnRetry != nil {
				b.policy.OnRetry(attempt, lastErr, delay)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				b.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !b.retryable(err) {
			return zero, err
		}
	}

	if b.policy.MaxRetries == 0 {
		return zero, lastErr
	}

	b.logger.Warn("retries exhausted",
		zap.Int("attempts", b.policy.MaxRetries+1),
		zap.Error(lastErr),
	)
	return zero, fmt.Errorf("failed after %d retries: %w", b.policy.MaxRetries, lastErr)
}

// Delay 计算第 attempt 次重试前的等待：initial * multiplier^(attempt-1)，封顶 MaxDelay
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := float64(b.policy.InitialDelay) * math.Pow(b.policy.Multiplier, float64(attempt-1))
	if delay > float64(b.policy.MaxDelay) {
		delay = float64(b.policy.MaxDelay)
	}

	if b.policy.Jitter {
		jitter := delay * 0.25
		delay += (rand.Float64()*2 - 1) * jitter
	}

	if delay < float64(b.policy.InitialDelay) {
		delay = float64(b.policy.InitialDelay)
	}
	return time.Duration(delay)
}

func (b *Backoff) retryable(err error) bool {
	if b.policy.ShouldRetry == nil {
		return true
	}
	return b.policy.ShouldRetry(err)
}
