package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestBackoff_Success(t *testing.T) {
	b := NewBackoff(fastPolicy(3), zap.NewNop())

	callCount := 0
	err := b.Do(context.Background(), func() error {
		callCount++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount, "应该只调用一次")
}

func TestBackoff_RetryAndSuccess(t *testing.T) {
	b := NewBackoff(fastPolicy(3), zap.NewNop())

	callCount := 0
	val, err := Do(context.Background(), b, func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("temporary error")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, callCount)
}

func TestBackoff_MaxRetriesExceeded(t *testing.T) {
	b := NewBackoff(fastPolicy(2), zap.NewNop())
	testErr := errors.New("persistent error")

	callCount := 0
	err := b.Do(context.Background(), func() error {
		callCount++
		return testErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, testErr)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Equal(t, 3, callCount, "初次 + 2 次重试")
}

func TestBackoff_NoRetriesReturnsErrorUnwrapped(t *testing.T) {
	b := NewBackoff(DefaultPolicy(), nil)
	testErr := errors.New("once")

	err := b.Do(context.Background(), func() error { return testErr })
	assert.Same(t, testErr, err)
}

func TestBackoff_ShouldRetryFilter(t *testing.T) {
	permanent := errors.New("permanent")
	policy := fastPolicy(5)
	policy.ShouldRetry = func(err error) bool { return !errors.Is(err, permanent) }
	b := NewBackoff(policy, zap.NewNop())

	callCount := 0
	err := b.Do(context.Background(), func() error {
		callCount++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, callCount, "不可重试错误不应重试")
}

func TestBackoff_ContextCanceled(t *testing.T) {
	policy := fastPolicy(5)
	policy.InitialDelay = time.Second
	policy.MaxDelay = time.Second
	b := NewBackoff(policy, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Do(ctx, func() error { return errors.New("fail") })

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBackoff_DelayCalculation(t *testing.T) {
	b := NewBackoff(Policy{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}, zap.NewNop())

	assert.Equal(t, time.Duration(0), b.Delay(0))
	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 200*time.Millisecond, b.Delay(2))
	assert.Equal(t, 400*time.Millisecond, b.Delay(3))
	assert.Equal(t, 800*time.Millisecond, b.Delay(4))
	assert.Equal(t, time.Second, b.Delay(5), "封顶 MaxDelay")
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	b := NewBackoff(Policy{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}, zap.NewNop())

	for i := 0; i < 50; i++ {
		d := b.Delay(3)
		assert.GreaterOrEqual(t, d, 300*time.Millisecond)
		assert.LessOrEqual(t, d, 500*time.Millisecond)
	}
}

func TestBackoff_OnRetryCallback(t *testing.T) {
	var attempts []int
	policy := fastPolicy(2)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.Error(t, err)
		assert.Positive(t, delay)
	}
	b := NewBackoff(policy, zap.NewNop())

	_ = b.Do(context.Background(), func() error { return errors.New("x") })
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestNewBackoff_NormalizesPolicy(t *testing.T) {
	b := NewBackoff(Policy{MaxRetries: -1, Multiplier: 0.5}, nil)
	p := b.Policy()

	assert.Equal(t, 0, p.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, p.InitialDelay)
	assert.Equal(t, p.InitialDelay, p.MaxDelay)
	assert.Equal(t, 2.0, p.Multiplier)
}
