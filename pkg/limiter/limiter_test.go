package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_延迟序列(t *testing.T) {
	b := ExponentialBackoff{
		Base:   100 * time.Millisecond,
		Factor: 2,
		Max:    1 * time.Second,
		Jitter: false,
	}

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second, // 1600ms 被封顶
	}
	for attempt, want := range expected {
		assert.Equal(t, want, b.Delay(attempt), "第%d次重试延迟不符", attempt)
	}
}

func TestExponentialBackoff_抖动范围(t *testing.T) {
	b := ExponentialBackoff{
		Base:   100 * time.Millisecond,
		Factor: 2,
		Max:    1 * time.Second,
		Jitter: true,
	}

	// 抖动在 ±50% 内：100ms 的结果应落在 [50ms, 150ms]
	for i := 0; i < 100; i++ {
		d := b.Delay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestFixedBackoff(t *testing.T) {
	b := FixedBackoff{Interval: 2 * time.Second}

	assert.Equal(t, 2*time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(10))
}

func TestRetryConfig_默认配置(t *testing.T) {
	c := DefaultRetryConfig()

	assert.True(t, c.Enabled)
	assert.Equal(t, 4, c.MaxRetries)
	assert.True(t, c.ShouldRetryStatus(429), "429应触发重试")
	assert.True(t, c.ShouldRetryStatus(503))
	assert.False(t, c.ShouldRetryStatus(404), "404不应触发重试")
	assert.True(t, c.RetryOnTimeout)
	assert.True(t, c.RetryOnConnect)

	_, ok := c.NextDelay(4)
	assert.True(t, ok)
	_, ok = c.NextDelay(5)
	assert.False(t, ok, "超过最大重试次数后不应再给出延迟")
}

func TestBackoffSettings_延迟计算(t *testing.T) {
	s := BackoffSettings{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2,
		MaxRetries:   3,
	}

	assert.Equal(t, 1*time.Second, s.Delay(0))
	assert.Equal(t, 2*time.Second, s.Delay(1))
	assert.Equal(t, 4*time.Second, s.Delay(2))
	assert.Equal(t, 60*time.Second, s.Delay(10), "超出上限应被封顶")
}

func TestProviderPolicy_验证(t *testing.T) {
	assert.NoError(t, AlphaVantagePolicy().Validate())
	assert.NoError(t, AlpacaPolicy().Validate())

	bad := ProviderPolicy{Provider: "", QuotaLimit: 5}
	assert.Error(t, bad.Validate(), "空提供商名称应验证失败")

	bad = AlpacaPolicy()
	bad.QuotaLimit = -1
	assert.Error(t, bad.Validate())
}

func TestThrottlingQueue_配额耗尽(t *testing.T) {
	policy := ProviderPolicy{
		Provider:    "alphavantage",
		QuotaWindow: 60 * time.Second,
		QuotaLimit:  2,
		RetryBackoff: BackoffSettings{
			InitialDelay: 1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2,
			MaxRetries:   3,
		},
	}
	q := NewThrottlingQueue(policy)

	require.NoError(t, q.Acquire(), "第1次获取应成功")
	require.NoError(t, q.Acquire(), "第2次获取应成功")

	err := q.Acquire()
	require.Error(t, err, "窗口内第3次获取应被限流")
	assert.Equal(t, 1, q.PendingLen(), "被拒请求应进入台账")

	rateErr, ok := err.(*RateLimitedError)
	require.True(t, ok, "应返回限流错误类型")
	assert.Equal(t, "alphavantage", rateErr.Provider)
	assert.Equal(t, 1*time.Second, rateErr.RetryAfter, "首次重试延迟应按退避参数计算")
	assert.False(t, q.RateAvailable())
}

func TestThrottlingQueue_重试登记与完成(t *testing.T) {
	policy := AlphaVantagePolicy()
	policy.QuotaLimit = 1
	q := NewThrottlingQueue(policy)

	require.NoError(t, q.Acquire())
	require.Error(t, q.Acquire())
	require.Equal(t, 1, q.PendingLen())

	// 重试延迟按 initial * multiplier^count 递增
	d, ok := q.RegisterRetry()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	d, ok = q.RegisterRetry()
	require.True(t, ok)
	assert.Equal(t, 4*time.Second, d)

	d, ok = q.RegisterRetry()
	require.True(t, ok)
	assert.Equal(t, 8*time.Second, d)

	// 超过最大重试次数后拒绝
	_, ok = q.RegisterRetry()
	assert.False(t, ok, "超过最大重试次数后应返回失败")

	q.CompleteOne()
	assert.Equal(t, 0, q.PendingLen(), "完成后台账应清空")

	_, ok = q.RegisterRetry()
	assert.False(t, ok, "空台账不应允许登记重试")
}

func TestThrottlingQueue_空台账完成不崩溃(t *testing.T) {
	q := NewThrottlingQueue(AlpacaPolicy())

	q.CompleteOne()
	assert.Equal(t, 0, q.PendingLen())
}
