package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBreaker 创建带可控时钟的熔断器
func newTestBreaker(config Config) (*CircuitBreaker, *time.Time) {
	b := New(config)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }
	return b, &current
}

func TestCircuitBreaker_初始状态(t *testing.T) {
	b := NewDefault()

	assert.Equal(t, StateClosed, b.State(), "初始状态应为关闭")
	assert.Equal(t, 0, b.ConsecutiveFailures())
	assert.True(t, b.AllowRequest(), "关闭状态应放行请求")
}

func TestCircuitBreaker_连续失败触发熔断(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "失败次数未达阈值时应保持关闭")
	assert.True(t, b.AllowRequest())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State(), "连续3次失败应触发熔断")
	assert.False(t, b.AllowRequest(), "打开状态应拒绝请求")
}

func TestCircuitBreaker_成功重置失败计数(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 0, b.ConsecutiveFailures(), "成功应清零失败计数")

	// 重新累计，必须再次连续3次才熔断
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}

func TestCircuitBreaker_超时后进入半开(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())

	// 超时前仍然拒绝
	*clock = clock.Add(29 * time.Second)
	assert.False(t, b.AllowRequest(), "打开超时前应拒绝请求")
	assert.Equal(t, StateOpen, b.State())

	// 超时后第一次 AllowRequest 迁移到半开并放行
	*clock = clock.Add(2 * time.Second)
	assert.True(t, b.AllowRequest(), "打开超时后应放行探测请求")
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestCircuitBreaker_半开成功关闭(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	*clock = clock.Add(31 * time.Second)
	require.True(t, b.AllowRequest())
	require.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State(), "半开探测成功应关闭熔断器")
	assert.Equal(t, 0, b.ConsecutiveFailures())
	assert.True(t, b.AllowRequest())
}

func TestCircuitBreaker_半开失败立即重新熔断(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	*clock = clock.Add(31 * time.Second)
	require.True(t, b.AllowRequest())
	require.Equal(t, StateHalfOpen, b.State())

	// 半开状态下单次失败立即重新熔断，不需要再次累计到阈值
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State(), "半开状态下任意失败应立即重新熔断")
	assert.False(t, b.AllowRequest())

	// 重新计时：再等一个完整超时周期才能再次探测
	*clock = clock.Add(29 * time.Second)
	assert.False(t, b.AllowRequest())
	*clock = clock.Add(2 * time.Second)
	assert.True(t, b.AllowRequest())
}

func TestCircuitBreaker_状态快照(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, OpenTimeout: 30 * time.Second})

	b.RecordFailure()
	status := b.GetStatus()
	assert.Equal(t, "closed", status["state"])
	assert.Equal(t, 1, status["consecutive_failures"])

	b.RecordFailure()
	b.RecordFailure()
	status = b.GetStatus()
	assert.Equal(t, "open", status["state"])
	assert.Contains(t, status, "opened_at")
}

func TestCircuitBreaker_配置兜底(t *testing.T) {
	b := New(Config{})

	assert.Equal(t, 3, b.config.FailureThreshold, "非法阈值应回退到默认值")
	assert.Equal(t, 30*time.Second, b.config.OpenTimeout)
}
