package breaker

import (
	"sync"
	"time"
)

// State 熔断器状态
type State string

const (
	// StateClosed 关闭状态：请求正常放行
	StateClosed State = "closed"
	// StateOpen 打开状态：请求被拒绝，直到打开超时后进入半开
	StateOpen State = "open"
	// StateHalfOpen 半开状态：放行一个探测请求
	StateHalfOpen State = "half_open"
)

// Config 熔断器配置
type Config struct {
	FailureThreshold int           `json:"failure_threshold" yaml:"failure_threshold"` // 连续失败多少次后熔断
	OpenTimeout      time.Duration `json:"open_timeout" yaml:"open_timeout"`           // 熔断打开后多久允许探测
}

// DefaultConfig 默认熔断器配置：连续3次失败熔断，30秒后允许探测。
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker 按提供商维度隔离上游故障的熔断器。
//
// 状态机：
//   - Closed -> Open：连续失败达到 FailureThreshold
//   - Open -> HalfOpen：打开超时后的下一次 AllowRequest 触发（惰性迁移，非定时器驱动），
//     迁移时放行恰好一个探测请求
//   - HalfOpen -> Closed：RecordSuccess
//   - HalfOpen -> Open：任何一次 RecordFailure，立即重新熔断
//
// AllowRequest / RecordSuccess / RecordFailure 是仅有的三个状态变更入口，
// 由同一把互斥锁保证彼此原子。
type CircuitBreaker struct {
	config Config

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time // 仅在 Open 状态有效

	// 可注入的时钟，测试用
	now func() time.Time
}

// New 创建熔断器
func New(config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = DefaultConfig().OpenTimeout
	}
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// NewDefault 使用默认配置创建熔断器
func NewDefault() *CircuitBreaker {
	return New(DefaultConfig())
}

// AllowRequest 判断是否允许发起请求。
// Open 状态下若打开超时已过，则迁移到 HalfOpen 并放行一个探测请求。
func (b *CircuitBreaker) AllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.config.OpenTimeout {
			b.state = StateHalfOpen
			b.openedAt = time.Time{}
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess 记录一次成功调用，关闭熔断器并清零失败计数。
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecutiveFailures = 0
	b.openedAt = time.Time{}
}

// RecordFailure 记录一次失败调用。
// 半开状态下任何失败都会立即重新熔断；关闭状态下连续失败达到阈值时熔断。
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++

	if b.state == StateHalfOpen || b.consecutiveFailures >= b.config.FailureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State 获取当前熔断器状态
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures 获取当前连续失败次数
func (b *CircuitBreaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

// GetStatus 获取熔断器状态快照
func (b *CircuitBreaker) GetStatus() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := map[string]interface{}{
		"state":                string(b.state),
		"consecutive_failures": b.consecutiveFailures,
		"failure_threshold":    b.config.FailureThreshold,
		"open_timeout":         b.config.OpenTimeout.String(),
	}
	if b.state == StateOpen {
		status["opened_at"] = b.openedAt
	}
	return status
}

// Reset 重置熔断器状态（测试用）
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecutiveFailures = 0
	b.openedAt = time.Time{}
}
