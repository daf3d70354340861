package limiter

import (
	"math/rand"
	"time"
)

// Backoff 重试延迟计算策略。
// 纯策略对象，不持有内部状态，Delay 是输入的确定性函数（抖动除外）。
type Backoff interface {
	// Delay 计算第 attempt 次重试（从0开始）前应等待的时长
	Delay(attempt int) time.Duration
}

// FixedBackoff 固定延迟策略
type FixedBackoff struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// Delay 固定延迟策略每次返回相同的时长
func (b FixedBackoff) Delay(attempt int) time.Duration {
	return b.Interval
}

// ExponentialBackoff 指数退避策略
type ExponentialBackoff struct {
	Base   time.Duration `json:"base" yaml:"base"`     // 首次延迟
	Factor float64       `json:"factor" yaml:"factor"` // 每次重试的放大倍数
	Max    time.Duration `json:"max" yaml:"max"`       // 延迟上限
	Jitter bool          `json:"jitter" yaml:"jitter"` // 是否叠加 ±50% 随机抖动
}

// Delay 计算 min(base * factor^attempt, max)，可选叠加抖动。
// 抖动为计算结果 ±50% 内的均匀随机偏移，下限为0。
func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	delay := float64(b.Base)
	for i := 0; i < attempt; i++ {
		delay *= b.Factor
		if b.Max > 0 && delay >= float64(b.Max) {
			delay = float64(b.Max)
			break
		}
	}
	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.Jitter {
		offset := (rand.Float64() - 0.5) * delay
		delay += offset
		if delay < 0 {
			delay = 0
		}
	}
	return time.Duration(delay)
}

// DefaultRetryStatusCodes 默认触发重试的HTTP状态码
var DefaultRetryStatusCodes = []int{408, 429, 500, 502, 503, 504}

// RetryConfig 重试策略配置。
// 纯策略对象，描述一次上游调用失败后是否以及如何重试。
type RetryConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	MaxRetries     int     `json:"max_retries" yaml:"max_retries"`
	Backoff        Backoff `json:"-" yaml:"-"`
	RetryOnStatus  []int   `json:"retry_on_status" yaml:"retry_on_status"`
	RetryOnTimeout bool    `json:"retry_on_timeout" yaml:"retry_on_timeout"`
	RetryOnConnect bool    `json:"retry_on_connect" yaml:"retry_on_connect"`
}

// DefaultRetryConfig 默认重试配置：最多4次，指数退避，超时与连接错误均重试。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:    true,
		MaxRetries: 4,
		Backoff: ExponentialBackoff{
			Base:   500 * time.Millisecond,
			Factor: 2,
			Max:    30 * time.Second,
			Jitter: true,
		},
		RetryOnStatus:  append([]int(nil), DefaultRetryStatusCodes...),
		RetryOnTimeout: true,
		RetryOnConnect: true,
	}
}

// ShouldRetryStatus 判断给定的状态码是否触发重试
func (c RetryConfig) ShouldRetryStatus(status int) bool {
	if !c.Enabled {
		return false
	}
	for _, s := range c.RetryOnStatus {
		if s == status {
			return true
		}
	}
	return false
}

// NextDelay 计算第 attempt 次重试前的延迟。
// 超过 MaxRetries 或重试被禁用时返回 ok=false。
func (c RetryConfig) NextDelay(attempt int) (time.Duration, bool) {
	if !c.Enabled || attempt > c.MaxRetries || c.Backoff == nil {
		return 0, false
	}
	return c.Backoff.Delay(attempt), true
}
