package limiter

import (
	"time"
)

// BackoffSettings 限流重试的退避参数。
// 与 Backoff 策略对象不同，它是可直接放进配置文件的扁平结构。
type BackoffSettings struct {
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	Multiplier   float64       `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Delay 计算第 retryCount 次重试的延迟：initial * multiplier^retryCount，封顶于 MaxDelay。
func (s BackoffSettings) Delay(retryCount int) time.Duration {
	delay := float64(s.InitialDelay)
	for i := 0; i < retryCount; i++ {
		delay *= s.Multiplier
		if s.MaxDelay > 0 && delay >= float64(s.MaxDelay) {
			return s.MaxDelay
		}
	}
	if s.MaxDelay > 0 && delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// ProviderPolicy 单个提供商的配额与重试策略。
// 路由器构造时注入，运行期不再变更。
type ProviderPolicy struct {
	Provider       string          `json:"provider" yaml:"provider" mapstructure:"provider"`
	MaxConcurrency int             `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`
	QuotaWindow    time.Duration   `json:"quota_window" yaml:"quota_window" mapstructure:"quota_window"`
	QuotaLimit     int             `json:"quota_limit" yaml:"quota_limit" mapstructure:"quota_limit"`
	RetryBackoff   BackoffSettings `json:"retry_backoff" yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// Validate 验证策略配置
func (p ProviderPolicy) Validate() error {
	if p.Provider == "" {
		return NewLimiterError(ErrInvalidPolicy, "提供商名称不能为空")
	}
	if p.QuotaLimit < 0 {
		return NewLimiterError(ErrInvalidPolicy, "配额上限不能为负数")
	}
	if p.QuotaWindow < 0 {
		return NewLimiterError(ErrInvalidPolicy, "配额窗口不能为负数")
	}
	if p.RetryBackoff.Multiplier < 0 {
		return NewLimiterError(ErrInvalidPolicy, "退避倍数不能为负数")
	}
	return nil
}

// AlphaVantagePolicy AlphaVantage免费档的默认策略：每60秒5次请求
func AlphaVantagePolicy() ProviderPolicy {
	return ProviderPolicy{
		Provider:       "alphavantage",
		MaxConcurrency: 1,
		QuotaWindow:    60 * time.Second,
		QuotaLimit:     5,
		RetryBackoff: BackoffSettings{
			InitialDelay: 1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2,
			MaxRetries:   3,
		},
	}
}

// AlpacaPolicy Alpaca默认策略：每60秒100次请求
func AlpacaPolicy() ProviderPolicy {
	return ProviderPolicy{
		Provider:       "alpaca",
		MaxConcurrency: 10,
		QuotaWindow:    60 * time.Second,
		QuotaLimit:     100,
		RetryBackoff: BackoffSettings{
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
			MaxRetries:   3,
		},
	}
}

// DefaultPolicies 内置提供商的默认策略表
func DefaultPolicies() map[string]ProviderPolicy {
	policies := []ProviderPolicy{AlphaVantagePolicy(), AlpacaPolicy()}
	result := make(map[string]ProviderPolicy, len(policies))
	for _, p := range policies {
		result[p.Provider] = p
	}
	return result
}
