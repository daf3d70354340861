package limiter

import (
	"fmt"
	"time"

	"finx/pkg/error"
)

const (
	// ErrRateLimited 表示请求被配额限流拒绝
	ErrRateLimited error.ErrorCode = "RATE_LIMITED"
	// ErrInvalidPolicy 表示提供商策略配置非法
	ErrInvalidPolicy error.ErrorCode = "INVALID_POLICY"
)

// LimiterError 限流子系统的结构化错误
type LimiterError struct {
	error.BaseError
}

// NewLimiterError 创建限流错误
func NewLimiterError(code error.ErrorCode, message string) *LimiterError {
	return &LimiterError{
		BaseError: *error.NewError(code, message),
	}
}

// RateLimitedError 配额耗尽错误，携带建议的重试延迟。
type RateLimitedError struct {
	error.BaseError
	Provider   string        `json:"provider"`
	RetryAfter time.Duration `json:"retry_after"`
}

// NewRateLimitedError 创建限流错误
func NewRateLimitedError(provider string, retryAfter time.Duration) *RateLimitedError {
	e := &RateLimitedError{
		BaseError:  *error.NewError(ErrRateLimited, fmt.Sprintf("提供商 %s 配额耗尽，建议 %v 后重试", provider, retryAfter)),
		Provider:   provider,
		RetryAfter: retryAfter,
	}
	e.WithContext("provider", provider).WithContext("retry_after", retryAfter.String())
	return e
}
