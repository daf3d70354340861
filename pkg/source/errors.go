package source

import (
	"fmt"

	"finx/pkg/error"
)

// SourceErrorKind 数据源错误的分类
type SourceErrorKind string

const (
	KindUnsupportedEndpoint  SourceErrorKind = "unsupported_endpoint"
	KindUnavailable          SourceErrorKind = "unavailable"
	KindRateLimited          SourceErrorKind = "rate_limited"
	KindInvalidRequest       SourceErrorKind = "invalid_request"
	KindAdapterNotRegistered SourceErrorKind = "adapter_not_registered"
	KindInternal             SourceErrorKind = "internal"
)

// CodeNoCandidate 路由兜底合成错误的代码，无对应的 SourceError 分类
const CodeNoCandidate = "source.no_candidate"

// Code 返回该分类对应的稳定机器可读代码，形如 source.rate_limited
func (k SourceErrorKind) Code() error.ErrorCode {
	return error.ErrorCode("source." + string(k))
}

// SourceError 适配器边界的统一错误类型。
// 所有数据获取方法失败时必须返回它，调用方只按 Kind 分支，
// 不感知提供商内部的传输细节。不可变值对象。
type SourceError struct {
	error.BaseError
	Kind      SourceErrorKind `json:"kind"`
	Retryable bool            `json:"retryable"`
}

func newSourceError(kind SourceErrorKind, message string, retryable bool) *SourceError {
	return &SourceError{
		BaseError: *error.NewError(kind.Code(), message),
		Kind:      kind,
		Retryable: retryable,
	}
}

// NewUnsupportedEndpoint 提供商不支持请求的端点
func NewUnsupportedEndpoint(endpoint Endpoint) *SourceError {
	return newSourceError(
		KindUnsupportedEndpoint,
		fmt.Sprintf("endpoint '%s' is not supported by this source", endpoint),
		false,
	)
}

// NewUnavailable 提供商暂时不可用（网络、熔断、上游故障），可重试
func NewUnavailable(message string) *SourceError {
	return newSourceError(KindUnavailable, message, true)
}

// NewRateLimited 提供商配额耗尽，可重试
func NewRateLimited(message string) *SourceError {
	return newSourceError(KindRateLimited, message, true)
}

// NewInvalidRequest 请求结构非法，在任何网络调用之前被拦截
func NewInvalidRequest(message string) *SourceError {
	return newSourceError(KindInvalidRequest, message, false)
}

// NewAdapterNotRegistered 请求的提供商未注册
func NewAdapterNotRegistered(provider ProviderIdentity) *SourceError {
	return newSourceError(
		KindAdapterNotRegistered,
		fmt.Sprintf("source adapter '%s' is not registered", provider),
		false,
	)
}

// NewInternal 适配器内部的意外错误，不可重试
func NewInternal(message string) *SourceError {
	return newSourceError(KindInternal, message, false)
}
