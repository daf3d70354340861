package source

import (
	"finx/pkg/envelope"
)

// RouteSuccess 一次路由调用的成功结果。
// Errors 保留成功之前所有失败尝试的记录，供审计与诊断。
type RouteSuccess[T any] struct {
	Data           T                  `json:"data"`
	SelectedSource ProviderIdentity   `json:"selected_source"`
	SourceChain    []ProviderIdentity `json:"source_chain"`
	Warnings       []string           `json:"warnings,omitempty"`
	Errors         []envelope.Error   `json:"errors,omitempty"`
	LatencyMS      int64              `json:"latency_ms"`
}

// RouteFailure 候选链耗尽后的失败结果。
// Errors 永不为空：每次失败尝试一条，一条没有时合成 no_candidate。
type RouteFailure struct {
	SourceChain []ProviderIdentity `json:"source_chain"`
	Warnings    []string           `json:"warnings,omitempty"`
	Errors      []envelope.Error   `json:"errors"`
	LatencyMS   int64              `json:"latency_ms"`
}

// RouteResult 路由调用的结果，成功与失败恰有其一。
// 失败是正常返回值而非异常，单个提供商的错误永远不会中断路由调用本身。
type RouteResult[T any] struct {
	Success *RouteSuccess[T]
	Failure *RouteFailure
}

// OK 是否成功
func (r RouteResult[T]) OK() bool {
	return r.Success != nil
}

// SourceChain 返回实际尝试过的提供商链，成功失败都有
func (r RouteResult[T]) SourceChain() []ProviderIdentity {
	if r.Success != nil {
		return r.Success.SourceChain
	}
	if r.Failure != nil {
		return r.Failure.SourceChain
	}
	return nil
}

// Warnings 返回结果携带的警告
func (r RouteResult[T]) Warnings() []string {
	if r.Success != nil {
		return r.Success.Warnings
	}
	if r.Failure != nil {
		return r.Failure.Warnings
	}
	return nil
}

// Errors 返回结果携带的错误记录
func (r RouteResult[T]) Errors() []envelope.Error {
	if r.Success != nil {
		return r.Success.Errors
	}
	if r.Failure != nil {
		return r.Failure.Errors
	}
	return nil
}

// LatencyMS 返回端到端耗时
func (r RouteResult[T]) LatencyMS() int64 {
	if r.Success != nil {
		return r.Success.LatencyMS
	}
	if r.Failure != nil {
		return r.Failure.LatencyMS
	}
	return 0
}
