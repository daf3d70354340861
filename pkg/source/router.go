package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"finx/pkg/core"
	"finx/pkg/envelope"
	"finx/pkg/logger"
)

// SourceRouter 适配器注册表与路由引擎。
//
// 注册表在构造后固定。每次路由调用先按策略规划候选链，
// 再从左到右逐个执行；候选在求值之前就被记入尝试链，
// 失败轨迹因此总是完整可见。并发的路由调用各自独立，
// 只通过每个适配器自身的熔断器和限流队列共享状态。
type SourceRouter struct {
	adapters map[ProviderIdentity]DataSource
	log      *logger.Entry
}

// NewSourceRouter 用一组适配器创建路由器，注册表此后不再变更
func NewSourceRouter(adapters ...DataSource) *SourceRouter {
	registry := make(map[ProviderIdentity]DataSource, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Identity()] = adapter
	}
	return &SourceRouter{
		adapters: registry,
		log:      logger.WithComponent("source_router"),
	}
}

// Identities 返回已注册的提供商标识，按字符串升序
func (r *SourceRouter) Identities() []ProviderIdentity {
	return r.sortedRegisteredSources()
}

// Adapter 按标识查找适配器
func (r *SourceRouter) Adapter(provider ProviderIdentity) (DataSource, bool) {
	adapter, ok := r.adapters[provider]
	return adapter, ok
}

// RouteQuote 路由行情请求
func (r *SourceRouter) RouteQuote(ctx context.Context, req *QuoteRequest, strategy SourceStrategy) RouteResult[*QuoteBatch] {
	return route(ctx, r, EndpointQuote, strategy, func(ctx context.Context, adapter DataSource) (*QuoteBatch, error) {
		return adapter.Quote(ctx, req)
	})
}

// RouteBars 路由K线请求
func (r *SourceRouter) RouteBars(ctx context.Context, req *BarsRequest, strategy SourceStrategy) RouteResult[*core.BarSeries] {
	return route(ctx, r, EndpointBars, strategy, func(ctx context.Context, adapter DataSource) (*core.BarSeries, error) {
		return adapter.Bars(ctx, req)
	})
}

// RouteFundamentals 路由基本面请求
func (r *SourceRouter) RouteFundamentals(ctx context.Context, req *FundamentalsRequest, strategy SourceStrategy) RouteResult[*FundamentalsBatch] {
	return route(ctx, r, EndpointFundamentals, strategy, func(ctx context.Context, adapter DataSource) (*FundamentalsBatch, error) {
		return adapter.Fundamentals(ctx, req)
	})
}

// RouteSearch 路由检索请求
func (r *SourceRouter) RouteSearch(ctx context.Context, req *SearchRequest, strategy SourceStrategy) RouteResult[*SearchBatch] {
	return route(ctx, r, EndpointSearch, strategy, func(ctx context.Context, adapter DataSource) (*SearchBatch, error) {
		return adapter.Search(ctx, req)
	})
}

// ChainForStrategy 返回指定策略下的候选链，仅用于观测展示。
// 策略产出为空时退回全量注册表的有序列表。
func (r *SourceRouter) ChainForStrategy(ctx context.Context, endpoint Endpoint, strategy SourceStrategy) []ProviderIdentity {
	chain := r.planSources(ctx, endpoint, strategy)
	if len(chain) == 0 {
		chain = r.sortedRegisteredSources()
	}
	return chain
}

// route 四个端点共享的通用路由算法，只由端点和调用闭包参数化
func route[T any](
	ctx context.Context,
	r *SourceRouter,
	endpoint Endpoint,
	strategy SourceStrategy,
	invoke func(context.Context, DataSource) (T, error),
) RouteResult[T] {
	started := time.Now()
	plannedChain := r.planSources(ctx, endpoint, strategy)

	sourceChain := make([]ProviderIdentity, 0, len(plannedChain))
	var errors []envelope.Error

	for _, provider := range plannedChain {
		// 先入链再求值，失败也要留痕
		sourceChain = append(sourceChain, provider)

		adapter, ok := r.adapters[provider]
		if !ok {
			errors = append(errors, toEnvelopeError(provider, NewAdapterNotRegistered(provider)))
			if strategy.IsStrict() {
				break
			}
			continue
		}

		if !adapter.Capabilities().Supports(endpoint) {
			errors = append(errors, toEnvelopeError(provider, NewUnsupportedEndpoint(endpoint)))
			if strategy.IsStrict() {
				break
			}
			continue
		}

		health := adapter.Health(ctx)
		if health.State == Unhealthy {
			errors = append(errors, toEnvelopeError(provider, NewUnavailable("source health check reported unhealthy")))
			if strategy.IsStrict() {
				break
			}
			continue
		}

		if !health.RateAvailable {
			errors = append(errors, toEnvelopeError(provider, NewRateLimited("source has no rate budget available")))
			if strategy.IsStrict() {
				break
			}
			continue
		}

		data, err := invoke(ctx, adapter)
		if err != nil {
			errors = append(errors, toEnvelopeError(provider, asSourceError(err)))
			r.log.Debugf("端点 %s 调用提供商 %s 失败: %v", endpoint, provider, err)
			if strategy.IsStrict() {
				break
			}
			continue
		}

		var warnings []string
		if len(errors) > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"source fallback succeeded with '%s' after %d failed attempt(s)",
				provider, len(errors),
			))
			r.log.Warnf("端点 %s 经过 %d 次失败后回退到提供商 %s", endpoint, len(errors), provider)
		}

		return RouteResult[T]{Success: &RouteSuccess[T]{
			Data:           data,
			SelectedSource: provider,
			SourceChain:    sourceChain,
			Warnings:       warnings,
			Errors:         errors,
			LatencyMS:      elapsedMS(started),
		}}
	}

	// 候选链为空时退回全量注册表，纯粹为了可观测性
	if len(sourceChain) == 0 {
		sourceChain = r.ChainForStrategy(ctx, endpoint, strategy)
	}
	if len(sourceChain) == 0 {
		sourceChain = r.sortedRegisteredSources()
	}

	// 失败结果的错误列表永不为空
	if len(errors) == 0 {
		errors = append(errors, envelope.NewError(
			CodeNoCandidate,
			fmt.Sprintf("no source candidates available for endpoint '%s'", endpoint),
		))
	}

	r.log.Warnf("端点 %s 的全部数据源均失败，尝试链: %v", endpoint, sourceChain)
	return RouteResult[T]{Failure: &RouteFailure{
		SourceChain: sourceChain,
		Warnings:    []string{fmt.Sprintf("all sources failed for endpoint '%s'", endpoint)},
		Errors:      errors,
		LatencyMS:   elapsedMS(started),
	}}
}

// planSources 按策略规划候选链
func (r *SourceRouter) planSources(ctx context.Context, endpoint Endpoint, strategy SourceStrategy) []ProviderIdentity {
	switch strategy.Mode() {
	case ModePriority:
		return dedupeChain(strategy.priority)
	case ModeStrict:
		return []ProviderIdentity{strategy.strict}
	default:
		return r.autoChain(ctx, endpoint)
	}
}

// autoChain 对每个注册的适配器打分并降序排序
func (r *SourceRouter) autoChain(ctx context.Context, endpoint Endpoint) []ProviderIdentity {
	scored := make([]ScoredCandidate, 0, len(r.adapters))
	for provider, adapter := range r.adapters {
		scored = append(scored, ScoredCandidate{
			Provider: provider,
			Score:    ScoreCandidate(adapter.Capabilities(), endpoint, adapter.Health(ctx)),
		})
	}
	return RankCandidates(scored)
}

func (r *SourceRouter) sortedRegisteredSources() []ProviderIdentity {
	providers := make([]ProviderIdentity, 0, len(r.adapters))
	for provider := range r.adapters {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// toEnvelopeError 把提供商标记的数据源错误翻译成信封错误条目
func toEnvelopeError(provider ProviderIdentity, err *SourceError) envelope.Error {
	return envelope.NewError(string(err.Kind.Code()), err.Message).
		WithRetryable(err.Retryable).
		WithSource(string(provider))
}

// asSourceError 把适配器返回的任意错误归一化为数据源错误。
// 取消和超时按不可用处理，调用方可以继续尝试下一个候选。
func asSourceError(err error) *SourceError {
	var sourceErr *SourceError
	if stderrors.As(err, &sourceErr) {
		return sourceErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return NewUnavailable(fmt.Sprintf("source call cancelled: %v", err))
	}
	return NewInternal(err.Error())
}

func elapsedMS(started time.Time) int64 {
	return time.Since(started).Milliseconds()
}
