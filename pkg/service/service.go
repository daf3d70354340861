// Package service 是行情获取的门面层。
// 它把调用方参数转换为路由请求，叠加缓存与仓储落盘，
// 并把路由结果包装为标准响应信封。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finx/pkg/cache"
	"finx/pkg/core"
	"finx/pkg/envelope"
	"finx/pkg/logger"
	"finx/pkg/source"
	"finx/pkg/warehouse"
)

// DefaultCacheTTL 报价类响应的默认缓存时长
const DefaultCacheTTL = 5 * time.Second

// Options 服务层的可选依赖。
// Cache 与 Sink 为 nil 时对应能力被关闭。
type Options struct {
	Cache    cache.Cache
	Sink     warehouse.Sink
	CacheTTL time.Duration
}

// MarketService 行情服务门面
type MarketService struct {
	router   *source.SourceRouter
	cache    cache.Cache
	sink     warehouse.Sink
	cacheTTL time.Duration
	log      *logger.Entry
	wg       sync.WaitGroup
}

// New 创建行情服务
func New(router *source.SourceRouter, opts Options) *MarketService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MarketService{
		router:   router,
		cache:    opts.Cache,
		sink:     opts.Sink,
		cacheTTL: ttl,
		log:      logger.WithComponent("service"),
	}
}

// Router 返回服务持有的路由器
func (s *MarketService) Router() *source.SourceRouter {
	return s.router
}

// Close 等待所有异步落盘完成
func (s *MarketService) Close() {
	s.wg.Wait()
}

// Quote 获取一批标的的实时报价
func (s *MarketService) Quote(ctx context.Context, params QuoteParams) (*envelope.Envelope, error) {
	requestID := newRequestID()
	strategy, err := source.ParseStrategy(params.Strategy)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	symbols, err := core.ParseSymbols(params.Symbols)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	req, srcErr := source.NewQuoteRequest(symbols)
	if srcErr != nil {
		return nil, NewServiceError(ErrInvalidParams, srcErr.Message)
	}

	started := time.Now()
	key := cacheKey("quote", strategy, joinSymbols(symbols))
	if hit, ok := lookupCache[*source.QuoteBatch](ctx, s, key); ok {
		return s.cachedEnvelope(requestID, params.TraceID, hit.Source, started, hit.Data)
	}

	result := s.router.RouteQuote(ctx, req, strategy)
	if result.OK() {
		storeCache(ctx, s, key, result.Success.Data, result.Success.SelectedSource)
		record := s.record(requestID, result.Success.SelectedSource, result.Success.LatencyMS)
		batch := result.Success.Data
		s.ingest(record, func(ctx context.Context, record warehouse.Record) error {
			return s.sink.WriteQuotes(ctx, record, batch.Quotes)
		})
	}
	return finish(s, requestID, params.TraceID, result)
}

// Bars 获取单个标的的K线序列
func (s *MarketService) Bars(ctx context.Context, params BarsParams) (*envelope.Envelope, error) {
	requestID := newRequestID()
	strategy, err := source.ParseStrategy(params.Strategy)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	symbol, err := core.ParseSymbol(params.Symbol)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	interval, err := core.ParseInterval(params.Interval)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	req, srcErr := source.NewBarsRequest(symbol, interval, params.Limit)
	if srcErr != nil {
		return nil, NewServiceError(ErrInvalidParams, srcErr.Message)
	}

	started := time.Now()
	key := cacheKey("bars", strategy, fmt.Sprintf("%s|%s|%d", symbol, interval, params.Limit))
	if hit, ok := lookupCache[*core.BarSeries](ctx, s, key); ok {
		return s.cachedEnvelope(requestID, params.TraceID, hit.Source, started, hit.Data)
	}

	result := s.router.RouteBars(ctx, req, strategy)
	if result.OK() {
		storeCache(ctx, s, key, result.Success.Data, result.Success.SelectedSource)
		record := s.record(requestID, result.Success.SelectedSource, result.Success.LatencyMS)
		series := result.Success.Data
		s.ingest(record, func(ctx context.Context, record warehouse.Record) error {
			return s.sink.WriteBars(ctx, record, series)
		})
	}
	return finish(s, requestID, params.TraceID, result)
}

// Fundamentals 获取一批标的的基本面快照
func (s *MarketService) Fundamentals(ctx context.Context, params FundamentalsParams) (*envelope.Envelope, error) {
	requestID := newRequestID()
	strategy, err := source.ParseStrategy(params.Strategy)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	symbols, err := core.ParseSymbols(params.Symbols)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	req, srcErr := source.NewFundamentalsRequest(symbols)
	if srcErr != nil {
		return nil, NewServiceError(ErrInvalidParams, srcErr.Message)
	}

	started := time.Now()
	key := cacheKey("fundamentals", strategy, joinSymbols(symbols))
	if hit, ok := lookupCache[*source.FundamentalsBatch](ctx, s, key); ok {
		return s.cachedEnvelope(requestID, params.TraceID, hit.Source, started, hit.Data)
	}

	result := s.router.RouteFundamentals(ctx, req, strategy)
	if result.OK() {
		storeCache(ctx, s, key, result.Success.Data, result.Success.SelectedSource)
		record := s.record(requestID, result.Success.SelectedSource, result.Success.LatencyMS)
		batch := result.Success.Data
		s.ingest(record, func(ctx context.Context, record warehouse.Record) error {
			return s.sink.WriteFundamentals(ctx, record, batch.Fundamentals)
		})
	}
	return finish(s, requestID, params.TraceID, result)
}

// Search 按关键词检索标的。
// 检索结果不落盘，但与其他端点一样走缓存。
func (s *MarketService) Search(ctx context.Context, params SearchParams) (*envelope.Envelope, error) {
	requestID := newRequestID()
	strategy, err := source.ParseStrategy(params.Strategy)
	if err != nil {
		return nil, NewServiceError(ErrInvalidParams, err.Error())
	}
	req, srcErr := source.NewSearchRequest(params.Query, params.Limit)
	if srcErr != nil {
		return nil, NewServiceError(ErrInvalidParams, srcErr.Message)
	}

	started := time.Now()
	key := cacheKey("search", strategy, fmt.Sprintf("%s|%d", strings.ToLower(req.Query), req.Limit))
	if hit, ok := lookupCache[*source.SearchBatch](ctx, s, key); ok {
		return s.cachedEnvelope(requestID, params.TraceID, hit.Source, started, hit.Data)
	}

	result := s.router.RouteSearch(ctx, req, strategy)
	if result.OK() {
		storeCache(ctx, s, key, result.Success.Data, result.Success.SelectedSource)
	}
	return finish(s, requestID, params.TraceID, result)
}

// Sources 返回所有已注册数据源的健康快照
func (s *MarketService) Sources(ctx context.Context, traceID string) (*envelope.Envelope, error) {
	requestID := newRequestID()
	started := time.Now()

	snapshots := s.router.Snapshots(ctx)
	chain := make([]source.ProviderIdentity, 0, len(snapshots))
	for _, snapshot := range snapshots {
		chain = append(chain, snapshot.ID)
	}

	meta, err := s.buildMeta(requestID, traceID, chain, time.Since(started).Milliseconds(), false, nil)
	if err != nil {
		return nil, err
	}
	return envelope.Success(*meta, snapshots), nil
}

func newRequestID() string {
	return "req-" + uuid.NewString()
}

func joinSymbols(symbols []core.Symbol) string {
	parts := make([]string, len(symbols))
	for i, symbol := range symbols {
		parts[i] = string(symbol)
	}
	return strings.Join(parts, ",")
}

func cacheKey(endpoint string, strategy source.SourceStrategy, suffix string) string {
	return fmt.Sprintf("%s|%s|%s", endpoint, strategy.String(), suffix)
}

// cachedPayload 缓存中保存的数据与其来源
type cachedPayload[T any] struct {
	Data   T                       `json:"data"`
	Source source.ProviderIdentity `json:"source"`
}

// lookupCache 读取缓存条目。
// 进程内缓存直接保存类型化指针；Redis返回JSON，需要反序列化。
func lookupCache[T any](ctx context.Context, s *MarketService, key string) (*cachedPayload[T], bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	switch v := value.(type) {
	case *cachedPayload[T]:
		return v, true
	case json.RawMessage:
		var payload cachedPayload[T]
		if err := json.Unmarshal(v, &payload); err != nil {
			s.log.Warnf("缓存条目解码失败，按未命中处理 (key=%s): %v", key, err)
			return nil, false
		}
		return &payload, true
	default:
		return nil, false
	}
}

func storeCache[T any](ctx context.Context, s *MarketService, key string, data T, provider source.ProviderIdentity) {
	if s.cache == nil {
		return
	}
	payload := &cachedPayload[T]{Data: data, Source: provider}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.log.Warnf("缓存写入失败 (key=%s): %v", key, err)
	}
}

func (s *MarketService) record(requestID string, provider source.ProviderIdentity, latencyMS int64) warehouse.Record {
	return warehouse.Record{
		Provider:  provider,
		RequestID: requestID,
		LatencyMS: latencyMS,
		FetchedAt: time.Now().UTC(),
	}
}

// ingest 异步向仓储写入数据，失败只记录日志，不影响已返回的响应
func (s *MarketService) ingest(record warehouse.Record, write func(context.Context, warehouse.Record) error) {
	if s.sink == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := write(ctx, record); err != nil {
			s.log.Warnf("仓储写入失败 (provider=%s request_id=%s): %v", record.Provider, record.RequestID, err)
		}
	}()
}

func (s *MarketService) buildMeta(requestID, traceID string, chain []source.ProviderIdentity, latencyMS int64, cacheHit bool, warnings []string) (*envelope.Meta, error) {
	links := make([]string, 0, len(chain))
	for _, provider := range chain {
		links = append(links, string(provider))
	}
	if len(links) == 0 {
		links = []string{"router"}
	}

	meta, err := envelope.NewMeta(requestID, links, latencyMS, cacheHit)
	if err != nil {
		return nil, NewServiceError(ErrEnvelopeBuild, err.Error())
	}
	if traceID != "" {
		if _, err := meta.WithTraceID(traceID); err != nil {
			return nil, NewServiceError(ErrInvalidParams, err.Error())
		}
	}
	for _, warning := range warnings {
		meta.PushWarning(warning)
	}
	return meta, nil
}

func (s *MarketService) cachedEnvelope(requestID, traceID string, provider source.ProviderIdentity, started time.Time, data interface{}) (*envelope.Envelope, error) {
	meta, err := s.buildMeta(requestID, traceID,
		[]source.ProviderIdentity{provider}, time.Since(started).Milliseconds(), true, nil)
	if err != nil {
		return nil, err
	}
	return envelope.Success(*meta, data), nil
}

// finish 把路由结果包装为响应信封。
// 成功信封会携带成功之前失败尝试的错误记录。
func finish[T any](s *MarketService, requestID, traceID string, result source.RouteResult[T]) (*envelope.Envelope, error) {
	if result.OK() {
		meta, err := s.buildMeta(requestID, traceID,
			result.Success.SourceChain, result.Success.LatencyMS, false, result.Success.Warnings)
		if err != nil {
			return nil, err
		}
		env, err := envelope.WithErrors(*meta, result.Success.Data, result.Success.Errors)
		if err != nil {
			return nil, NewServiceError(ErrEnvelopeBuild, err.Error())
		}
		return env, nil
	}

	meta, err := s.buildMeta(requestID, traceID,
		result.Failure.SourceChain, result.Failure.LatencyMS, false, result.Failure.Warnings)
	if err != nil {
		return nil, err
	}
	env, err := envelope.WithErrors(*meta, nil, result.Failure.Errors)
	if err != nil {
		return nil, NewServiceError(ErrEnvelopeBuild, err.Error())
	}
	return env, nil
}
