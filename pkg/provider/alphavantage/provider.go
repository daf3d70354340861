package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/limiter"
	"finx/pkg/provider"
	"finx/pkg/source"
)

// ProviderID Alpha Vantage的提供商标识
const ProviderID source.ProviderIdentity = "alphavantage"

const (
	defaultScore = 70

	seedInit       = 11
	seedMultiplier = 31
)

// Adapter Alpha Vantage数据源适配器。
// 免费档每60秒只允许5次请求，适配器自带限流队列做配额准入，
// 与熔断器相互独立：上游健康时配额也可能耗尽。
type Adapter struct {
	healthState   source.HealthState
	rateAvailable bool
	score         uint16
	client        provider.Doer
	apiKey        string
	cb            *breaker.CircuitBreaker
	throttle      *limiter.ThrottlingQueue
}

// New 创建默认的Alpha Vantage适配器，使用免费档配额策略
func New() *Adapter {
	apiKey := os.Getenv("FINX_ALPHAVANTAGE_API_KEY")
	if apiKey == "" {
		apiKey = "demo"
	}
	return &Adapter{
		healthState:   source.Healthy,
		rateAvailable: true,
		score:         defaultScore,
		client:        provider.NoopDoer{},
		apiKey:        apiKey,
		cb:            breaker.NewDefault(),
		throttle:      limiter.NewThrottlingQueue(limiter.AlphaVantagePolicy()),
	}
}

// WithHealth 指定基础健康状态（测试与演练用）
func (a *Adapter) WithHealth(state source.HealthState, rateAvailable bool) *Adapter {
	a.healthState = state
	a.rateAvailable = rateAvailable
	return a
}

// WithClient 注入HTTP执行器与API密钥
func (a *Adapter) WithClient(client provider.Doer, apiKey string) *Adapter {
	a.client = client
	a.apiKey = apiKey
	return a
}

// WithBreaker 注入熔断器
func (a *Adapter) WithBreaker(cb *breaker.CircuitBreaker) *Adapter {
	a.cb = cb
	return a
}

// WithPolicy 用指定配额策略重建限流队列
func (a *Adapter) WithPolicy(policy limiter.ProviderPolicy) *Adapter {
	a.throttle = limiter.NewThrottlingQueue(policy)
	return a
}

// Breaker 返回适配器持有的熔断器
func (a *Adapter) Breaker() *breaker.CircuitBreaker {
	return a.cb
}

// Throttle 返回适配器持有的限流队列
func (a *Adapter) Throttle() *limiter.ThrottlingQueue {
	return a.throttle
}

// Identity 返回提供商标识
func (a *Adapter) Identity() source.ProviderIdentity {
	return ProviderID
}

// Capabilities Alpha Vantage支持全部端点
func (a *Adapter) Capabilities() source.CapabilitySet {
	return source.FullCapabilities()
}

// executeCall 执行一次上游调用：先过熔断器，再过配额准入
func (a *Adapter) executeCall(ctx context.Context, endpoint string) *source.SourceError {
	if !a.cb.AllowRequest() {
		return source.NewUnavailable("alphavantage circuit breaker is open; skipping upstream call")
	}

	if err := a.throttle.Acquire(); err != nil {
		var rateErr *limiter.RateLimitedError
		if errors.As(err, &rateErr) {
			return source.NewRateLimited(fmt.Sprintf(
				"alphavantage free-tier limit exceeded; retry in %.2fs",
				rateErr.RetryAfter.Seconds(),
			))
		}
		return source.NewRateLimited("alphavantage free-tier limit exceeded")
	}

	req := provider.Get(a.withAPIKey(endpoint))
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("alphavantage transport error: %v", err))
	}
	if !resp.IsSuccess() {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("alphavantage upstream returned status %d", resp.Status))
	}

	a.throttle.CompleteOne()
	a.cb.RecordSuccess()
	return nil
}

func (a *Adapter) withAPIKey(endpoint string) string {
	if strings.Contains(endpoint, "?") {
		return endpoint + "&apikey=" + a.apiKey
	}
	return endpoint + "?apikey=" + a.apiKey
}

// Quote 获取一批标的的最新行情
func (a *Adapter) Quote(ctx context.Context, req *source.QuoteRequest) (*source.QuoteBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("alphavantage quote request requires at least one symbol")
	}

	if err := a.executeCall(ctx, "https://www.alphavantage.co/query?function=GLOBAL_QUOTE"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	quotes := make([]core.Quote, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		price := 91.0 + float64(seed%520)/10
		quote, err := core.NewQuote(symbol, price, price-0.07, price+0.07,
			int64(30_000+seed%12_000), "USD", asOf)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("alphavantage quote normalization failed: %v", err))
		}
		quotes = append(quotes, quote)
	}
	return &source.QuoteBatch{Quotes: quotes}, nil
}

// Bars 获取K线序列
func (a *Adapter) Bars(ctx context.Context, req *source.BarsRequest) (*core.BarSeries, error) {
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("alphavantage bars request limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://www.alphavantage.co/query?function=TIME_SERIES_INTRADAY"); err != nil {
		return nil, err
	}

	step := req.Interval.Duration()
	now := time.Now().UTC()
	seed := provider.SymbolSeed(req.Symbol, seedInit, seedMultiplier)
	bars := make([]core.Bar, 0, req.Limit)

	for index := 0; index < req.Limit; index++ {
		ts := now.Add(-step * time.Duration(req.Limit-index-1))
		base := 88.0 + float64((seed+uint64(index)*5)%500)/10
		bar, err := core.NewBar(ts, base, base+1.10, base-0.70, base+0.33,
			int64(18_000+index*20), base+0.12)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("alphavantage bar normalization failed: %v", err))
		}
		bars = append(bars, bar)
	}

	return &core.BarSeries{Symbol: req.Symbol, Interval: req.Interval, Bars: bars}, nil
}

// Fundamentals 获取基本面快照
func (a *Adapter) Fundamentals(ctx context.Context, req *source.FundamentalsRequest) (*source.FundamentalsBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("alphavantage fundamentals request requires at least one symbol")
	}

	if err := a.executeCall(ctx, "https://www.alphavantage.co/query?function=OVERVIEW"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	fundamentals := make([]core.Fundamental, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		fundamentals = append(fundamentals, core.Fundamental{
			Symbol:        symbol,
			AsOf:          asOf,
			MarketCap:     400_000_000_000.0 + float64(seed%280_000)*1_000_000.0,
			PERatio:       12.0 + float64(seed%220)/10,
			DividendYield: 0.003 + float64(seed%55)/10_000,
		})
	}
	return &source.FundamentalsBatch{Fundamentals: fundamentals}, nil
}

// Search 在内置目录中检索标的
func (a *Adapter) Search(ctx context.Context, req *source.SearchRequest) (*source.SearchBatch, error) {
	if req.Query == "" {
		return nil, source.NewInvalidRequest("alphavantage search query must not be empty")
	}
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("alphavantage search limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://www.alphavantage.co/query?function=SYMBOL_SEARCH"); err != nil {
		return nil, err
	}

	return &source.SearchBatch{
		Query:       req.Query,
		Instruments: provider.SearchCatalog(catalog(), req.Query, req.Limit),
	}, nil
}

// Health 健康快照：配额可用性同时取决于基础状态与待重试台账
func (a *Adapter) Health(ctx context.Context) source.HealthStatus {
	base := source.HealthStatus{
		State:         a.healthState,
		RateAvailable: a.rateAvailable,
		Score:         a.score,
	}
	return provider.SynthesizeHealth(base, a.cb, a.throttle.PendingLen())
}

func catalog() []core.Instrument {
	return []core.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "AMZN", Name: "Amazon.com, Inc.", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "META", Name: "Meta Platforms, Inc.", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "VOO", Name: "Vanguard S&P 500 ETF", Exchange: "ARCA", Currency: "USD", AssetClass: core.AssetETF, IsActive: true},
	}
}
