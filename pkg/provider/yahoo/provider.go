package yahoo

import (
	"context"
	"fmt"
	"time"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/provider"
	"finx/pkg/source"
)

// ProviderID Yahoo Finance的提供商标识
const ProviderID source.ProviderIdentity = "yahoo"

const (
	defaultScore = 78

	seedInit       = 0
	seedMultiplier = 33
)

// Adapter Yahoo Finance数据源适配器，无批量限制的免认证数据源
type Adapter struct {
	healthState   source.HealthState
	rateAvailable bool
	score         uint16
	client        provider.Doer
	sessionCookie string
	cb            *breaker.CircuitBreaker
}

// New 创建默认的Yahoo适配器
func New() *Adapter {
	return &Adapter{
		healthState:   source.Healthy,
		rateAvailable: true,
		score:         defaultScore,
		client:        provider.NoopDoer{},
		sessionCookie: "B=finx-session",
		cb:            breaker.NewDefault(),
	}
}

// WithHealth 指定基础健康状态（测试与演练用）
func (a *Adapter) WithHealth(state source.HealthState, rateAvailable bool) *Adapter {
	a.healthState = state
	a.rateAvailable = rateAvailable
	return a
}

// WithClient 注入HTTP执行器与会话cookie
func (a *Adapter) WithClient(client provider.Doer, sessionCookie string) *Adapter {
	a.client = client
	a.sessionCookie = sessionCookie
	return a
}

// WithBreaker 注入熔断器
func (a *Adapter) WithBreaker(cb *breaker.CircuitBreaker) *Adapter {
	a.cb = cb
	return a
}

// Breaker 返回适配器持有的熔断器
func (a *Adapter) Breaker() *breaker.CircuitBreaker {
	return a.cb
}

// Identity 返回提供商标识
func (a *Adapter) Identity() source.ProviderIdentity {
	return ProviderID
}

// Capabilities Yahoo支持全部端点
func (a *Adapter) Capabilities() source.CapabilitySet {
	return source.FullCapabilities()
}

func (a *Adapter) executeCall(ctx context.Context, endpoint string) *source.SourceError {
	if !a.cb.AllowRequest() {
		return source.NewUnavailable("yahoo circuit breaker is open; skipping upstream call")
	}

	req := provider.Get(endpoint).WithHeader("Cookie", a.sessionCookie)
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("yahoo transport error: %v", err))
	}
	if !resp.IsSuccess() {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("yahoo upstream returned status %d", resp.Status))
	}

	a.cb.RecordSuccess()
	return nil
}

// Quote 获取一批标的的最新行情
func (a *Adapter) Quote(ctx context.Context, req *source.QuoteRequest) (*source.QuoteBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("yahoo quote request requires at least one symbol")
	}

	if err := a.executeCall(ctx, "https://query1.finance.yahoo.com/v7/finance/quote"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	quotes := make([]core.Quote, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		price := 92.0 + float64(seed%500)/10
		quote, err := core.NewQuote(symbol, price, price-0.08, price+0.08,
			int64(50_000+seed%10_000), "USD", asOf)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("yahoo quote normalization failed: %v", err))
		}
		quotes = append(quotes, quote)
	}
	return &source.QuoteBatch{Quotes: quotes}, nil
}

// Bars 获取K线序列
func (a *Adapter) Bars(ctx context.Context, req *source.BarsRequest) (*core.BarSeries, error) {
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("yahoo bars request limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://query1.finance.yahoo.com/v8/finance/chart"); err != nil {
		return nil, err
	}

	step := req.Interval.Duration()
	now := time.Now().UTC()
	seed := provider.SymbolSeed(req.Symbol, seedInit, seedMultiplier)
	bars := make([]core.Bar, 0, req.Limit)

	for index := 0; index < req.Limit; index++ {
		ts := now.Add(-step * time.Duration(req.Limit-index-1))
		base := 90.0 + float64((seed+uint64(index))%350)/10
		bar, err := core.NewBar(ts, base, base+1.20, base-0.80, base+0.30,
			int64(20_000+index*25), base+0.15)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("yahoo bar normalization failed: %v", err))
		}
		bars = append(bars, bar)
	}

	return &core.BarSeries{Symbol: req.Symbol, Interval: req.Interval, Bars: bars}, nil
}

// Fundamentals 获取基本面快照
func (a *Adapter) Fundamentals(ctx context.Context, req *source.FundamentalsRequest) (*source.FundamentalsBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("yahoo fundamentals request requires at least one symbol")
	}

	if err := a.executeCall(ctx, "https://query2.finance.yahoo.com/v10/finance/quoteSummary"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	fundamentals := make([]core.Fundamental, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		fundamentals = append(fundamentals, core.Fundamental{
			Symbol:        symbol,
			AsOf:          asOf,
			MarketCap:     500_000_000_000.0 + float64(seed%300_000)*1_000_000.0,
			PERatio:       14.0 + float64(seed%200)/10,
			DividendYield: 0.005 + float64(seed%50)/10_000,
		})
	}
	return &source.FundamentalsBatch{Fundamentals: fundamentals}, nil
}

// Search 在内置目录中检索标的
func (a *Adapter) Search(ctx context.Context, req *source.SearchRequest) (*source.SearchBatch, error) {
	if req.Query == "" {
		return nil, source.NewInvalidRequest("yahoo search query must not be empty")
	}
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("yahoo search limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://query2.finance.yahoo.com/v1/finance/search"); err != nil {
		return nil, err
	}

	return &source.SearchBatch{
		Query:       req.Query,
		Instruments: provider.SearchCatalog(catalog(), req.Query, req.Limit),
	}, nil
}

// Health 返回折叠了熔断器状态的健康快照
func (a *Adapter) Health(ctx context.Context) source.HealthStatus {
	base := source.HealthStatus{
		State:         a.healthState,
		RateAvailable: a.rateAvailable,
		Score:         a.score,
	}
	return provider.SynthesizeHealth(base, a.cb, 0)
}

func catalog() []core.Instrument {
	return []core.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Exchange: "ARCA", Currency: "USD", AssetClass: core.AssetETF, IsActive: true},
		{Symbol: "QQQ", Name: "Invesco QQQ Trust", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetETF, IsActive: true},
	}
}
