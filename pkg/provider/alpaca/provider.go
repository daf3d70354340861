package alpaca

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/limiter"
	"finx/pkg/provider"
	"finx/pkg/source"
)

// ProviderID Alpaca的提供商标识
const ProviderID source.ProviderIdentity = "alpaca"

const (
	defaultScore = 85

	seedInit       = 13
	seedMultiplier = 29
)

// Adapter Alpaca数据源适配器。
// 只提供行情与K线，不支持基本面与检索端点。
type Adapter struct {
	healthState   source.HealthState
	rateAvailable bool
	score         uint16
	client        provider.Doer
	apiKey        string
	secretKey     string
	cb            *breaker.CircuitBreaker
	throttle      *limiter.ThrottlingQueue
}

// New 创建默认的Alpaca适配器
func New() *Adapter {
	apiKey := os.Getenv("FINX_ALPACA_API_KEY")
	if apiKey == "" {
		apiKey = "demo"
	}
	secretKey := os.Getenv("FINX_ALPACA_SECRET_KEY")
	if secretKey == "" {
		secretKey = "demo"
	}
	return &Adapter{
		healthState:   source.Healthy,
		rateAvailable: true,
		score:         defaultScore,
		client:        provider.NoopDoer{},
		apiKey:        apiKey,
		secretKey:     secretKey,
		cb:            breaker.NewDefault(),
		throttle:      limiter.NewThrottlingQueue(limiter.AlpacaPolicy()),
	}
}

// WithHealth 指定基础健康状态（测试与演练用）
func (a *Adapter) WithHealth(state source.HealthState, rateAvailable bool) *Adapter {
	a.healthState = state
	a.rateAvailable = rateAvailable
	return a
}

// WithClient 注入HTTP执行器与密钥对
func (a *Adapter) WithClient(client provider.Doer, apiKey, secretKey string) *Adapter {
	a.client = client
	a.apiKey = apiKey
	a.secretKey = secretKey
	return a
}

// WithBreaker 注入熔断器
func (a *Adapter) WithBreaker(cb *breaker.CircuitBreaker) *Adapter {
	a.cb = cb
	return a
}

// WithPolicy 替换限流策略并重建限流队列
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

// Capabilities Alpaca只支持行情与K线
func (a *Adapter) Capabilities() source.CapabilitySet {
	return source.CapabilitySet{Quote: true, Bars: true}
}

func (a *Adapter) executeCall(ctx context.Context, endpoint string) *source.SourceError {
	if !a.cb.AllowRequest() {
		return source.NewUnavailable("alpaca circuit breaker is open; skipping upstream call")
	}

	if err := a.throttle.Acquire(); err != nil {
		var rateErr *limiter.RateLimitedError
		if errors.As(err, &rateErr) {
			return source.NewRateLimited(fmt.Sprintf(
				"alpaca rate limit exceeded; retry in %.2fs", rateErr.RetryAfter.Seconds()))
		}
		return source.NewRateLimited("alpaca rate limit exceeded")
	}

	req := provider.Get(endpoint).
		WithHeader("APCA-API-KEY-ID", a.apiKey).
		WithHeader("APCA-API-SECRET-KEY", a.secretKey).
		WithTimeout(5 * time.Second)
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("alpaca transport error: %v", err))
	}
	if !resp.IsSuccess() {
		a.cb.RecordFailure()
		return source.NewUnavailable(fmt.Sprintf("alpaca upstream returned status %d", resp.Status))
	}

	a.throttle.CompleteOne()
	a.cb.RecordSuccess()
	return nil
}

// Quote 获取一批标的的最新行情
func (a *Adapter) Quote(ctx context.Context, req *source.QuoteRequest) (*source.QuoteBatch, error) {
	if len(req.Symbols) == 0 {
		return nil, source.NewInvalidRequest("alpaca quote request requires at least one symbol")
	}

	if err := a.executeCall(ctx, "https://data.alpaca.markets/v2/stocks/quotes/latest"); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	quotes := make([]core.Quote, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		seed := provider.SymbolSeed(symbol, seedInit, seedMultiplier)
		last := 95.0 + float64(seed%510)/10
		quote, err := core.NewQuote(symbol, last, last-0.05, last+0.05,
			int64(45_000+seed%11_000), "USD", asOf)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("alpaca quote normalization failed: %v", err))
		}
		quotes = append(quotes, quote)
	}
	return &source.QuoteBatch{Quotes: quotes}, nil
}

// Bars 获取K线序列
func (a *Adapter) Bars(ctx context.Context, req *source.BarsRequest) (*core.BarSeries, error) {
	if req.Limit <= 0 {
		return nil, source.NewInvalidRequest("alpaca bars request limit must be greater than zero")
	}

	if err := a.executeCall(ctx, "https://data.alpaca.markets/v2/stocks/bars"); err != nil {
		return nil, err
	}

	step := req.Interval.Duration()
	now := time.Now().UTC()
	seed := provider.SymbolSeed(req.Symbol, seedInit, seedMultiplier)
	bars := make([]core.Bar, 0, req.Limit)

	for index := 0; index < req.Limit; index++ {
		ts := now.Add(-step * time.Duration(req.Limit-index-1))
		base := 94.0 + float64((seed+uint64(index)*2)%460)/10
		bar, err := core.NewBar(ts, base+0.02, base+1.18, base-0.68, base+0.36,
			int64(28_000+index*30), base+0.11)
		if err != nil {
			return nil, source.NewInternal(fmt.Sprintf("alpaca bar normalization failed: %v", err))
		}
		bars = append(bars, bar)
	}

	return &core.BarSeries{Symbol: req.Symbol, Interval: req.Interval, Bars: bars}, nil
}

// Fundamentals Alpaca不提供基本面数据
func (a *Adapter) Fundamentals(ctx context.Context, req *source.FundamentalsRequest) (*source.FundamentalsBatch, error) {
	return nil, source.NewUnsupportedEndpoint(source.EndpointFundamentals)
}

// Search Alpaca不提供标的检索
func (a *Adapter) Search(ctx context.Context, req *source.SearchRequest) (*source.SearchBatch, error) {
	return nil, source.NewUnsupportedEndpoint(source.EndpointSearch)
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
