package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/source"
)

func TestSymbolSeed_确定性(t *testing.T) {
	s1 := SymbolSeed("AAPL", 7, 37)
	s2 := SymbolSeed("AAPL", 7, 37)
	assert.Equal(t, s1, s2, "同一代码同一参数应得到相同种子")

	assert.NotEqual(t, SymbolSeed("AAPL", 7, 37), SymbolSeed("MSFT", 7, 37))
	assert.NotEqual(t, SymbolSeed("AAPL", 7, 37), SymbolSeed("AAPL", 11, 31),
		"不同提供商参数应得到不同种子")
}

func TestSynthesizeHealth_熔断器折叠(t *testing.T) {
	base := source.HealthStatus{State: source.Healthy, RateAvailable: true, Score: 90}

	cb := breaker.NewDefault()
	status := SynthesizeHealth(base, cb, 0)
	assert.Equal(t, source.Healthy, status.State, "熔断器关闭时保持基础状态")
	assert.True(t, status.RateAvailable)

	// 连续失败打开熔断器后强制不健康
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	status = SynthesizeHealth(base, cb, 0)
	assert.Equal(t, source.Unhealthy, status.State)
	assert.False(t, status.RateAvailable, "熔断打开时配额视为不可用")
}

func TestSynthesizeHealth_待重试台账(t *testing.T) {
	base := source.HealthStatus{State: source.Healthy, RateAvailable: true, Score: 70}

	status := SynthesizeHealth(base, breaker.NewDefault(), 2)
	assert.Equal(t, source.Healthy, status.State)
	assert.False(t, status.RateAvailable, "有待重试请求时配额不可用")
}

func TestSearchCatalog_大小写折叠(t *testing.T) {
	catalog := []core.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Currency: "USD", AssetClass: core.AssetEquity, IsActive: true},
		{Symbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Currency: "USD", AssetClass: core.AssetETF, IsActive: true},
	}

	results := SearchCatalog(catalog, "apple", 10)
	require.Len(t, results, 1)
	assert.Equal(t, core.Symbol("AAPL"), results[0].Symbol)

	results = SearchCatalog(catalog, "S", 10)
	assert.Len(t, results, 2, "应同时匹配代码与名称")

	results = SearchCatalog(catalog, "S", 1)
	assert.Len(t, results, 1, "结果数量受limit约束")
}

func TestNoopDoer(t *testing.T) {
	resp, err := NoopDoer{}.Do(context.Background(), Get("https://example.com"))

	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NoopDoer{}.Do(ctx, Get("https://example.com"))
	assert.Error(t, err, "已取消的上下文应直接返回错误")
}

func TestRequest_请求头不共享(t *testing.T) {
	base := Get("https://example.com").WithHeader("x-api-key", "one")
	derived := base.WithHeader("x-api-key", "two")

	assert.Equal(t, "one", base.Headers["x-api-key"], "派生请求不应污染原请求")
	assert.Equal(t, "two", derived.Headers["x-api-key"])
}
