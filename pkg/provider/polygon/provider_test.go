package polygon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/provider"
	"finx/pkg/source"
)

// failingDoer 恒定失败的HTTP执行器
type failingDoer struct{}

func (failingDoer) Do(context.Context, provider.Request) (provider.Response, error) {
	return provider.Response{}, errors.New("connection refused")
}

func mustSymbols(t *testing.T, raw ...string) []core.Symbol {
	t.Helper()
	symbols, err := core.ParseSymbols(raw)
	require.NoError(t, err)
	return symbols
}

func TestQuote_确定性载荷(t *testing.T) {
	adapter := New()
	req, srcErr := source.NewQuoteRequest(mustSymbols(t, "AAPL"))
	require.Nil(t, srcErr)

	first, err := adapter.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := adapter.Quote(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, first.Quotes, 1)
	assert.Equal(t, first.Quotes[0].Price, second.Quotes[0].Price, "同一代码的价格应稳定")
	assert.Equal(t, "USD", first.Quotes[0].Currency)
	assert.Less(t, first.Quotes[0].Bid, first.Quotes[0].Price)
	assert.Greater(t, first.Quotes[0].Ask, first.Quotes[0].Price)
}

func TestQuote_批量限制(t *testing.T) {
	adapter := New()
	req, srcErr := source.NewQuoteRequest(mustSymbols(t, "AAPL", "MSFT", "NVDA", "TSLA"))
	require.Nil(t, srcErr)

	_, err := adapter.Quote(context.Background(), req)

	var sourceErr *source.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, source.KindRateLimited, sourceErr.Kind, "超过免费档批量上限应按限流处理")
}

func TestBars_分钟线上限(t *testing.T) {
	adapter := New()
	symbol := mustSymbols(t, "AAPL")[0]

	req, srcErr := source.NewBarsRequest(symbol, core.Interval1m, 120)
	require.Nil(t, srcErr)
	series, err := adapter.Bars(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, series.Bars, 120)

	// 时间戳升序且符合K线区间约束
	for i := 1; i < len(series.Bars); i++ {
		assert.True(t, series.Bars[i].Timestamp.After(series.Bars[i-1].Timestamp))
		assert.GreaterOrEqual(t, series.Bars[i].High, series.Bars[i].Low)
	}

	req, srcErr = source.NewBarsRequest(symbol, core.Interval1m, 121)
	require.Nil(t, srcErr)
	_, err = adapter.Bars(context.Background(), req)
	var sourceErr *source.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, source.KindRateLimited, sourceErr.Kind)

	// 非分钟线不受120根上限约束
	req, srcErr = source.NewBarsRequest(symbol, core.Interval1d, 200)
	require.Nil(t, srcErr)
	_, err = adapter.Bars(context.Background(), req)
	assert.NoError(t, err)
}

func TestFundamentals_批量限制(t *testing.T) {
	adapter := New()

	req, srcErr := source.NewFundamentalsRequest(mustSymbols(t, "AAPL", "MSFT"))
	require.Nil(t, srcErr)
	batch, err := adapter.Fundamentals(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, batch.Fundamentals, 2)
	assert.Greater(t, batch.Fundamentals[0].MarketCap, 0.0)

	req, srcErr = source.NewFundamentalsRequest(mustSymbols(t, "AAPL", "MSFT", "NVDA"))
	require.Nil(t, srcErr)
	_, err = adapter.Fundamentals(context.Background(), req)
	var sourceErr *source.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, source.KindRateLimited, sourceErr.Kind)
}

func TestSearch_目录检索(t *testing.T) {
	adapter := New()
	req, srcErr := source.NewSearchRequest("nvidia", 10)
	require.Nil(t, srcErr)

	batch, err := adapter.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batch.Instruments, 1)
	assert.Equal(t, core.Symbol("NVDA"), batch.Instruments[0].Symbol)
	assert.Equal(t, "nvidia", batch.Query)
}

func TestHealth_熔断器驱动(t *testing.T) {
	adapter := New().WithClient(failingDoer{}, "demo")
	ctx := context.Background()

	status := adapter.Health(ctx)
	assert.Equal(t, source.Healthy, status.State)

	// 连续失败到阈值后熔断打开，健康上报转为不健康
	req, srcErr := source.NewQuoteRequest(mustSymbols(t, "AAPL"))
	require.Nil(t, srcErr)
	for i := 0; i < 3; i++ {
		_, err := adapter.Quote(ctx, req)
		require.Error(t, err)
	}

	assert.Equal(t, breaker.StateOpen, adapter.Breaker().State())
	status = adapter.Health(ctx)
	assert.Equal(t, source.Unhealthy, status.State)
	assert.False(t, status.RateAvailable)

	// 熔断打开后请求被直接拒绝，不再触达上游
	_, err := adapter.Quote(ctx, req)
	var sourceErr *source.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, source.KindUnavailable, sourceErr.Kind)
}

func TestCapabilities(t *testing.T) {
	adapter := New()

	assert.Equal(t, ProviderID, adapter.Identity())
	assert.Equal(t, source.FullCapabilities(), adapter.Capabilities())
	assert.Equal(t, uint16(90), adapter.Health(context.Background()).Score)
}
