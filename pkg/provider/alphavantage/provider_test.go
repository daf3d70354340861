package alphavantage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/core"
	"finx/pkg/limiter"
	"finx/pkg/source"
)

func quoteRequest(t *testing.T) *source.QuoteRequest {
	t.Helper()
	symbols, err := core.ParseSymbols([]string{"AAPL"})
	require.NoError(t, err)
	req, srcErr := source.NewQuoteRequest(symbols)
	require.Nil(t, srcErr)
	return req
}

func TestQuote_免费档配额耗尽(t *testing.T) {
	adapter := New().WithPolicy(limiter.ProviderPolicy{
		Provider:    "alphavantage",
		QuotaWindow: 60 * time.Second,
		QuotaLimit:  2,
		RetryBackoff: limiter.BackoffSettings{
			InitialDelay: 1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2,
			MaxRetries:   3,
		},
	})
	ctx := context.Background()
	req := quoteRequest(t)

	_, err := adapter.Quote(ctx, req)
	require.NoError(t, err)
	_, err = adapter.Quote(ctx, req)
	require.NoError(t, err)

	// 窗口内第3次请求被配额准入拒绝
	_, err = adapter.Quote(ctx, req)
	var sourceErr *source.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, source.KindRateLimited, sourceErr.Kind)
	assert.True(t, sourceErr.Retryable)
	assert.Contains(t, sourceErr.Message, "retry in")

	// 被拒请求进入台账，健康上报的配额可用性随之翻转
	assert.Equal(t, 1, adapter.Throttle().PendingLen())
	status := adapter.Health(ctx)
	assert.Equal(t, source.Healthy, status.State, "配额耗尽不等于不健康")
	assert.False(t, status.RateAvailable)
}

func TestQuote_确定性载荷(t *testing.T) {
	adapter := New()
	req := quoteRequest(t)

	first, err := adapter.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := adapter.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Quotes[0].Price, second.Quotes[0].Price)
	assert.InDelta(t, first.Quotes[0].Price-0.07, first.Quotes[0].Bid, 1e-9)
}

func TestBars_载荷生成(t *testing.T) {
	adapter := New()
	symbols, err := core.ParseSymbols([]string{"MSFT"})
	require.NoError(t, err)
	req, srcErr := source.NewBarsRequest(symbols[0], core.Interval5m, 10)
	require.Nil(t, srcErr)

	series, barsErr := adapter.Bars(context.Background(), req)
	require.NoError(t, barsErr)
	require.Len(t, series.Bars, 10)
	assert.Equal(t, core.Interval5m, series.Interval)
}

func TestSearch_目录检索(t *testing.T) {
	adapter := New()
	req, srcErr := source.NewSearchRequest("meta", 5)
	require.Nil(t, srcErr)

	batch, err := adapter.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, batch.Instruments, 1)
	assert.Equal(t, core.Symbol("META"), batch.Instruments[0].Symbol)
}

func TestCapabilities(t *testing.T) {
	adapter := New()

	assert.Equal(t, ProviderID, adapter.Identity())
	assert.Equal(t, source.FullCapabilities(), adapter.Capabilities())
	assert.Equal(t, uint16(70), adapter.Health(context.Background()).Score)
}
