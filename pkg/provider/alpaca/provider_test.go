package alpaca

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/core"
	"finx/pkg/source"
)

func TestCapabilities_不支持基本面与检索(t *testing.T) {
	adapter := New()

	caps := adapter.Capabilities()
	assert.True(t, caps.Quote)
	assert.True(t, caps.Bars)
	assert.False(t, caps.Fundamentals)
	assert.False(t, caps.Search)

	symbols, err := core.ParseSymbols([]string{"AAPL"})
	require.NoError(t, err)
	fundReq, srcErr := source.NewFundamentalsRequest(symbols)
	require.Nil(t, srcErr)

	_, fundErr := adapter.Fundamentals(context.Background(), fundReq)
	var sourceErr *source.SourceError
	require.ErrorAs(t, fundErr, &sourceErr)
	assert.Equal(t, source.KindUnsupportedEndpoint, sourceErr.Kind)
	assert.False(t, sourceErr.Retryable)

	searchReq, srcErr := source.NewSearchRequest("apple", 5)
	require.Nil(t, srcErr)
	_, searchErr := adapter.Search(context.Background(), searchReq)
	require.ErrorAs(t, searchErr, &sourceErr)
	assert.Equal(t, source.KindUnsupportedEndpoint, sourceErr.Kind)
}

func TestQuote_确定性载荷(t *testing.T) {
	adapter := New()
	symbols, err := core.ParseSymbols([]string{"TSLA"})
	require.NoError(t, err)
	req, srcErr := source.NewQuoteRequest(symbols)
	require.Nil(t, srcErr)

	first, quoteErr := adapter.Quote(context.Background(), req)
	require.NoError(t, quoteErr)
	second, quoteErr := adapter.Quote(context.Background(), req)
	require.NoError(t, quoteErr)

	require.Len(t, first.Quotes, 1)
	assert.Equal(t, first.Quotes[0].Price, second.Quotes[0].Price)
	assert.InDelta(t, 0.10, first.Quotes[0].Ask-first.Quotes[0].Bid, 1e-9, "买卖价差应稳定")
}

func TestBars_区间约束(t *testing.T) {
	adapter := New()
	symbols, err := core.ParseSymbols([]string{"SPY"})
	require.NoError(t, err)
	req, srcErr := source.NewBarsRequest(symbols[0], core.Interval1h, 24)
	require.Nil(t, srcErr)

	series, barsErr := adapter.Bars(context.Background(), req)
	require.NoError(t, barsErr)
	require.Len(t, series.Bars, 24)
	for _, bar := range series.Bars {
		assert.GreaterOrEqual(t, bar.High, bar.Open)
		assert.GreaterOrEqual(t, bar.High, bar.Close)
		assert.LessOrEqual(t, bar.Low, bar.Open)
		assert.LessOrEqual(t, bar.Low, bar.Close)
	}
}

func TestIdentity(t *testing.T) {
	adapter := New()

	assert.Equal(t, ProviderID, adapter.Identity())
	assert.Equal(t, uint16(85), adapter.Health(context.Background()).Score)
}
