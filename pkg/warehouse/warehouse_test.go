package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/core"
)

func testRecord() Record {
	return Record{
		Provider:  "polygon",
		RequestID: "req-12345678",
		LatencyMS: 12,
		FetchedAt: time.Now(),
	}
}

func TestMemorySink_写入报价(t *testing.T) {
	sink := NewMemorySink()
	quote, err := core.NewQuote("AAPL", 101.5, 101.4, 101.6, 1200, "USD", time.Now())
	require.NoError(t, err)

	require.NoError(t, sink.WriteQuotes(context.Background(), testRecord(), []core.Quote{quote}))

	rows := sink.Quotes()
	require.Len(t, rows, 1)
	assert.Equal(t, core.Symbol("AAPL"), rows[0].Quote.Symbol)
	assert.Equal(t, "req-12345678", rows[0].Record.RequestID)

	stats := sink.Stats()
	assert.Equal(t, int64(1), stats.QuoteRows)
	assert.False(t, stats.LastWrite.IsZero())
}

func TestMemorySink_写入K线展开为行(t *testing.T) {
	sink := NewMemorySink()
	ts := time.Now()
	bar1, err := core.NewBar(ts, 100, 101, 99, 100.5, 500, 100.2)
	require.NoError(t, err)
	bar2, err := core.NewBar(ts.Add(time.Minute), 100.5, 102, 100, 101.5, 600, 101.0)
	require.NoError(t, err)

	series := &core.BarSeries{Symbol: "MSFT", Interval: core.Interval1m, Bars: []core.Bar{bar1, bar2}}
	require.NoError(t, sink.WriteBars(context.Background(), testRecord(), series))

	rows := sink.Bars()
	require.Len(t, rows, 2)
	assert.Equal(t, core.Interval1m, rows[0].Interval)
	assert.Equal(t, int64(2), sink.Stats().BarRows)
}

func TestMemorySink_写入基本面(t *testing.T) {
	sink := NewMemorySink()
	fundamental := core.Fundamental{Symbol: "NVDA", AsOf: time.Now(), MarketCap: 1e12, PERatio: 40, DividendYield: 0.001}

	require.NoError(t, sink.WriteFundamentals(context.Background(), testRecord(), []core.Fundamental{fundamental}))

	rows := sink.Fundamentals()
	require.Len(t, rows, 1)
	assert.Equal(t, core.Symbol("NVDA"), rows[0].Fundamental.Symbol)
}

func TestMemorySink_元数据校验(t *testing.T) {
	sink := NewMemorySink()

	err := sink.WriteQuotes(context.Background(), Record{RequestID: "req-12345678"}, nil)
	var warehouseErr *WarehouseError
	require.ErrorAs(t, err, &warehouseErr)
	assert.Equal(t, ErrInvalidRecord, warehouseErr.Code)

	err = sink.WriteQuotes(context.Background(), Record{Provider: "polygon"}, nil)
	require.ErrorAs(t, err, &warehouseErr)

	err = sink.WriteBars(context.Background(), testRecord(), nil)
	require.ErrorAs(t, err, &warehouseErr)
	assert.Equal(t, ErrInvalidRecord, warehouseErr.Code)
}

func TestMemorySink_关闭后拒绝写入(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Close())

	err := sink.WriteQuotes(context.Background(), testRecord(), nil)
	var warehouseErr *WarehouseError
	require.ErrorAs(t, err, &warehouseErr)
	assert.Equal(t, ErrSinkClosed, warehouseErr.Code)
}

func TestMemorySink_快照为副本(t *testing.T) {
	sink := NewMemorySink()
	quote, err := core.NewQuote("SPY", 450.0, 449.9, 450.1, 900, "USD", time.Now())
	require.NoError(t, err)
	require.NoError(t, sink.WriteQuotes(context.Background(), testRecord(), []core.Quote{quote}))

	rows := sink.Quotes()
	rows[0].Quote.Price = 0

	assert.Equal(t, 450.0, sink.Quotes()[0].Quote.Price, "外部修改不应影响内部数据")
}
