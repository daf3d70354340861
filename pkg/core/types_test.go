package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSymbol 测试股票代码解析和规范化
func TestParseSymbol(t *testing.T) {
	symbol, err := ParseSymbol(" aapl ")
	require.NoError(t, err)
	assert.Equal(t, Symbol("AAPL"), symbol)

	symbol, err = ParseSymbol("brk.b")
	require.NoError(t, err)
	assert.Equal(t, Symbol("BRK.B"), symbol)

	// 空代码
	_, err = ParseSymbol("   ")
	assert.Error(t, err)

	// 首字符必须是字母
	_, err = ParseSymbol("1AAPL")
	assert.Error(t, err)

	// 非法字符
	_, err = ParseSymbol("AAPL$")
	assert.Error(t, err)

	// 超长代码
	_, err = ParseSymbol("ABCDEFGHIJKLMNOP")
	assert.Error(t, err)
}

// TestParseSymbols 测试批量解析
func TestParseSymbols(t *testing.T) {
	symbols, err := ParseSymbols([]string{"aapl", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, []Symbol{"AAPL", "MSFT"}, symbols)

	_, err = ParseSymbols([]string{"AAPL", ""})
	assert.Error(t, err, "任何一个代码非法都应该整体失败")
}

// TestParseInterval 测试K线周期解析
func TestParseInterval(t *testing.T) {
	for _, value := range []string{"1m", "5m", "15m", "1h", "1d"} {
		interval, err := ParseInterval(value)
		require.NoError(t, err)
		assert.Equal(t, Interval(value), interval)
	}

	_, err := ParseInterval("2h")
	assert.Error(t, err)
}

// TestNewBar 测试K线校验
func TestNewBar(t *testing.T) {
	now := time.Now()

	bar, err := NewBar(now, 10.0, 11.0, 9.5, 10.5, 1000, 10.2)
	require.NoError(t, err)
	assert.Equal(t, 11.0, bar.High)

	// high < low
	_, err = NewBar(now, 10.0, 9.0, 9.5, 10.5, 1000, 0)
	assert.Error(t, err)

	// open 超出高低区间
	_, err = NewBar(now, 12.0, 11.0, 9.5, 10.5, 1000, 0)
	assert.Error(t, err)

	// 负数价格
	_, err = NewBar(now, -1.0, 11.0, 9.5, 10.5, 1000, 0)
	assert.Error(t, err)
}

// TestNewQuote 测试报价校验
func TestNewQuote(t *testing.T) {
	now := time.Now()

	quote, err := NewQuote("AAPL", 101.5, 101.4, 101.6, 50000, "USD", now)
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)

	// 非法货币代码
	_, err = NewQuote("AAPL", 101.5, 0, 0, 0, "usd", now)
	assert.Error(t, err)

	_, err = NewQuote("AAPL", 101.5, 0, 0, 0, "US", now)
	assert.Error(t, err)

	// 负价格
	_, err = NewQuote("AAPL", -1, 0, 0, 0, "USD", now)
	assert.Error(t, err)
}
