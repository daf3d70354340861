package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Interval K线周期
type Interval string

const (
	Interval1m  Interval = "1m"  // 1分钟
	Interval5m  Interval = "5m"  // 5分钟
	Interval15m Interval = "15m" // 15分钟
	Interval1h  Interval = "1h"  // 1小时
	Interval1d  Interval = "1d"  // 1天
)

// ParseInterval 解析K线周期字符串
func ParseInterval(value string) (Interval, error) {
	switch Interval(strings.TrimSpace(value)) {
	case Interval1m, Interval5m, Interval15m, Interval1h, Interval1d:
		return Interval(strings.TrimSpace(value)), nil
	default:
		return "", NewValidationError(ErrInvalidInterval,
			fmt.Sprintf("invalid interval %q, expected one of 1m, 5m, 15m, 1h, 1d", value))
	}
}

// Duration 返回一个周期对应的时间跨度
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// AssetClass 标的资产类别
type AssetClass string

const (
	AssetEquity AssetClass = "equity" // 股票
	AssetETF    AssetClass = "etf"    // ETF
	AssetIndex  AssetClass = "index"  // 指数
	AssetCrypto AssetClass = "crypto" // 加密货币
	AssetForex  AssetClass = "forex"  // 外汇
	AssetFund   AssetClass = "fund"   // 基金
	AssetOther  AssetClass = "other"  // 其他
)

// Quote 规范化后的实时报价
type Quote struct {
	Symbol   Symbol    `json:"symbol"`             // 股票代码
	Price    float64   `json:"price"`              // 最新成交价
	Bid      float64   `json:"bid,omitempty"`      // 买一价
	Ask      float64   `json:"ask,omitempty"`      // 卖一价
	Volume   int64     `json:"volume,omitempty"`   // 成交量
	Currency string    `json:"currency"`           // 货币代码
	AsOf     time.Time `json:"as_of"`              // 报价时间
}

// NewQuote 创建并校验一条报价记录
func NewQuote(symbol Symbol, price, bid, ask float64, volume int64, currency string, asOf time.Time) (Quote, error) {
	if err := validateNonNegative("price", price); err != nil {
		return Quote{}, err
	}
	if err := validateNonNegative("bid", bid); err != nil {
		return Quote{}, err
	}
	if err := validateNonNegative("ask", ask); err != nil {
		return Quote{}, err
	}
	cur, err := validateCurrency(currency)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Symbol:   symbol,
		Price:    price,
		Bid:      bid,
		Ask:      ask,
		Volume:   volume,
		Currency: cur,
		AsOf:     asOf,
	}, nil
}

// Bar 单个周期内的OHLCV数据
type Bar struct {
	Timestamp time.Time `json:"timestamp"`      // 周期起始时间
	Open      float64   `json:"open"`           // 开盘价
	High      float64   `json:"high"`           // 最高价
	Low       float64   `json:"low"`            // 最低价
	Close     float64   `json:"close"`          // 收盘价
	Volume    int64     `json:"volume"`         // 成交量
	VWAP      float64   `json:"vwap,omitempty"` // 成交量加权均价
}

// NewBar 创建并校验一根K线。
// 要求 high >= low 且 open/close 落在 [low, high] 区间内。
func NewBar(ts time.Time, open, high, low, close float64, volume int64, vwap float64) (Bar, error) {
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"open", open}, {"high", high}, {"low", low}, {"close", close}, {"vwap", vwap},
	} {
		if err := validateNonNegative(field.name, field.value); err != nil {
			return Bar{}, err
		}
	}

	if high < low {
		return Bar{}, NewValidationError(ErrInvalidBarRange, "bar high must be >= low")
	}
	if open < low || open > high || close < low || close > high {
		return Bar{}, NewValidationError(ErrInvalidBarRange, "bar open/close must be within high/low range")
	}

	return Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		VWAP:      vwap,
	}, nil
}

// BarSeries 某个标的在某个周期下的K线序列
type BarSeries struct {
	Symbol   Symbol   `json:"symbol"`   // 股票代码
	Interval Interval `json:"interval"` // K线周期
	Bars     []Bar    `json:"bars"`     // 按时间升序排列的K线
}

// Fundamental 单个标的的基本面快照
type Fundamental struct {
	Symbol        Symbol    `json:"symbol"`                   // 股票代码
	AsOf          time.Time `json:"as_of"`                    // 快照时间
	MarketCap     float64   `json:"market_cap,omitempty"`     // 总市值
	PERatio       float64   `json:"pe_ratio,omitempty"`       // 市盈率
	DividendYield float64   `json:"dividend_yield,omitempty"` // 股息率
}

// Instrument 证券主数据
type Instrument struct {
	Symbol     Symbol     `json:"symbol"`             // 股票代码
	Name       string     `json:"name"`               // 证券名称
	Exchange   string     `json:"exchange,omitempty"` // 交易所
	Currency   string     `json:"currency"`           // 货币代码
	AssetClass AssetClass `json:"asset_class"`        // 资产类别
	IsActive   bool       `json:"is_active"`          // 是否仍在交易
}

func validateNonNegative(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewValidationError(ErrInvalidValue,
			fmt.Sprintf("field %q must be finite", field))
	}
	if value < 0 {
		return NewValidationError(ErrInvalidValue,
			fmt.Sprintf("field %q must be non-negative", field))
	}
	return nil
}

func validateCurrency(currency string) (string, error) {
	if len(currency) != 3 {
		return "", NewValidationError(ErrInvalidCurrency,
			fmt.Sprintf("currency must be a 3-letter uppercase ISO code: %q", currency))
	}
	for i := 0; i < len(currency); i++ {
		if currency[i] < 'A' || currency[i] > 'Z' {
			return "", NewValidationError(ErrInvalidCurrency,
				fmt.Sprintf("currency must be a 3-letter uppercase ISO code: %q", currency))
		}
	}
	return currency, nil
}
