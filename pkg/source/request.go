package source

import (
	"strings"

	"finx/pkg/core"
)

// QuoteRequest 行情快照请求
type QuoteRequest struct {
	Symbols []core.Symbol `json:"symbols"`
}

// NewQuoteRequest 创建行情请求，结构验证在任何网络调用之前完成
func NewQuoteRequest(symbols []core.Symbol) (*QuoteRequest, *SourceError) {
	if len(symbols) == 0 {
		return nil, NewInvalidRequest("quote request must include at least one symbol")
	}
	return &QuoteRequest{Symbols: symbols}, nil
}

// BarsRequest K线请求
type BarsRequest struct {
	Symbol   core.Symbol   `json:"symbol"`
	Interval core.Interval `json:"interval"`
	Limit    int           `json:"limit"`
}

// NewBarsRequest 创建K线请求
func NewBarsRequest(symbol core.Symbol, interval core.Interval, limit int) (*BarsRequest, *SourceError) {
	if limit <= 0 {
		return nil, NewInvalidRequest("bars request limit must be greater than zero")
	}
	return &BarsRequest{Symbol: symbol, Interval: interval, Limit: limit}, nil
}

// FundamentalsRequest 基本面数据请求
type FundamentalsRequest struct {
	Symbols []core.Symbol `json:"symbols"`
}

// NewFundamentalsRequest 创建基本面请求
func NewFundamentalsRequest(symbols []core.Symbol) (*FundamentalsRequest, *SourceError) {
	if len(symbols) == 0 {
		return nil, NewInvalidRequest("fundamentals request must include at least one symbol")
	}
	return &FundamentalsRequest{Symbols: symbols}, nil
}

// SearchRequest 标的检索请求
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// NewSearchRequest 创建检索请求
func NewSearchRequest(query string, limit int) (*SearchRequest, *SourceError) {
	if strings.TrimSpace(query) == "" {
		return nil, NewInvalidRequest("search query must not be empty")
	}
	if limit <= 0 {
		return nil, NewInvalidRequest("search request limit must be greater than zero")
	}
	return &SearchRequest{Query: query, Limit: limit}, nil
}
