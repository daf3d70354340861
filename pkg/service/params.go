package service

// QuoteParams 实时报价请求参数
type QuoteParams struct {
	Symbols  []string `json:"symbols" form:"symbols"`   // 标的列表
	Strategy string   `json:"strategy" form:"strategy"` // 路由策略文本，如 auto / strict:polygon / priority:a,b
	TraceID  string   `json:"trace_id" form:"trace_id"` // 可选的调用方追踪ID
}

// BarsParams K线请求参数
type BarsParams struct {
	Symbol   string `json:"symbol" form:"symbol"`     // 单个标的
	Interval string `json:"interval" form:"interval"` // K线周期，如 1m / 1h / 1d
	Limit    int    `json:"limit" form:"limit"`       // 返回的K线数量
	Strategy string `json:"strategy" form:"strategy"`
	TraceID  string `json:"trace_id" form:"trace_id"`
}

// FundamentalsParams 基本面请求参数
type FundamentalsParams struct {
	Symbols  []string `json:"symbols" form:"symbols"`
	Strategy string   `json:"strategy" form:"strategy"`
	TraceID  string   `json:"trace_id" form:"trace_id"`
}

// SearchParams 标的检索请求参数
type SearchParams struct {
	Query    string `json:"query" form:"query"` // 检索关键词
	Limit    int    `json:"limit" form:"limit"` // 返回条数上限
	Strategy string `json:"strategy" form:"strategy"`
	TraceID  string `json:"trace_id" form:"trace_id"`
}
