// Package warehouse 将路由层获取的规范化行情落入时序仓储。
// 内存实现用于测试与单机演练，InfluxDB实现用于生产采集。
package warehouse

import (
	"context"
	"strings"
	"time"

	"finx/pkg/core"
	"finx/pkg/source"
)

// Record 一次写入的公共元数据，标记数据来自哪个提供商与哪次请求。
type Record struct {
	Provider  source.ProviderIdentity // 数据提供商
	RequestID string                  // 触发本次获取的请求ID
	LatencyMS int64                   // 端到端获取耗时（毫秒）
	FetchedAt time.Time               // 数据获取时间
}

// Validate 校验写入元数据是否完整
func (r Record) Validate() error {
	if strings.TrimSpace(string(r.Provider)) == "" {
		return NewWarehouseError(ErrInvalidRecord, "warehouse record requires a provider")
	}
	if strings.TrimSpace(r.RequestID) == "" {
		return NewWarehouseError(ErrInvalidRecord, "warehouse record requires a request id")
	}
	return nil
}

// Sink 定义了行情仓储的写入行为。
// 实现必须可以被多个goroutine并发调用。
type Sink interface {
	// WriteQuotes 写入一批实时报价。
	WriteQuotes(ctx context.Context, record Record, quotes []core.Quote) error
	// WriteBars 写入一段K线序列。
	WriteBars(ctx context.Context, record Record, series *core.BarSeries) error
	// WriteFundamentals 写入一批基本面快照。
	WriteFundamentals(ctx context.Context, record Record, fundamentals []core.Fundamental) error
	// Flush 将缓冲中的数据推送到后端。
	Flush()
	// Close 关闭仓储连接并释放所有资源。
	Close() error
}

// SinkStats 仓储写入统计
type SinkStats struct {
	QuoteRows       int64     `json:"quote_rows"`       // 已写入的报价行数
	BarRows         int64     `json:"bar_rows"`         // 已写入的K线行数
	FundamentalRows int64     `json:"fundamental_rows"` // 已写入的基本面行数
	WriteErrors     int64     `json:"write_errors"`     // 写入失败次数
	LastWrite       time.Time `json:"last_write"`       // 最后一次成功写入时间
}
