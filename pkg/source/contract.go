package source

import (
	"context"

	"finx/pkg/core"
)

// QuoteBatch 归一化的行情批次
type QuoteBatch struct {
	Quotes []core.Quote `json:"quotes"`
}

// FundamentalsBatch 归一化的基本面批次
type FundamentalsBatch struct {
	Fundamentals []core.Fundamental `json:"fundamentals"`
}

// SearchBatch 归一化的检索结果批次
type SearchBatch struct {
	Query       string            `json:"query"`
	Instruments []core.Instrument `json:"instruments"`
}

// DataSource 所有提供商适配器实现的多态能力契约。
//
// 数据获取方法可能阻塞在网络I/O上，必须响应ctx取消；
// 失败时必须返回 *SourceError，绝不外泄原始传输错误，
// 调用方只按错误分类分支，不感知提供商内部类型。
// Identity/Capabilities 是纯内存查询，构造后不变。
type DataSource interface {
	// Identity 返回提供商标识
	Identity() ProviderIdentity

	// Capabilities 返回支持的端点矩阵
	Capabilities() CapabilitySet

	// Quote 获取一批标的的最新行情
	Quote(ctx context.Context, req *QuoteRequest) (*QuoteBatch, error)

	// Bars 获取单个标的的K线序列
	Bars(ctx context.Context, req *BarsRequest) (*core.BarSeries, error)

	// Fundamentals 获取一批标的的基本面数据
	Fundamentals(ctx context.Context, req *FundamentalsRequest) (*FundamentalsBatch, error)

	// Search 按关键字检索标的
	Search(ctx context.Context, req *SearchRequest) (*SearchBatch, error)

	// Health 返回当前健康状态，每次调用重新评估
	Health(ctx context.Context) HealthStatus
}
