package warehouse

import (
	"context"
	"sync"
	"time"

	"finx/pkg/core"
)

// QuoteRow 内存仓储中的单条报价记录
type QuoteRow struct {
	Record Record
	Quote  core.Quote
}

// BarRow 内存仓储中的单条K线记录
type BarRow struct {
	Record   Record
	Symbol   core.Symbol
	Interval core.Interval
	Bar      core.Bar
}

// FundamentalRow 内存仓储中的单条基本面记录
type FundamentalRow struct {
	Record      Record
	Fundamental core.Fundamental
}

// MemorySink 进程内仓储实现，保留全部写入行，供测试与演练查询。
type MemorySink struct {
	mu           sync.RWMutex
	closed       bool
	quotes       []QuoteRow
	bars         []BarRow
	fundamentals []FundamentalRow
	stats        SinkStats
}

// NewMemorySink 创建内存仓储
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// WriteQuotes 写入一批实时报价
func (s *MemorySink) WriteQuotes(ctx context.Context, record Record, quotes []core.Quote) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewWarehouseError(ErrSinkClosed, "memory sink is closed")
	}

	for _, quote := range quotes {
		s.quotes = append(s.quotes, QuoteRow{Record: record, Quote: quote})
	}
	s.stats.QuoteRows += int64(len(quotes))
	s.stats.LastWrite = time.Now()
	return nil
}

// WriteBars 写入一段K线序列
func (s *MemorySink) WriteBars(ctx context.Context, record Record, series *core.BarSeries) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if series == nil {
		return NewWarehouseError(ErrInvalidRecord, "bar series must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewWarehouseError(ErrSinkClosed, "memory sink is closed")
	}

	for _, bar := range series.Bars {
		s.bars = append(s.bars, BarRow{
			Record:   record,
			Symbol:   series.Symbol,
			Interval: series.Interval,
			Bar:      bar,
		})
	}
	s.stats.BarRows += int64(len(series.Bars))
	s.stats.LastWrite = time.Now()
	return nil
}

// WriteFundamentals 写入一批基本面快照
func (s *MemorySink) WriteFundamentals(ctx context.Context, record Record, fundamentals []core.Fundamental) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewWarehouseError(ErrSinkClosed, "memory sink is closed")
	}

	for _, fundamental := range fundamentals {
		s.fundamentals = append(s.fundamentals, FundamentalRow{Record: record, Fundamental: fundamental})
	}
	s.stats.FundamentalRows += int64(len(fundamentals))
	s.stats.LastWrite = time.Now()
	return nil
}

// Flush 内存实现无缓冲，直接返回
func (s *MemorySink) Flush() {}

// Close 关闭仓储，之后的写入都会失败
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Quotes 返回已写入报价行的副本
func (s *MemorySink) Quotes() []QuoteRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]QuoteRow, len(s.quotes))
	copy(rows, s.quotes)
	return rows
}

// Bars 返回已写入K线行的副本
func (s *MemorySink) Bars() []BarRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]BarRow, len(s.bars))
	copy(rows, s.bars)
	return rows
}

// Fundamentals 返回已写入基本面行的副本
func (s *MemorySink) Fundamentals() []FundamentalRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]FundamentalRow, len(s.fundamentals))
	copy(rows, s.fundamentals)
	return rows
}

// Stats 返回写入统计快照
func (s *MemorySink) Stats() SinkStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
