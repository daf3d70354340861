package warehouse

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"

	"finx/pkg/core"
	"finx/pkg/logger"
)

// InfluxConfig InfluxDB仓储配置
type InfluxConfig struct {
	URL    string `mapstructure:"url"`    // InfluxDB地址
	Token  string `mapstructure:"token"`  // 访问令牌
	Org    string `mapstructure:"org"`    // 组织名
	Bucket string `mapstructure:"bucket"` // 数据桶
}

// InfluxSink 基于InfluxDB的时序仓储实现。
// 写入路径由熔断器保护：后端连续失败后写入会被快速拒绝，
// 避免采集任务阻塞在不可用的仓储上。
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cb       *gobreaker.CircuitBreaker
	log      *logger.Entry
}

// NewInfluxSink 创建InfluxDB仓储并校验后端健康状态
func NewInfluxSink(ctx context.Context, config InfluxConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(config.URL, config.Token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, NewWarehouseError(ErrSinkUnavailable,
			fmt.Sprintf("failed to connect to InfluxDB: %v", err))
	}
	if health.Status != "pass" {
		client.Close()
		return nil, NewWarehouseError(ErrSinkUnavailable,
			fmt.Sprintf("InfluxDB health check failed: %s", health.Status))
	}

	log := logger.WithComponent("warehouse")
	settings := gobreaker.Settings{
		Name:    "influx-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("仓储熔断器 %s 状态从 %v 变更为 %v", name, from, to)
		},
	}

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(config.Org, config.Bucket),
		cb:       gobreaker.NewCircuitBreaker(settings),
		log:      log,
	}, nil
}

func (s *InfluxSink) writePoints(ctx context.Context, points []*write.Point) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.writeAPI.WritePoint(ctx, points...)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return NewWarehouseError(ErrSinkUnavailable, "warehouse circuit breaker is open")
	}
	if err != nil {
		return NewWarehouseError(ErrWriteFailed,
			fmt.Sprintf("failed to write points to InfluxDB: %v", err))
	}
	return nil
}

// WriteQuotes 写入一批实时报价
func (s *InfluxSink) WriteQuotes(ctx context.Context, record Record, quotes []core.Quote) error {
	if err := record.Validate(); err != nil {
		return err
	}

	points := make([]*write.Point, 0, len(quotes))
	for _, quote := range quotes {
		point := influxdb2.NewPointWithMeasurement("quote").
			AddTag("symbol", string(quote.Symbol)).
			AddTag("provider", string(record.Provider)).
			AddTag("currency", quote.Currency).
			AddField("price", quote.Price).
			AddField("bid", quote.Bid).
			AddField("ask", quote.Ask).
			AddField("volume", quote.Volume).
			AddField("request_id", record.RequestID).
			AddField("latency_ms", record.LatencyMS).
			SetTime(quote.AsOf)
		points = append(points, point)
	}

	if err := s.writePoints(ctx, points); err != nil {
		return err
	}
	s.log.Debugf("已写入 %d 条报价 (provider=%s)", len(points), record.Provider)
	return nil
}

// WriteBars 写入一段K线序列
func (s *InfluxSink) WriteBars(ctx context.Context, record Record, series *core.BarSeries) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if series == nil {
		return NewWarehouseError(ErrInvalidRecord, "bar series must not be nil")
	}

	points := make([]*write.Point, 0, len(series.Bars))
	for _, bar := range series.Bars {
		point := influxdb2.NewPointWithMeasurement("bar").
			AddTag("symbol", string(series.Symbol)).
			AddTag("provider", string(record.Provider)).
			AddTag("interval", string(series.Interval)).
			AddField("open", bar.Open).
			AddField("high", bar.High).
			AddField("low", bar.Low).
			AddField("close", bar.Close).
			AddField("volume", bar.Volume).
			AddField("vwap", bar.VWAP).
			AddField("request_id", record.RequestID).
			SetTime(bar.Timestamp)
		points = append(points, point)
	}

	if err := s.writePoints(ctx, points); err != nil {
		return err
	}
	s.log.Debugf("已写入 %d 根K线 (symbol=%s interval=%s)", len(points), series.Symbol, series.Interval)
	return nil
}

// WriteFundamentals 写入一批基本面快照
func (s *InfluxSink) WriteFundamentals(ctx context.Context, record Record, fundamentals []core.Fundamental) error {
	if err := record.Validate(); err != nil {
		return err
	}

	points := make([]*write.Point, 0, len(fundamentals))
	for _, fundamental := range fundamentals {
		point := influxdb2.NewPointWithMeasurement("fundamental").
			AddTag("symbol", string(fundamental.Symbol)).
			AddTag("provider", string(record.Provider)).
			AddField("market_cap", fundamental.MarketCap).
			AddField("pe_ratio", fundamental.PERatio).
			AddField("dividend_yield", fundamental.DividendYield).
			AddField("request_id", record.RequestID).
			SetTime(fundamental.AsOf)
		points = append(points, point)
	}

	if err := s.writePoints(ctx, points); err != nil {
		return err
	}
	s.log.Debugf("已写入 %d 条基本面快照 (provider=%s)", len(points), record.Provider)
	return nil
}

// Flush 阻塞式写入无本地缓冲，直接返回
func (s *InfluxSink) Flush() {}

// Close 关闭InfluxDB连接
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
