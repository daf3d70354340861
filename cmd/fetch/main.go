// fetch 是一次性行情获取CLI：
//
//	fetch -endpoint quote -symbols AAPL,MSFT
//	fetch -endpoint bars -symbols SPY -interval 1h -limit 24 -strategy strict:polygon
//	fetch -endpoint sources
//
// 结果以响应信封的JSON形式打印到标准输出。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"finx/pkg/config"
	"finx/pkg/envelope"
	"finx/pkg/logger"
	"finx/pkg/provider/registry"
	"finx/pkg/service"
	"finx/pkg/source"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	endpoint   = flag.String("endpoint", "quote", "数据端点 (quote, bars, fundamentals, search, sources)")
	symbols    = flag.String("symbols", "", "标的列表，逗号分隔")
	interval   = flag.String("interval", "1d", "K线周期 (1m, 5m, 15m, 1h, 1d)")
	limit      = flag.Int("limit", 100, "K线数量或检索条数上限")
	query      = flag.String("query", "", "检索关键词")
	strategy   = flag.String("strategy", "auto", "路由策略 (auto, strict:<provider>, priority:a,b)")
	timeout    = flag.Duration("timeout", 15*time.Second, "请求超时")
	logLevel   = flag.String("log-level", "warn", "日志级别")
)

func main() {
	flag.Parse()

	logger.Init(logger.Config{Level: *logLevel, Format: "text"})
	log := logger.WithComponent("fetch")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	adapters, err := registry.Build(cfg)
	if err != nil {
		log.Errorf("组装数据源失败: %v", err)
		os.Exit(1)
	}
	svc := service.New(source.NewSourceRouter(adapters...), service.Options{})
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	env, err := run(ctx, svc)
	if err != nil {
		log.Errorf("请求失败: %v", err)
		os.Exit(1)
	}

	output, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		log.Errorf("序列化响应失败: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(output))

	if env.Data == nil && len(env.Errors) > 0 {
		os.Exit(2)
	}
}

func run(ctx context.Context, svc *service.MarketService) (*envelope.Envelope, error) {
	switch *endpoint {
	case "quote":
		return svc.Quote(ctx, service.QuoteParams{
			Symbols:  splitList(*symbols),
			Strategy: *strategy,
		})
	case "bars":
		symbolList := splitList(*symbols)
		if len(symbolList) != 1 {
			return nil, fmt.Errorf("bars 端点需要恰好一个标的")
		}
		return svc.Bars(ctx, service.BarsParams{
			Symbol:   symbolList[0],
			Interval: *interval,
			Limit:    *limit,
			Strategy: *strategy,
		})
	case "fundamentals":
		return svc.Fundamentals(ctx, service.FundamentalsParams{
			Symbols:  splitList(*symbols),
			Strategy: *strategy,
		})
	case "search":
		return svc.Search(ctx, service.SearchParams{
			Query:    *query,
			Limit:    *limit,
			Strategy: *strategy,
		})
	case "sources":
		return svc.Sources(ctx, "")
	default:
		return nil, fmt.Errorf("未知端点: %s", *endpoint)
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
