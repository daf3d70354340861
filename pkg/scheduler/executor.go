package scheduler

import (
	"context"
	"fmt"

	"finx/pkg/config"
	"finx/pkg/envelope"
	"finx/pkg/logger"
	"finx/pkg/service"
	"finx/pkg/source"
)

// CollectExecutor 把采集任务转发给行情服务。
// 成功的响应由服务层负责落盘，执行器只关心任务是否取到了数据。
type CollectExecutor struct {
	svc *service.MarketService
	log *logger.Entry
}

// NewCollectExecutor 创建采集执行器
func NewCollectExecutor(svc *service.MarketService) *CollectExecutor {
	return &CollectExecutor{
		svc: svc,
		log: logger.WithComponent("collector"),
	}
}

// Execute 按任务端点调用对应的服务操作
func (e *CollectExecutor) Execute(ctx context.Context, job *Job) error {
	cfg := job.Config
	var (
		env *envelope.Envelope
		err error
	)

	switch source.Endpoint(cfg.Endpoint) {
	case source.EndpointQuote:
		env, err = e.svc.Quote(ctx, service.QuoteParams{Symbols: cfg.Symbols, Strategy: cfg.Strategy})
	case source.EndpointBars:
		for _, symbol := range cfg.Symbols {
			env, err = e.svc.Bars(ctx, service.BarsParams{
				Symbol:   symbol,
				Interval: cfg.Interval,
				Limit:    cfg.Limit,
				Strategy: cfg.Strategy,
			})
			if err != nil || env.Data == nil {
				break
			}
		}
	case source.EndpointFundamentals:
		env, err = e.svc.Fundamentals(ctx, service.FundamentalsParams{Symbols: cfg.Symbols, Strategy: cfg.Strategy})
	default:
		return fmt.Errorf("不支持的采集端点: %s", cfg.Endpoint)
	}

	if err != nil {
		return err
	}
	if env.Data == nil {
		return fmt.Errorf("采集无可用数据 (request_id=%s errors=%d)", env.Meta.RequestID, len(env.Errors))
	}

	e.log.Debugf("采集完成 (job=%s request_id=%s sources=%v)", cfg.Name, env.Meta.RequestID, env.Meta.SourceChain)
	return nil
}

// JobsFromConfig 把全局配置中的观察列表展开为任务列表。
// 每个端点生成一个任务，共用同一份观察列表与cron表达式。
func JobsFromConfig(cfg config.SchedulerConfig) []JobConfig {
	jobs := make([]JobConfig, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		job := JobConfig{
			Name:     fmt.Sprintf("watchlist-%s", endpoint),
			Enabled:  cfg.Enabled,
			Schedule: cfg.CronSpec,
			Endpoint: endpoint,
			Symbols:  cfg.Watchlist,
		}
		if endpoint == string(source.EndpointBars) {
			job.Interval = "1m"
			job.Limit = 60
		}
		jobs = append(jobs, job)
	}
	return jobs
}
