// collector 定时采集观察列表的行情并写入仓储。
// 任务来自配置文件的 scheduler 段，或通过 -jobs 指定的任务清单文件。
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"finx/pkg/cache"
	"finx/pkg/config"
	"finx/pkg/logger"
	"finx/pkg/provider/registry"
	"finx/pkg/scheduler"
	"finx/pkg/service"
	"finx/pkg/source"
	"finx/pkg/warehouse"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	jobsPath   = flag.String("jobs", "", "任务清单文件路径（可选，覆盖 scheduler 段的观察列表）")
	logLevel   = flag.String("log-level", "", "日志级别，覆盖配置文件")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.WithComponent("collector")

	adapters, err := registry.Build(cfg)
	if err != nil {
		log.WithError(err).Fatal("组装数据源失败")
	}

	sink, err := buildSink(cfg.Warehouse)
	if err != nil {
		log.WithError(err).Fatal("创建仓储失败")
	}
	if sink == nil {
		log.Fatal("采集器需要可用的仓储后端 (memory 或 influxdb)")
	}
	defer sink.Close()

	svc := service.New(source.NewSourceRouter(adapters...), service.Options{
		Cache: cache.NewMemoryCache(cache.MemoryCacheConfig{
			MaxSize:    int64(cfg.Cache.MaxSize),
			DefaultTTL: cfg.Cache.TTL,
		}),
		Sink:     sink,
		CacheTTL: cfg.Cache.TTL,
	})
	defer svc.Close()

	sched := scheduler.New()
	sched.SetExecutor(scheduler.NewCollectExecutor(svc))

	if *jobsPath != "" {
		if err := sched.LoadConfig(*jobsPath); err != nil {
			log.WithError(err).Fatal("加载任务清单失败")
		}
	} else {
		for _, job := range scheduler.JobsFromConfig(cfg.Scheduler) {
			if err := sched.AddJob(job); err != nil {
				log.WithError(err).Warnf("添加任务失败: %s", job.Name)
			}
		}
	}

	if len(sched.GetAllJobs()) == 0 {
		log.Fatal("没有可调度的采集任务")
	}

	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("启动调度器失败")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("正在关闭采集器...")
	if err := sched.Stop(); err != nil {
		log.WithError(err).Error("停止调度器失败")
	}
	sink.Flush()
}

func buildSink(cfg config.WarehouseConfig) (warehouse.Sink, error) {
	switch cfg.Type {
	case "memory":
		return warehouse.NewMemorySink(), nil
	case "influxdb":
		return warehouse.NewInfluxSink(context.Background(), warehouse.InfluxConfig{
			URL:    cfg.InfluxDBURL,
			Token:  cfg.Token,
			Org:    cfg.Org,
			Bucket: cfg.Bucket,
		})
	default:
		return nil, nil
	}
}
