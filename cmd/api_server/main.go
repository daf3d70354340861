package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"finx/pkg/cache"
	"finx/pkg/config"
	"finx/pkg/envelope"
	"finx/pkg/logger"
	"finx/pkg/provider/registry"
	"finx/pkg/service"
	"finx/pkg/source"
	"finx/pkg/warehouse"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (例如 ./config/finx.yaml)")
	logLevel   = flag.String("log-level", "", "日志级别，覆盖配置文件 (debug, info, warn, error)")
	ginMode    = flag.String("gin-mode", gin.ReleaseMode, "gin运行模式 (debug, release, test)")
)

// APIServer 行情查询HTTP服务
type APIServer struct {
	svc    *service.MarketService
	cache  cache.Cache
	sink   warehouse.Sink
	server *http.Server
	log    *logger.Entry
}

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
	log := logger.WithComponent("api_server")

	gin.SetMode(*ginMode)

	server, err := NewAPIServer(cfg)
	if err != nil {
		log.WithError(err).Fatal("创建API服务失败")
	}
	defer server.Close()

	if err := server.Start(cfg.Server); err != nil {
		log.WithError(err).Fatal("启动API服务失败")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("正在关闭API服务...")
	server.Stop()
}

// NewAPIServer 按配置组装路由器、缓存、仓储与服务门面
func NewAPIServer(cfg *config.Config) (*APIServer, error) {
	adapters, err := registry.Build(cfg)
	if err != nil {
		return nil, err
	}
	router := source.NewSourceRouter(adapters...)

	responseCache, err := buildCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	sink, err := buildSink(cfg.Warehouse)
	if err != nil {
		return nil, err
	}

	svc := service.New(router, service.Options{
		Cache:    responseCache,
		Sink:     sink,
		CacheTTL: cfg.Cache.TTL,
	})

	return &APIServer{
		svc:   svc,
		cache: responseCache,
		sink:  sink,
		log:   logger.WithComponent("api_server"),
	}, nil
}

func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "memory":
		return cache.NewMemoryCache(cache.MemoryCacheConfig{
			MaxSize:         int64(cfg.MaxSize),
			DefaultTTL:      cfg.TTL,
			CleanupInterval: time.Minute,
		}), nil
	case "redis":
		return cache.NewRedisCache(context.Background(), cache.RedisCacheConfig{
			URL:        cfg.RedisURL,
			DefaultTTL: cfg.TTL,
		})
	default:
		return nil, nil
	}
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

// Start 注册路由并启动HTTP服务
func (s *APIServer) Start(cfg config.ServerConfig) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	router.GET("/health", s.health)
	router.GET("/stats", s.stats)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/quote", s.getQuote)
		v1.GET("/bars", s.getBars)
		v1.GET("/fundamentals", s.getFundamentals)
		v1.GET("/search", s.getSearch)
		v1.GET("/sources", s.getSources)
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.log.WithField("addr", cfg.Addr).Info("API服务启动")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP服务异常退出")
		}
	}()
	return nil
}

// Stop 优雅关闭HTTP服务并等待异步落盘完成
func (s *APIServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("HTTP服务关闭失败")
	}
	s.svc.Close()
}

// Close 释放缓存与仓储资源
func (s *APIServer) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.sink != nil {
		_ = s.sink.Close()
	}
}

func (s *APIServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func (s *APIServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	snapshots := s.svc.Router().Snapshots(ctx)
	available := 0
	for _, snapshot := range snapshots {
		if snapshot.Available() {
			available++
		}
	}

	status := "ok"
	code := http.StatusOK
	if available == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":            status,
		"timestamp":         time.Now().UTC(),
		"sources_total":     len(snapshots),
		"sources_available": available,
	})
}

func (s *APIServer) stats(c *gin.Context) {
	payload := gin.H{}
	if s.cache != nil {
		payload["cache"] = s.cache.Stats()
	}
	if memSink, ok := s.sink.(*warehouse.MemorySink); ok {
		payload["warehouse"] = memSink.Stats()
	}
	c.JSON(http.StatusOK, payload)
}

// write 按服务层结果选择HTTP状态码：
// 参数错误 400，全链路失败 502，其余 200。
func (s *APIServer) write(c *gin.Context, env *envelope.Envelope, err error) {
	if err != nil {
		var svcErr *service.ServiceError
		if errors.As(err, &svcErr) && svcErr.Code == service.ErrInvalidParams {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_params", "message": svcErr.Message})
			return
		}
		s.log.WithError(err).Error("请求处理失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
		return
	}

	status := http.StatusOK
	if env.Data == nil && len(env.Errors) > 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, env)
}

func (s *APIServer) getQuote(c *gin.Context) {
	env, err := s.svc.Quote(c.Request.Context(), service.QuoteParams{
		Symbols:  splitSymbols(c.Query("symbols")),
		Strategy: c.Query("strategy"),
		TraceID:  c.Query("trace_id"),
	})
	s.write(c, env, err)
}

func (s *APIServer) getBars(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	env, err := s.svc.Bars(c.Request.Context(), service.BarsParams{
		Symbol:   c.Query("symbol"),
		Interval: c.DefaultQuery("interval", "1d"),
		Limit:    limit,
		Strategy: c.Query("strategy"),
		TraceID:  c.Query("trace_id"),
	})
	s.write(c, env, err)
}

func (s *APIServer) getFundamentals(c *gin.Context) {
	env, err := s.svc.Fundamentals(c.Request.Context(), service.FundamentalsParams{
		Symbols:  splitSymbols(c.Query("symbols")),
		Strategy: c.Query("strategy"),
		TraceID:  c.Query("trace_id"),
	})
	s.write(c, env, err)
}

func (s *APIServer) getSearch(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	env, err := s.svc.Search(c.Request.Context(), service.SearchParams{
		Query:    c.Query("query"),
		Limit:    limit,
		Strategy: c.Query("strategy"),
		TraceID:  c.Query("trace_id"),
	})
	s.write(c, env, err)
}

func (s *APIServer) getSources(c *gin.Context) {
	env, err := s.svc.Sources(c.Request.Context(), c.Query("trace_id"))
	s.write(c, env, err)
}

func splitSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}
