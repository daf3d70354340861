package config

import (
	"errors"
	"time"

	"finx/pkg/limiter"
)

// Config 主配置结构
type Config struct {
	// 路由配置
	Router RouterConfig `json:"router" mapstructure:"router"`

	// 提供商配置
	Providers map[string]ProviderConfig `json:"providers" mapstructure:"providers"`

	// 服务端配置
	Server ServerConfig `json:"server" mapstructure:"server"`

	// 缓存配置
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// 数据仓库配置
	Warehouse WarehouseConfig `json:"warehouse" mapstructure:"warehouse"`

	// 定时采集配置
	Scheduler SchedulerConfig `json:"scheduler" mapstructure:"scheduler"`

	// 日志配置
	Logger LoggerConfig `json:"logger" mapstructure:"logger"`
}

// RouterConfig 数据源路由配置
type RouterConfig struct {
	Strategy       string        `json:"strategy" mapstructure:"strategy"`               // 默认路由策略 (auto, priority, strict)
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"` // 单次适配器调用超时
}

// ProviderConfig 单个数据提供商配置
type ProviderConfig struct {
	Enabled bool                    `json:"enabled" mapstructure:"enabled"` // 是否注册该提供商
	APIKey  string                  `json:"api_key" mapstructure:"api_key"` // 上游API密钥
	BaseURL string                  `json:"base_url" mapstructure:"base_url"`
	Timeout time.Duration           `json:"timeout" mapstructure:"timeout"`
	Policy  *limiter.ProviderPolicy `json:"policy,omitempty" mapstructure:"policy"` // 配额与退避策略，nil则使用内置默认
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr         string        `json:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// CacheConfig 响应缓存配置
type CacheConfig struct {
	Type     string        `json:"type" mapstructure:"type"` // 缓存类型 (memory, redis)
	TTL      time.Duration `json:"ttl" mapstructure:"ttl"`
	MaxSize  int           `json:"max_size" mapstructure:"max_size"` // 内存缓存最大条目数
	RedisURL string        `json:"redis_url" mapstructure:"redis_url"`
}

// WarehouseConfig 数据仓库写入配置
type WarehouseConfig struct {
	Type        string `json:"type" mapstructure:"type"` // 仓库类型 (memory, influxdb)
	InfluxDBURL string `json:"influxdb_url" mapstructure:"influxdb_url"`
	Token       string `json:"token" mapstructure:"token"`
	Org         string `json:"org" mapstructure:"org"`
	Bucket      string `json:"bucket" mapstructure:"bucket"`
}

// SchedulerConfig 定时采集配置
type SchedulerConfig struct {
	Enabled   bool     `json:"enabled" mapstructure:"enabled"`
	CronSpec  string   `json:"cron_spec" mapstructure:"cron_spec"`  // cron表达式
	Watchlist []string `json:"watchlist" mapstructure:"watchlist"`  // 定时采集的股票代码
	Endpoints []string `json:"endpoints" mapstructure:"endpoints"`  // 采集的端点 (quote, bars, fundamentals)
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // 日志级别 (debug, info, warn, error)
	Format string `json:"format" mapstructure:"format"` // 输出格式 (text, json)
}

// Default 返回默认配置
func Default() *Config {
	avPolicy := limiter.AlphaVantagePolicy()
	alpacaPolicy := limiter.AlpacaPolicy()
	return &Config{
		Router: RouterConfig{
			Strategy:       "auto",
			RequestTimeout: 15 * time.Second,
		},
		Providers: map[string]ProviderConfig{
			"polygon": {
				Enabled: true,
				BaseURL: "https://api.polygon.io",
				Timeout: 10 * time.Second,
			},
			"alpaca": {
				Enabled: true,
				BaseURL: "https://data.alpaca.markets",
				Timeout: 10 * time.Second,
				Policy:  &alpacaPolicy,
			},
			"alphavantage": {
				Enabled: true,
				BaseURL: "https://www.alphavantage.co",
				Timeout: 15 * time.Second,
				Policy:  &avPolicy,
			},
			"yahoo": {
				Enabled: true,
				BaseURL: "https://query1.finance.yahoo.com",
				Timeout: 10 * time.Second,
			},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Type:    "memory",
			TTL:     5 * time.Second,
			MaxSize: 10000,
		},
		Warehouse: WarehouseConfig{
			Type:        "memory",
			InfluxDBURL: "http://localhost:8086",
			Org:         "finx",
			Bucket:      "market_data",
		},
		Scheduler: SchedulerConfig{
			Enabled:   false,
			CronSpec:  "@every 1m",
			Watchlist: []string{"AAPL", "MSFT", "SPY"},
			Endpoints: []string{"quote"},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Router.Strategy {
	case "auto", "priority", "strict":
	default:
		return errors.New("router strategy must be one of auto, priority, strict")
	}

	if c.Router.RequestTimeout <= 0 {
		return errors.New("router request_timeout must be positive")
	}

	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.Timeout < 0 {
			return errors.New("provider timeout cannot be negative: " + name)
		}
		if p.Policy != nil {
			if err := p.Policy.Validate(); err != nil {
				return err
			}
		}
	}

	switch c.Cache.Type {
	case "memory", "redis", "none":
	default:
		return errors.New("cache type must be one of memory, redis, none")
	}

	if c.Cache.Type == "redis" && c.Cache.RedisURL == "" {
		return errors.New("redis cache requires redis_url")
	}

	switch c.Warehouse.Type {
	case "memory", "influxdb", "none":
	default:
		return errors.New("warehouse type must be one of memory, influxdb, none")
	}

	if c.Warehouse.Type == "influxdb" && c.Warehouse.InfluxDBURL == "" {
		return errors.New("influxdb warehouse requires influxdb_url")
	}

	if c.Scheduler.Enabled && c.Scheduler.CronSpec == "" {
		return errors.New("scheduler requires a cron_spec")
	}

	return nil
}

// SetRequestTimeout 设置适配器调用超时
func (c *Config) SetRequestTimeout(timeout time.Duration) *Config {
	c.Router.RequestTimeout = timeout
	return c
}

// SetLogLevel 设置日志级别
func (c *Config) SetLogLevel(level string) *Config {
	c.Logger.Level = level
	return c
}

// PolicyFor 返回指定提供商的配额策略。
// 优先使用配置中的策略，其次是内置默认策略，都没有则返回nil。
func (c *Config) PolicyFor(provider string) *limiter.ProviderPolicy {
	if p, ok := c.Providers[provider]; ok && p.Policy != nil {
		return p.Policy
	}
	if policy, ok := limiter.DefaultPolicies()[provider]; ok {
		return &policy
	}
	return nil
}
