package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load 从配置文件和环境变量加载配置。
// configPath 为空时依次在 ./config 和当前目录查找 finx.yaml。
// 环境变量前缀为 FINX，例如 FINX_SERVER_ADDR 覆盖 server.addr。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("finx")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("FINX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时退回默认值，其它读取错误直接上抛
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("router.strategy", defaults.Router.Strategy)
	v.SetDefault("router.request_timeout", defaults.Router.RequestTimeout)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("cache.type", defaults.Cache.Type)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.max_size", defaults.Cache.MaxSize)
	v.SetDefault("warehouse.type", defaults.Warehouse.Type)
	v.SetDefault("warehouse.influxdb_url", defaults.Warehouse.InfluxDBURL)
	v.SetDefault("warehouse.org", defaults.Warehouse.Org)
	v.SetDefault("warehouse.bucket", defaults.Warehouse.Bucket)
	v.SetDefault("scheduler.enabled", defaults.Scheduler.Enabled)
	v.SetDefault("scheduler.cron_spec", defaults.Scheduler.CronSpec)
	v.SetDefault("logger.level", defaults.Logger.Level)
	v.SetDefault("logger.format", defaults.Logger.Format)
}
