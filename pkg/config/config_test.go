package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_配置有效(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate(), "默认配置应通过验证")
	assert.Equal(t, "auto", cfg.Router.Strategy)
	assert.Len(t, cfg.Providers, 4, "应内置4个提供商")
	assert.NotNil(t, cfg.Providers["alphavantage"].Policy, "alphavantage应带配额策略")
}

func TestValidate_非法配置(t *testing.T) {
	cfg := Default()
	cfg.Router.Strategy = "random"
	assert.Error(t, cfg.Validate(), "未知路由策略应验证失败")

	cfg = Default()
	cfg.Router.RequestTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Providers = nil
	assert.Error(t, cfg.Validate(), "无提供商应验证失败")

	cfg = Default()
	cfg.Cache.Type = "redis"
	cfg.Cache.RedisURL = ""
	assert.Error(t, cfg.Validate(), "redis缓存缺少地址应验证失败")

	cfg = Default()
	cfg.Warehouse.Type = "influxdb"
	cfg.Warehouse.InfluxDBURL = ""
	assert.Error(t, cfg.Validate())
}

func TestPolicyFor_策略查找(t *testing.T) {
	cfg := Default()

	p := cfg.PolicyFor("alphavantage")
	require.NotNil(t, p)
	assert.Equal(t, 5, p.QuotaLimit, "alphavantage默认每窗口5次")
	assert.Equal(t, 60*time.Second, p.QuotaWindow)

	// 未在配置中声明策略的提供商回落到内置默认
	p = cfg.PolicyFor("alpaca")
	require.NotNil(t, p)
	assert.Equal(t, 100, p.QuotaLimit)

	assert.Nil(t, cfg.PolicyFor("polygon"), "无策略的提供商应返回nil")
	assert.Nil(t, cfg.PolicyFor("unknown"))
}

func TestLoad_文件与环境变量(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finx.yaml")
	content := []byte(`
router:
  strategy: priority
server:
  addr: ":9090"
logger:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "priority", cfg.Router.Strategy)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// 未覆盖的字段保持默认
	assert.Equal(t, "memory", cfg.Cache.Type)
}

func TestLoad_缺失文件回落默认(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err, "找不到配置文件时应使用默认配置")
	assert.Equal(t, "auto", cfg.Router.Strategy)
}
