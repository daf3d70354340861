package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finx/pkg/config"
)

func TestBuild_默认配置(t *testing.T) {
	adapters, err := Build(config.Default())
	require.NoError(t, err)
	require.Len(t, adapters, 4)

	ids := make(map[string]bool)
	for _, adapter := range adapters {
		ids[string(adapter.Identity())] = true
	}
	assert.True(t, ids["polygon"])
	assert.True(t, ids["yahoo"])
	assert.True(t, ids["alphavantage"])
	assert.True(t, ids["alpaca"])
}

func TestBuild_跳过禁用提供商(t *testing.T) {
	cfg := config.Default()
	for name, providerCfg := range cfg.Providers {
		if name != "yahoo" {
			providerCfg.Enabled = false
			cfg.Providers[name] = providerCfg
		}
	}

	adapters, err := Build(cfg)
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, "yahoo", string(adapters[0].Identity()))
}

func TestBuild_未知提供商报错(t *testing.T) {
	cfg := config.Default()
	cfg.Providers["bloomberg"] = config.ProviderConfig{Enabled: true}

	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuild_全部禁用报错(t *testing.T) {
	cfg := config.Default()
	for name, providerCfg := range cfg.Providers {
		providerCfg.Enabled = false
		cfg.Providers[name] = providerCfg
	}

	_, err := Build(cfg)
	assert.Error(t, err)
}
