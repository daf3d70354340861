// Package registry 按配置组装数据源适配器集合。
package registry

import (
	"fmt"

	"finx/pkg/config"
	"finx/pkg/provider"
	"finx/pkg/provider/alpaca"
	"finx/pkg/provider/alphavantage"
	"finx/pkg/provider/polygon"
	"finx/pkg/provider/yahoo"
	"finx/pkg/source"
)

// Build 根据配置创建所有启用的数据源适配器。
// 配置了API密钥的提供商使用真实HTTP执行器，否则保留内置的演练执行器。
func Build(cfg *config.Config) ([]source.DataSource, error) {
	adapters := make([]source.DataSource, 0, len(cfg.Providers))

	for name, providerCfg := range cfg.Providers {
		if !providerCfg.Enabled {
			continue
		}

		var client provider.Doer = provider.NoopDoer{}
		if providerCfg.APIKey != "" && providerCfg.Timeout > 0 {
			client = provider.NewHTTPDoer(providerCfg.Timeout)
		}

		switch name {
		case string(polygon.ProviderID):
			adapter := polygon.New()
			if providerCfg.APIKey != "" {
				adapter.WithClient(client, providerCfg.APIKey)
			}
			adapters = append(adapters, adapter)
		case string(yahoo.ProviderID):
			adapters = append(adapters, yahoo.New())
		case string(alphavantage.ProviderID):
			adapter := alphavantage.New()
			if providerCfg.APIKey != "" {
				adapter.WithClient(client, providerCfg.APIKey)
			}
			if providerCfg.Policy != nil {
				if err := providerCfg.Policy.Validate(); err != nil {
					return nil, fmt.Errorf("invalid policy for provider %s: %w", name, err)
				}
				adapter.WithPolicy(*providerCfg.Policy)
			}
			adapters = append(adapters, adapter)
		case string(alpaca.ProviderID):
			adapter := alpaca.New()
			if providerCfg.Policy != nil {
				if err := providerCfg.Policy.Validate(); err != nil {
					return nil, fmt.Errorf("invalid policy for provider %s: %w", name, err)
				}
				adapter.WithPolicy(*providerCfg.Policy)
			}
			adapters = append(adapters, adapter)
		default:
			return nil, fmt.Errorf("unknown provider in config: %s", name)
		}
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no providers enabled in config")
	}
	return adapters, nil
}
