// Package provider 汇集各上游数据提供商的适配器公共设施。
// 各提供商的适配器位于同名子包中，实现 source.DataSource 契约。
package provider

import (
	"strings"

	"golang.org/x/text/cases"

	"finx/pkg/breaker"
	"finx/pkg/core"
	"finx/pkg/source"
)

// SymbolSeed 从股票代码折叠出确定性种子，各提供商用不同的
// 初值与乘数，保证同一代码在不同提供商得到不同但稳定的载荷。
func SymbolSeed(symbol core.Symbol, init, multiplier uint64) uint64 {
	seed := init
	for _, b := range []byte(symbol.String()) {
		seed = seed*multiplier + uint64(b)
	}
	return seed
}

// SynthesizeHealth 把熔断器状态与限流台账折叠进基础健康状态。
// 熔断打开时强制不健康且配额不可用；半开时健康降级为降级；
// 有待重试请求时配额不可用。
func SynthesizeHealth(base source.HealthStatus, cb *breaker.CircuitBreaker, pendingLen int) source.HealthStatus {
	status := base
	if pendingLen > 0 {
		status.RateAvailable = false
	}

	switch cb.State() {
	case breaker.StateHalfOpen:
		if status.State == source.Healthy {
			status.State = source.Degraded
		}
	case breaker.StateOpen:
		status.State = source.Unhealthy
		status.RateAvailable = false
	}
	return status
}

var caseFolder = cases.Fold()

// SearchCatalog 在证券目录中按代码或名称做大小写无关的子串匹配，
// 使用Unicode大小写折叠而非简单的ASCII小写。
func SearchCatalog(catalog []core.Instrument, query string, limit int) []core.Instrument {
	folded := caseFolder.String(strings.TrimSpace(query))
	results := make([]core.Instrument, 0, limit)
	for _, instrument := range catalog {
		if len(results) >= limit {
			break
		}
		if strings.Contains(caseFolder.String(instrument.Symbol.String()), folded) ||
			strings.Contains(caseFolder.String(instrument.Name), folded) {
			results = append(results, instrument)
		}
	}
	return results
}
