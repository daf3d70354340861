package source

import (
	"sort"
)

// 自动策略的评分权重。端点支持是主导项，保证支持该端点的提供商
// 永远排在不支持的前面；健康与配额做次级区分；提供商自报分值兜底排序。
const (
	endpointSupportScore = 1000
	healthyScore         = 250
	degradedScore        = 100
	rateAvailableScore   = 150
)

// ScoredCandidate 参与排序的候选提供商及其得分
type ScoredCandidate struct {
	Provider ProviderIdentity
	Score    int
}

// ScoreCandidate 计算单个适配器在指定端点下的调度得分。
// (能力, 健康, 配额, 自报分值) 的纯函数，无任何内部状态。
// 不健康或不支持端点的适配器只是得分更低，不会被排除，
// 它们仍会进入候选链并在执行阶段被优雅拒绝。
func ScoreCandidate(capabilities CapabilitySet, endpoint Endpoint, health HealthStatus) int {
	score := 0
	if capabilities.Supports(endpoint) {
		score += endpointSupportScore
	}
	switch health.State {
	case Healthy:
		score += healthyScore
	case Degraded:
		score += degradedScore
	}
	if health.RateAvailable {
		score += rateAvailableScore
	}
	return score + int(health.Score)
}

// RankCandidates 按得分降序排序，得分相同时按标识字符串升序，
// 保证排序结果是确定性的全序。
func RankCandidates(candidates []ScoredCandidate) []ProviderIdentity {
	sorted := make([]ScoredCandidate, len(candidates))
	copy(sorted, candidates)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Provider < sorted[j].Provider
	})

	chain := make([]ProviderIdentity, len(sorted))
	for i, c := range sorted {
		chain[i] = c.Provider
	}
	return chain
}

// dedupeChain 去重并保留首次出现的顺序
func dedupeChain(chain []ProviderIdentity) []ProviderIdentity {
	seen := make(map[ProviderIdentity]struct{}, len(chain))
	output := make([]ProviderIdentity, 0, len(chain))
	for _, provider := range chain {
		if _, ok := seen[provider]; ok {
			continue
		}
		seen[provider] = struct{}{}
		output = append(output, provider)
	}
	return output
}
