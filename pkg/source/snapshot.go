package source

import (
	"context"
)

// SourceSnapshot 单个提供商的即时状态快照，供CLI与状态接口展示
type SourceSnapshot struct {
	ID           ProviderIdentity `json:"id"`
	Capabilities CapabilitySet    `json:"capabilities"`
	Health       HealthStatus     `json:"health"`
}

// Available 该提供商当前是否可被调度
func (s SourceSnapshot) Available() bool {
	return s.Health.State != Unhealthy
}

// StatusLabel 返回展示用的状态标签，配额耗尽优先于健康状态
func (s SourceSnapshot) StatusLabel() string {
	if !s.Health.RateAvailable {
		return "rate_limited"
	}
	return string(s.Health.State)
}

// Snapshot 获取单个提供商的状态快照
func (r *SourceRouter) Snapshot(ctx context.Context, provider ProviderIdentity) (SourceSnapshot, bool) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return SourceSnapshot{}, false
	}
	return SourceSnapshot{
		ID:           provider,
		Capabilities: adapter.Capabilities(),
		Health:       adapter.Health(ctx),
	}, true
}

// Snapshots 获取全部注册提供商的状态快照，按标识升序
func (r *SourceRouter) Snapshots(ctx context.Context) []SourceSnapshot {
	providers := r.sortedRegisteredSources()
	snapshots := make([]SourceSnapshot, 0, len(providers))
	for _, provider := range providers {
		if snapshot, ok := r.Snapshot(ctx, provider); ok {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}
