package source

import (
	"fmt"
	"strings"
)

// StrategyMode 路由策略的种类
type StrategyMode string

const (
	// ModeAuto 按得分自动排序所有注册的提供商
	ModeAuto StrategyMode = "auto"
	// ModePriority 按调用方给定的顺序尝试
	ModePriority StrategyMode = "priority"
	// ModeStrict 只尝试唯一指定的提供商，任何失败都立即终止
	ModeStrict StrategyMode = "strict"
)

// SourceStrategy 调用方选择的数据源路由策略
type SourceStrategy struct {
	mode     StrategyMode
	priority []ProviderIdentity
	strict   ProviderIdentity
}

// Auto 自动策略：对每个注册的适配器打分后降序尝试
func Auto() SourceStrategy {
	return SourceStrategy{mode: ModeAuto}
}

// Priority 优先级策略：按给定顺序尝试，保留首次出现去重
func Priority(providers ...ProviderIdentity) SourceStrategy {
	return SourceStrategy{mode: ModePriority, priority: providers}
}

// Strict 严格策略：只尝试指定的提供商，不做任何回退
func Strict(provider ProviderIdentity) SourceStrategy {
	return SourceStrategy{mode: ModeStrict, strict: provider}
}

// ParseStrategy 从文本解析路由策略。
// "auto" 返回自动策略；"strict:<provider>" 返回严格策略；
// "priority:a,b,c" 返回优先级策略。
func ParseStrategy(text string) (SourceStrategy, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == string(ModeAuto) {
		return Auto(), nil
	}

	name, arg, found := strings.Cut(text, ":")
	switch StrategyMode(name) {
	case ModeStrict:
		if !found || strings.TrimSpace(arg) == "" {
			return SourceStrategy{}, fmt.Errorf("strict strategy requires a provider, e.g. strict:polygon")
		}
		return Strict(ProviderIdentity(strings.TrimSpace(arg))), nil
	case ModePriority:
		if !found || strings.TrimSpace(arg) == "" {
			return SourceStrategy{}, fmt.Errorf("priority strategy requires a provider list, e.g. priority:polygon,yahoo")
		}
		parts := strings.Split(arg, ",")
		providers := make([]ProviderIdentity, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				providers = append(providers, ProviderIdentity(p))
			}
		}
		if len(providers) == 0 {
			return SourceStrategy{}, fmt.Errorf("priority strategy requires at least one provider")
		}
		return Priority(providers...), nil
	default:
		return SourceStrategy{}, fmt.Errorf("unknown source strategy: %s", text)
	}
}

// Mode 返回策略种类
func (s SourceStrategy) Mode() StrategyMode {
	if s.mode == "" {
		return ModeAuto
	}
	return s.mode
}

// IsStrict 是否为严格策略
func (s SourceStrategy) IsStrict() bool {
	return s.mode == ModeStrict
}

// String 实现 fmt.Stringer
func (s SourceStrategy) String() string {
	switch s.Mode() {
	case ModeStrict:
		return fmt.Sprintf("strict:%s", s.strict)
	case ModePriority:
		parts := make([]string, len(s.priority))
		for i, p := range s.priority {
			parts[i] = string(p)
		}
		return fmt.Sprintf("priority:%s", strings.Join(parts, ","))
	default:
		return string(ModeAuto)
	}
}
