package source

// HealthState 提供商的健康状态
type HealthState string

const (
	// Healthy 正常
	Healthy HealthState = "healthy"
	// Degraded 降级：可用但表现不佳
	Degraded HealthState = "degraded"
	// Unhealthy 不可用：路由执行阶段会直接拒绝
	Unhealthy HealthState = "unhealthy"
)

// HealthStatus 一次健康查询的结果。
// 每次查询重新生成，除熔断器自身状态外不做跨调用缓存。
type HealthStatus struct {
	State         HealthState `json:"state"`
	RateAvailable bool        `json:"rate_available"` // 配额是否可用
	Score         uint16      `json:"score"`          // 提供商自报的信任/优先级分值
}
