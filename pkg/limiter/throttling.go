package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThrottlingQueue 单个提供商的配额准入控制。
//
// 由两部分组成：按 (QuotaWindow, QuotaLimit) 匀速补充的令牌桶，
// 以及记录被拒请求重试次数的待重试台账。台账长度恒等于
// 未被 CompleteOne 确认的被拒请求数，健康上报据此判断配额是否可用。
//
// 与熔断器相互独立：提供商可能健康但配额已耗尽。
// 每个提供商一个实例，多个并发路由调用共享，内部由单把互斥锁串行化。
type ThrottlingQueue struct {
	policy ProviderPolicy
	bucket *rate.Limiter

	mu      sync.Mutex
	pending []int // 待重试台账，每个元素是对应请求已重试的次数，按入队顺序排列
}

// NewThrottlingQueue 根据提供商策略创建限流队列。
// 令牌桶容量为 max(QuotaLimit, 1)，补充周期为 QuotaWindow/QuotaLimit（下限1毫秒），
// 即匀速滴灌式补充而非整窗重置，密集突发会被平滑而不是整批放行后长时间阻断。
func NewThrottlingQueue(policy ProviderPolicy) *ThrottlingQueue {
	burst := policy.QuotaLimit
	if burst < 1 {
		burst = 1
	}
	period := time.Duration(0)
	if policy.QuotaLimit > 0 {
		period = policy.QuotaWindow / time.Duration(policy.QuotaLimit)
	}
	if period < time.Millisecond {
		period = time.Millisecond
	}
	return &ThrottlingQueue{
		policy: policy,
		bucket: rate.NewLimiter(rate.Every(period), burst),
	}
}

// Policy 返回队列绑定的提供商策略
func (q *ThrottlingQueue) Policy() ProviderPolicy {
	return q.policy
}

// Acquire 尝试取走一个令牌。
// 成功返回nil；失败时向台账追加一条待重试记录（重试次数0），
// 并返回携带首次重试延迟的 RateLimitedError。
func (q *ThrottlingQueue) Acquire() error {
	if q.bucket.Allow() {
		return nil
	}

	q.mu.Lock()
	q.pending = append(q.pending, 0)
	q.mu.Unlock()

	return NewRateLimitedError(q.policy.Provider, q.policy.RetryBackoff.Delay(0))
}

// RegisterRetry 登记一次对最早待重试请求的重试，返回新的重试延迟。
// 台账为空或重试次数超过 MaxRetries 时返回 ok=false。
func (q *ThrottlingQueue) RegisterRetry() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return 0, false
	}
	q.pending[0]++
	if q.pending[0] > q.policy.RetryBackoff.MaxRetries {
		return 0, false
	}
	return q.policy.RetryBackoff.Delay(q.pending[0]), true
}

// CompleteOne 弹出最早的待重试记录。
// 在被限流的请求最终成功或被放弃后调用。
func (q *ThrottlingQueue) CompleteOne() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
}

// PendingLen 返回待重试台账长度
func (q *ThrottlingQueue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RateAvailable 判断当前配额是否可用：无待重试请求且桶中有余量
func (q *ThrottlingQueue) RateAvailable() bool {
	if q.PendingLen() > 0 {
		return false
	}
	return q.bucket.Tokens() >= 1
}
