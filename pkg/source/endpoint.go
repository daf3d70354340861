package source

// Endpoint 数据端点的封闭枚举
type Endpoint string

const (
	EndpointQuote        Endpoint = "quote"
	EndpointBars         Endpoint = "bars"
	EndpointFundamentals Endpoint = "fundamentals"
	EndpointSearch       Endpoint = "search"
)

// ParseEndpoint 解析端点名称
func ParseEndpoint(s string) (Endpoint, bool) {
	switch Endpoint(s) {
	case EndpointQuote, EndpointBars, EndpointFundamentals, EndpointSearch:
		return Endpoint(s), true
	default:
		return "", false
	}
}

// String 实现 fmt.Stringer
func (e Endpoint) String() string {
	return string(e)
}

// ProviderIdentity 提供商的不透明标识，全局可比较、可全序排序。
// 启动时由配置固化，运行期不再变更。
type ProviderIdentity string

// String 实现 fmt.Stringer
func (p ProviderIdentity) String() string {
	return string(p)
}

// CapabilitySet 提供商支持的端点矩阵，构造后不再变更
type CapabilitySet struct {
	Quote        bool `json:"quote"`
	Bars         bool `json:"bars"`
	Fundamentals bool `json:"fundamentals"`
	Search       bool `json:"search"`
}

// FullCapabilities 返回支持全部端点的能力集
func FullCapabilities() CapabilitySet {
	return CapabilitySet{Quote: true, Bars: true, Fundamentals: true, Search: true}
}

// Supports 判断是否支持指定端点
func (c CapabilitySet) Supports(endpoint Endpoint) bool {
	switch endpoint {
	case EndpointQuote:
		return c.Quote
	case EndpointBars:
		return c.Bars
	case EndpointFundamentals:
		return c.Fundamentals
	case EndpointSearch:
		return c.Search
	default:
		return false
	}
}

// SupportedEndpoints 返回支持的端点名称列表，顺序固定
func (c CapabilitySet) SupportedEndpoints() []string {
	endpoints := make([]string, 0, 4)
	if c.Quote {
		endpoints = append(endpoints, string(EndpointQuote))
	}
	if c.Bars {
		endpoints = append(endpoints, string(EndpointBars))
	}
	if c.Fundamentals {
		endpoints = append(endpoints, string(EndpointFundamentals))
	}
	if c.Search {
		endpoints = append(endpoints, string(EndpointSearch))
	}
	return endpoints
}
