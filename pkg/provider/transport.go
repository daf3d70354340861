package provider

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Request 发往上游的HTTP请求描述
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Get 创建GET请求
func Get(url string) Request {
	return Request{Method: http.MethodGet, URL: url}
}

// WithHeader 附加请求头
func (r Request) WithHeader(name, value string) Request {
	headers := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers[name] = value
	r.Headers = headers
	return r
}

// WithTimeout 设置单次请求超时
func (r Request) WithTimeout(timeout time.Duration) Request {
	r.Timeout = timeout
	return r
}

// Response 上游HTTP响应
type Response struct {
	Status int
	Body   []byte
}

// IsSuccess 状态码是否在2xx区间
func (r Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// Doer 可插拔的HTTP执行器。
// 适配器只依赖此接口，传输、认证与真实/模拟切换都在实现内部解决。
type Doer interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// NoopDoer 默认执行器：不发出任何网络请求，恒定返回成功。
// 确定性数据管线在此之上合成载荷。
type NoopDoer struct{}

// Do 恒定返回200空响应
func (NoopDoer) Do(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return Response{Status: http.StatusOK}, nil
}

// HTTPDoer 基于标准库 http.Client 的真实执行器
type HTTPDoer struct {
	Client *http.Client
}

// NewHTTPDoer 创建真实HTTP执行器
func NewHTTPDoer(timeout time.Duration) *HTTPDoer {
	return &HTTPDoer{Client: &http.Client{Timeout: timeout}}
}

// Do 执行HTTP请求
func (d *HTTPDoer) Do(ctx context.Context, req Request) (Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return Response{}, err
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
