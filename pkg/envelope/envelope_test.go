package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta_基础验证(t *testing.T) {
	meta, err := NewMeta("req-12345678", []string{"polygon"}, 12, false)

	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, meta.SchemaVersion)
	assert.False(t, meta.GeneratedAt.IsZero())

	_, err = NewMeta("short", []string{"polygon"}, 12, false)
	assert.Error(t, err, "请求ID过短应验证失败")

	_, err = NewMeta("req-12345678", nil, 12, false)
	assert.Error(t, err, "空数据源链应验证失败")
}

func TestMeta_追踪ID(t *testing.T) {
	meta, err := NewMeta("req-12345678", []string{"polygon"}, 5, true)
	require.NoError(t, err)

	_, err = meta.WithTraceID("0123456789abcdef0123456789abcdef")
	assert.NoError(t, err)

	_, err = meta.WithTraceID("not-a-trace-id")
	assert.Error(t, err, "非法追踪ID应验证失败")

	_, err = meta.WithTraceID("0123456789ABCDEF0123456789ABCDEF")
	assert.Error(t, err, "大写十六进制不应通过验证")
}

func TestError_构建与验证(t *testing.T) {
	e := NewError("source.rate_limited", "quota exhausted").
		WithRetryable(true).
		WithSource("alphavantage")

	require.NoError(t, e.Validate())
	require.NotNil(t, e.Retryable)
	assert.True(t, *e.Retryable)
	assert.Equal(t, "alphavantage", e.Source)

	assert.Error(t, NewError("", "message").Validate(), "空错误代码应验证失败")
	assert.Error(t, NewError("code", "  ").Validate(), "空错误信息应验证失败")
}

func TestEnvelope_序列化(t *testing.T) {
	meta, err := NewMeta("req-12345678", []string{"polygon", "yahoo"}, 42, false)
	require.NoError(t, err)
	meta.PushWarning("fallback used")

	env, err := WithErrors(*meta, map[string]string{"symbol": "AAPL"}, []Error{
		NewError("source.unavailable", "polygon circuit open").WithSource("polygon").WithRetryable(true),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `"request_id":"req-12345678"`)
	assert.Contains(t, text, `"source_chain":["polygon","yahoo"]`)
	assert.Contains(t, text, `"cache_hit":false`)
	assert.Contains(t, text, `"retryable":true`)
	assert.NotContains(t, text, "trace_id", "未设置的追踪ID不应出现在输出中")
}

func TestEnvelope_追加错误(t *testing.T) {
	meta, err := NewMeta("req-12345678", []string{"yahoo"}, 3, true)
	require.NoError(t, err)

	env := Success(*meta, nil)
	require.NoError(t, env.PushError(NewError("source.internal", "boom")))
	assert.Len(t, env.Errors, 1)

	assert.Error(t, env.PushError(NewError("", "")), "非法错误不应入列")
	assert.Len(t, env.Errors, 1)
}
