package envelope

import (
	"finx/pkg/error"
)

const (
	// ErrInvalidRequestID 表示请求ID不满足最小长度要求
	ErrInvalidRequestID error.ErrorCode = "INVALID_REQUEST_ID"
	// ErrInvalidTraceID 表示追踪ID不是32位十六进制字符串
	ErrInvalidTraceID error.ErrorCode = "INVALID_TRACE_ID"
	// ErrInvalidSchemaVersion 表示schema版本号格式非法
	ErrInvalidSchemaVersion error.ErrorCode = "INVALID_SCHEMA_VERSION"
	// ErrEmptySourceChain 表示数据源链为空
	ErrEmptySourceChain error.ErrorCode = "EMPTY_SOURCE_CHAIN"
	// ErrInvalidError 表示错误条目缺少代码或消息
	ErrInvalidError error.ErrorCode = "INVALID_ENVELOPE_ERROR"
)

// ValidationError 响应信封的结构化验证错误
type ValidationError struct {
	error.BaseError
}

// NewValidationError 创建信封验证错误
func NewValidationError(code error.ErrorCode, message string) *ValidationError {
	return &ValidationError{
		BaseError: *error.NewError(code, message),
	}
}
