package service

import (
	"finx/pkg/error"
)

const (
	// ErrInvalidParams 表示调用方传入的参数无法构造合法请求。
	ErrInvalidParams error.ErrorCode = "SERVICE_INVALID_PARAMS"
	// ErrEnvelopeBuild 表示响应信封构造失败。
	ErrEnvelopeBuild error.ErrorCode = "SERVICE_ENVELOPE_BUILD"
)

// ServiceError 服务层错误
type ServiceError struct {
	error.BaseError
}

// NewServiceError 创建服务层错误
func NewServiceError(code error.ErrorCode, message string) *ServiceError {
	return &ServiceError{
		BaseError: *error.NewError(code, message),
	}
}
