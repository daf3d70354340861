package warehouse

import (
	"finx/pkg/error"
)

const (
	// ErrWriteFailed 表示向仓储后端写入数据失败。
	ErrWriteFailed error.ErrorCode = "WAREHOUSE_WRITE_FAILED"
	// ErrSinkClosed 表示尝试写入已关闭的仓储。
	ErrSinkClosed error.ErrorCode = "WAREHOUSE_CLOSED"
	// ErrSinkUnavailable 表示仓储后端暂时不可用（例如熔断器打开）。
	ErrSinkUnavailable error.ErrorCode = "WAREHOUSE_UNAVAILABLE"
	// ErrInvalidRecord 表示写入记录缺少必要的元数据。
	ErrInvalidRecord error.ErrorCode = "WAREHOUSE_INVALID_RECORD"
)

// WarehouseError 仓储层错误
type WarehouseError struct {
	error.BaseError
}

// NewWarehouseError 创建仓储错误
func NewWarehouseError(code error.ErrorCode, message string) *WarehouseError {
	return &WarehouseError{
		BaseError: *error.NewError(code, message),
	}
}
