package core

import (
	"finx/pkg/error"
)

const (
	// ErrInvalidSymbol 表示股票代码不符合规范。
	ErrInvalidSymbol error.ErrorCode = "INVALID_SYMBOL"
	// ErrInvalidInterval 表示K线周期无法识别。
	ErrInvalidInterval error.ErrorCode = "INVALID_INTERVAL"
	// ErrInvalidCurrency 表示货币代码不是3位大写ISO代码。
	ErrInvalidCurrency error.ErrorCode = "INVALID_CURRENCY"
	// ErrInvalidValue 表示数值字段为负数或非有限值。
	ErrInvalidValue error.ErrorCode = "INVALID_VALUE"
	// ErrInvalidBarRange 表示K线的高低价区间不成立。
	ErrInvalidBarRange error.ErrorCode = "INVALID_BAR_RANGE"
)

// ValidationError 领域模型校验错误
type ValidationError struct {
	error.BaseError
}

// NewValidationError 创建新的校验错误
func NewValidationError(code error.ErrorCode, message string) *ValidationError {
	return &ValidationError{
		BaseError: *error.NewError(code, message),
	}
}
