package core

import (
	"fmt"
	"strings"
)

// MaxSymbolLen 股票代码的最大长度
const MaxSymbolLen = 15

// Symbol 规范化后的股票/指数代码。
// 始终为大写，首字符为ASCII字母，其余字符为字母、数字、'.' 或 '-'。
type Symbol string

// ParseSymbol 解析并规范化股票代码。
// 输入会被去除首尾空白并转换为大写；不符合规范时返回 ErrInvalidSymbol。
func ParseSymbol(input string) (Symbol, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", NewValidationError(ErrInvalidSymbol, "symbol cannot be empty")
	}

	normalized := strings.ToUpper(trimmed)
	if len(normalized) > MaxSymbolLen {
		return "", NewValidationError(ErrInvalidSymbol,
			fmt.Sprintf("symbol length %d exceeds max %d", len(normalized), MaxSymbolLen))
	}

	first := normalized[0]
	if !isASCIILetter(first) {
		return "", NewValidationError(ErrInvalidSymbol,
			fmt.Sprintf("symbol must start with an ASCII letter: %q", first))
	}

	for i := 0; i < len(normalized); i++ {
		ch := normalized[i]
		if !isASCIILetter(ch) && !isASCIIDigit(ch) && ch != '.' && ch != '-' {
			return "", NewValidationError(ErrInvalidSymbol,
				fmt.Sprintf("symbol contains invalid character %q at index %d", ch, i))
		}
	}

	return Symbol(normalized), nil
}

// ParseSymbols 批量解析股票代码，任何一个失败都会使整体失败。
func ParseSymbols(inputs []string) ([]Symbol, error) {
	symbols := make([]Symbol, 0, len(inputs))
	for _, input := range inputs {
		symbol, err := ParseSymbol(input)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// String 实现 fmt.Stringer 接口
func (s Symbol) String() string {
	return string(s)
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isASCIIDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
