package envelope

import (
	"regexp"
	"strings"
	"time"
)

// SchemaVersion 当前响应信封的schema版本
const SchemaVersion = "v1.0.0"

// MinRequestIDLen 请求ID的最小长度
const MinRequestIDLen = 8

var (
	schemaVersionPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)
	traceIDPattern       = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// Meta 附加在每个响应信封上的元数据
type Meta struct {
	RequestID     string    `json:"request_id"`
	TraceID       string    `json:"trace_id,omitempty"`
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	SourceChain   []string  `json:"source_chain"`
	LatencyMS     int64     `json:"latency_ms"`
	CacheHit      bool      `json:"cache_hit"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// NewMeta 创建并验证信封元数据
func NewMeta(requestID string, sourceChain []string, latencyMS int64, cacheHit bool) (*Meta, error) {
	meta := &Meta{
		RequestID:     requestID,
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		SourceChain:   sourceChain,
		LatencyMS:     latencyMS,
		CacheHit:      cacheHit,
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// WithTraceID 附加追踪ID，要求32位小写十六进制字符串
func (m *Meta) WithTraceID(traceID string) (*Meta, error) {
	if !traceIDPattern.MatchString(traceID) {
		return nil, NewValidationError(ErrInvalidTraceID, "追踪ID必须是32位十六进制字符串")
	}
	m.TraceID = traceID
	return m, nil
}

// PushWarning 追加一条警告信息
func (m *Meta) PushWarning(warning string) {
	m.Warnings = append(m.Warnings, warning)
}

// Validate 按schema约束验证元数据
func (m *Meta) Validate() error {
	if len(strings.TrimSpace(m.RequestID)) < MinRequestIDLen {
		return NewValidationError(ErrInvalidRequestID, "请求ID长度不能小于8")
	}
	if m.TraceID != "" && !traceIDPattern.MatchString(m.TraceID) {
		return NewValidationError(ErrInvalidTraceID, "追踪ID必须是32位十六进制字符串")
	}
	if !schemaVersionPattern.MatchString(m.SchemaVersion) {
		return NewValidationError(ErrInvalidSchemaVersion, "schema版本号必须形如 v1.0.0")
	}
	if len(m.SourceChain) == 0 {
		return NewValidationError(ErrEmptySourceChain, "数据源链不能为空")
	}
	return nil
}

// Error 响应中的结构化错误条目
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
	Source    string `json:"source,omitempty"`
}

// NewError 创建错误条目
func NewError(code string, message string) Error {
	return Error{Code: code, Message: message}
}

// WithRetryable 标注该错误是否可重试
func (e Error) WithRetryable(retryable bool) Error {
	e.Retryable = &retryable
	return e
}

// WithSource 标注产生该错误的提供商
func (e Error) WithSource(source string) Error {
	e.Source = source
	return e
}

// Validate 验证错误条目的完整性
func (e Error) Validate() error {
	if strings.TrimSpace(e.Code) == "" {
		return NewValidationError(ErrInvalidError, "错误代码不能为空")
	}
	if strings.TrimSpace(e.Message) == "" {
		return NewValidationError(ErrInvalidError, "错误信息不能为空")
	}
	return nil
}

// Envelope 所有机器可读输出的标准响应信封
type Envelope struct {
	Meta   Meta        `json:"meta"`
	Data   interface{} `json:"data"`
	Errors []Error     `json:"errors,omitempty"`
}

// Success 创建不带错误的成功信封
func Success(meta Meta, data interface{}) *Envelope {
	return &Envelope{Meta: meta, Data: data}
}

// WithErrors 创建带错误条目的信封，逐条验证错误的完整性
func WithErrors(meta Meta, data interface{}, errs []Error) (*Envelope, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	for _, e := range errs {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return &Envelope{Meta: meta, Data: data, Errors: errs}, nil
}

// PushError 向信封追加一条错误
func (v *Envelope) PushError(e Error) error {
	if err := e.Validate(); err != nil {
		return err
	}
	v.Errors = append(v.Errors, e)
	return nil
}
