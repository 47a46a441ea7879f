package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Pipeline error codes
const (
	// ErrTransport 补全调用失败或超时，在流水线内部降级处理
	ErrTransport ErrorCode = "TRANSPORT"
	// ErrParse 文本中没有匹配的括号对，或括号内容不是合法 JSON
	ErrParse ErrorCode = "PARSE"
	// ErrSchemaViolation 数据可解析但不满足该类制品的结构约束
	ErrSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	// ErrFallbackConstruction 来源上下文为空，无法合成兜底制品；唯一对调用方可见的错误
	ErrFallbackConstruction ErrorCode = "FALLBACK_CONSTRUCTION"
)

// Lifecycle / infrastructure error codes
const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrStore             ErrorCode = "STORE"
	ErrConfig            ErrorCode = "CONFIG"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Kind      string    `json:"kind,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithKind records the artifact kind the error relates to.
func (e *Error) WithKind(kind string) *Error {
	e.Kind = kind
	return e
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether err's chain contains an *Error with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
