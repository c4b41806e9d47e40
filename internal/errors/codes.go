package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents internal error codes for monitor operations
type ErrorCode int

const (
	// Success
	CodeOK ErrorCode = 0

	// Collaborator errors, recovered by the monitor loop
	CodeConnectionError ErrorCode = 1000
	CodeQueryError      ErrorCode = 1001

	// Unexpected failures inside the loop body
	CodeInternal ErrorCode = 2000
)

// Lifecycle misuse. These are the only errors a caller sees synchronously.
var (
	ErrAlreadyStarted  = stderrors.New("monitor already started")
	ErrStopped         = stderrors.New("monitor stopped")
	ErrInvalidInterval = stderrors.New("check interval must be positive")
)

// String returns the taxonomy name of the code
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeConnectionError:
		return "connection_error"
	case CodeQueryError:
		return "query_error"
	case CodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// MonitorError represents a structured error with code and context
type MonitorError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *MonitorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *MonitorError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to the status reported by the health surface
func (e *MonitorError) HTTPStatus() int {
	switch e.Code {
	case CodeOK:
		return http.StatusOK
	case CodeConnectionError, CodeQueryError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewMonitorError creates a new MonitorError
func NewMonitorError(code ErrorCode, message string, cause error) *MonitorError {
	return &MonitorError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *MonitorError) WithDetail(key string, value interface{}) *MonitorError {
	e.Details[key] = value
	return e
}

// Convenience constructors for the loop taxonomy

func ConnectionFailed(addr string, cause error) *MonitorError {
	return NewMonitorError(CodeConnectionError, fmt.Sprintf("failed to acquire connection to %s", addr), cause).
		WithDetail("addr", addr)
}

func QueryFailed(section string, cause error) *MonitorError {
	return NewMonitorError(CodeQueryError, fmt.Sprintf("info %s query failed", section), cause).
		WithDetail("section", section)
}

func InternalError(message string, cause error) *MonitorError {
	return NewMonitorError(CodeInternal, message, cause)
}

// IsMonitorError checks if an error is, or wraps, a MonitorError
func IsMonitorError(err error) bool {
	var me *MonitorError
	return stderrors.As(err, &me)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var me *MonitorError
	if stderrors.As(err, &me) {
		return me.Code
	}
	return CodeInternal
}
