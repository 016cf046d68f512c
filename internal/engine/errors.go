// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrTableNotFound   = errors.New("table not found in page")
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrTimeout         = errors.New("request timeout")
	ErrNetworkError    = errors.New("network error")
	ErrBadStatus       = errors.New("unexpected HTTP status")
	ErrParseError      = errors.New("failed to parse response")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTransport     ErrorCode = "TRANSPORT"
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
	ErrCodeBadStatus     ErrorCode = "BAD_STATUS"
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"
	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeBrowser       ErrorCode = "BROWSER"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	// StatusCode is the upstream HTTP status, when one was received.
	StatusCode int
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

// NewStatusError reports a non-2xx response from url.
func NewStatusError(status int, url string) *EngineError {
	e := NewEngineError(ErrCodeBadStatus, fmt.Sprintf("HTTP %d from %s", status, url), ErrBadStatus)
	e.StatusCode = status
	return e
}

// CodeOf returns the ErrorCode carried anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
