package roomchat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Transport errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout

	// Caller errors
	ErrorInvalidConfig
	ErrorEmptyUsername
	ErrorEmptyMessage
	ErrorNotConnected
	ErrorSendBufferFull

	// Client-side errors
	ErrorSerialization
	ErrorClosed
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorEmptyUsername:
		return "empty_username"
	case ErrorEmptyMessage:
		return "empty_message"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSendBufferFull:
		return "send_buffer_full"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// Error is a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

var (
	ErrEmptyUsername = NewError(ErrorEmptyUsername, "please enter a username")
	ErrEmptyMessage  = NewError(ErrorEmptyMessage, "please enter a message")
	ErrNotConnected  = NewError(ErrorNotConnected, "not connected to server, please wait for connection")
	ErrClosed        = NewError(ErrorClosed, "session closed")
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with an Error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// IsConnectionError checks if an error is a transport-level error.
// These are recovered by the reconnect policy and never fatal.
func IsConnectionError(err error) bool {
	code, ok := codeOf(err)
	if !ok {
		return false
	}
	return code == ErrorConnection || code == ErrorDisconnected || code == ErrorTimeout
}

// IsInputError checks if an error was caused by caller input or by calling
// an operation in the wrong state. Such operations are aborted and not retried.
func IsInputError(err error) bool {
	code, ok := codeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrorEmptyUsername, ErrorEmptyMessage, ErrorNotConnected, ErrorSendBufferFull:
		return true
	default:
		return false
	}
}

func codeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return ErrorUnknown, false
	}
	var re *Error
	if !errors.As(err, &re) {
		return ErrorUnknown, false
	}
	return re.Code, true
}
