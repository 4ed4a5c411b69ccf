package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for quick checks
var (
	// ErrRetryBudgetExhausted is returned when a call used up its reconnect attempts.
	ErrRetryBudgetExhausted = errors.New("reconnect attempts exhausted")

	// ErrInvalidEndpoint is returned when an endpoint can never be connected to.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrTransport is returned when the underlying connection failed.
	ErrTransport = errors.New("transport failure")

	// ErrInvalidInput is returned when input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable is returned when a remote node rejects a request.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// EndpointError is a permanent failure to use an endpoint address:
// unparseable URL, unsupported scheme or unresolvable host.
type EndpointError struct {
	*BaseError
	Endpoint string
}

// NewEndpointError creates a new endpoint error.
func NewEndpointError(endpoint, message string, cause error) *EndpointError {
	return &EndpointError{
		BaseError: &BaseError{
			code:    CodeEndpoint,
			message: fmt.Sprintf("endpoint %q: %s", endpoint, message),
			cause:   cause,
		},
		Endpoint: endpoint,
	}
}

// Is reports whether target is ErrInvalidEndpoint.
func (e *EndpointError) Is(target error) bool {
	return target == ErrInvalidEndpoint
}

// TransportError represents an I/O failure or unexpected disconnect on a
// live connection. The connection must be discarded.
type TransportError struct {
	*BaseError
	Operation string
}

// NewTransportError creates a new transport error for op ("dial", "read", "write").
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeNetworkError,
			message: fmt.Sprintf("transport %s failed", op),
			cause:   cause,
		},
		Operation: op,
	}
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RetryExhaustedError is the terminal outcome of a call that used every
// reconnect attempt it was allowed.
type RetryExhaustedError struct {
	*BaseError
	Attempts uint
}

// NewRetryExhaustedError creates a new retry exhausted error wrapping the
// last failure seen.
func NewRetryExhaustedError(attempts uint, last error) *RetryExhaustedError {
	return &RetryExhaustedError{
		BaseError: &BaseError{
			code:    CodeResourceExhausted,
			message: fmt.Sprintf("gave up after %d connection attempts", attempts),
			cause:   last,
		},
		Attempts: attempts,
	}
}

// Is reports whether target is ErrRetryBudgetExhausted.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryBudgetExhausted
}

// ServiceError represents a remote node answering with a failure.
type ServiceError struct {
	*BaseError
	Service    string
	StatusCode int
}

// NewServiceError creates a new service error.
func NewServiceError(service, message string, statusCode int, cause error) *ServiceError {
	return &ServiceError{
		BaseError: &BaseError{
			code:    CodeServiceUnavailable,
			message: message,
			cause:   cause,
		},
		Service:    service,
		StatusCode: statusCode,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Service, e.message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is reports whether target is ErrServiceUnavailable.
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// StorageError represents a failure of a session store.
type StorageError struct {
	*BaseError
	Store string
}

// NewStorageError creates a new storage error.
func NewStorageError(store, message string, cause error) *StorageError {
	return &StorageError{
		BaseError: &BaseError{
			code:    CodeStorageError,
			message: fmt.Sprintf("%s store: %s", store, message),
			cause:   cause,
		},
		Store: store,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already our error type, wrap it
	if customErr, ok := err.(Error); ok {
		return &BaseError{
			code:    customErr.Code(),
			message: message,
			cause:   err,
		}
	}

	// Otherwise, create an internal error
	return &BaseError{
		code:    CodeInternal,
		message: message,
		cause:   err,
	}
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
	}
}
