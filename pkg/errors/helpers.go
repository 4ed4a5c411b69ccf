package errors

import (
	"context"
	"errors"
)

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr) || errors.Is(err, ErrTransport)
}

// IsEndpoint checks if an error is a permanent endpoint failure.
func IsEndpoint(err error) bool {
	if err == nil {
		return false
	}
	var endpointErr *EndpointError
	return errors.As(err, &endpointErr) || errors.Is(err, ErrInvalidEndpoint)
}

// IsRetryExhausted checks if an error is the terminal retry budget failure.
func IsRetryExhausted(err error) bool {
	if err == nil {
		return false
	}
	var exhaustedErr *RetryExhaustedError
	return errors.As(err, &exhaustedErr) || errors.Is(err, ErrRetryBudgetExhausted)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var validationErr *ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrInvalidInput)
}

// IsServiceUnavailable checks if an error is a remote node failure.
func IsServiceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) || errors.Is(err, ErrServiceUnavailable)
}

// IsCancelled checks if an error stems from the caller's context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ShouldRetry checks if an operation should be retried on a new connection.
// Endpoint errors and caller cancellation are permanent.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if IsEndpoint(err) || IsCancelled(err) || IsRetryExhausted(err) {
		return false
	}

	if IsTransport(err) {
		return true
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return IsRetryable(customErr.Code())
	}

	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	switch {
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	// Try to infer from sentinel errors
	switch {
	case IsEndpoint(err):
		return CodeEndpoint
	case IsTransport(err):
		return CodeNetworkError
	case IsRetryExhausted(err):
		return CodeResourceExhausted
	case IsValidation(err):
		return CodeValidation
	case IsServiceUnavailable(err):
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
