package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeCancelled indicates the operation was cancelled by the caller.
	CodeCancelled = "CANCELLED"

	// CodeDeadlineExceeded indicates operation deadline was exceeded.
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"

	// CodeResourceExhausted indicates a resource has been exhausted,
	// e.g. the reconnect budget of a single call.
	CodeResourceExhausted = "RESOURCE_EXHAUSTED"

	// CodeUnavailable indicates the remote peer is currently unavailable.
	CodeUnavailable = "UNAVAILABLE"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// Domain-specific error codes

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeEndpoint indicates the endpoint address cannot be used.
	CodeEndpoint = "ENDPOINT_ERROR"

	// CodeNetworkError indicates a transport operation failed.
	CodeNetworkError = "NETWORK_ERROR"

	// CodeServiceUnavailable indicates a remote node answered with a failure.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// CodeMalformedFrame indicates a frame could not be decoded.
	CodeMalformedFrame = "MALFORMED_FRAME"

	// CodeStorageError indicates a session store operation failed.
	CodeStorageError = "STORAGE_ERROR"
)

// IsRetryable returns true if an error with the given code may succeed on a
// fresh connection.
func IsRetryable(code string) bool {
	switch code {
	case CodeNetworkError, CodeUnavailable:
		return true
	default:
		return false
	}
}
