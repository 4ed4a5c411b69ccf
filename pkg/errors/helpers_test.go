package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestIsTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "TransportError",
			err:      NewTransportError("read", io.EOF),
			expected: true,
		},
		{
			name:     "sentinel ErrTransport",
			err:      ErrTransport,
			expected: true,
		},
		{
			name:     "wrapped TransportError",
			err:      fmt.Errorf("send: %w", NewTransportError("write", io.ErrClosedPipe)),
			expected: true,
		},
		{
			name:     "endpoint error",
			err:      NewEndpointError("ws://", "missing host", nil),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsTransport(tt.err)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"transport", NewTransportError("dial", errors.New("connection refused")), true},
		{"endpoint", NewEndpointError("foo://bar", "unsupported scheme", nil), false},
		{"cancelled", context.Canceled, false},
		{"deadline wrapped in transport", NewTransportError("read", context.DeadlineExceeded), false},
		{"exhausted", NewRetryExhaustedError(3, NewTransportError("dial", io.EOF)), false},
		{"validation", NewValidationError("topic", "empty", ""), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.expected {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryExhaustedKeepsCause(t *testing.T) {
	last := NewTransportError("dial", errors.New("connection refused"))
	err := NewRetryExhaustedError(3, last)

	if !IsRetryExhausted(err) {
		t.Fatal("expected retry exhausted")
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatal("expected last cause to stay reachable")
	}
	if err.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", err.Attempts)
	}
	if GetErrorCode(err) != CodeResourceExhausted {
		t.Fatalf("unexpected code %s", GetErrorCode(err))
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{nil, CodeOK},
		{context.Canceled, CodeCancelled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), CodeDeadlineExceeded},
		{NewEndpointError("x", "bad", nil), CodeEndpoint},
		{NewServiceError("node", "rejected", 500, nil), CodeServiceUnavailable},
		{NewStorageError("file", "write failed", io.ErrShortWrite), CodeStorageError},
		{errors.New("plain"), CodeInternal},
	}

	for _, tt := range tests {
		if got := GetErrorCode(tt.err); got != tt.code {
			t.Errorf("GetErrorCode(%v) = %s, want %s", tt.err, got, tt.code)
		}
	}
}

func TestCause(t *testing.T) {
	root := io.ErrUnexpectedEOF
	err := Wrap(NewTransportError("read", root), "receive")
	if Cause(err) != root {
		t.Errorf("expected root cause, got %v", Cause(err))
	}
	if GetErrorCode(err) != CodeNetworkError {
		t.Errorf("wrap should keep code, got %s", GetErrorCode(err))
	}
}
