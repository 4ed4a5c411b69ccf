// Package transport is the duplex, message-framed byte channel the overlay
// protocol runs on.
package transport

import "context"

// Conn is one open connection carrying whole binary frames.
type Conn interface {
	// WriteFrame sends one frame.
	WriteFrame(ctx context.Context, frame []byte) error
	// ReadFrame blocks until the next binary frame arrives. Non-binary
	// messages are skipped. An orderly close by the peer surfaces as an
	// error wrapping io.EOF.
	ReadFrame(ctx context.Context) ([]byte, error)
	// Close releases the connection.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}
