package protocol

import (
	"errors"
	"fmt"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
)

// ErrMalformedFrame is matched by every DecodeError.
var ErrMalformedFrame = errors.New("malformed frame")

// DecodeError describes a frame that could not be decoded. It is never
// fatal to a connection; readers skip the frame.
type DecodeError struct {
	Kind   Kind
	Length int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s frame (%d bytes): %s", e.Kind, e.Length, e.Reason)
}

// Is reports whether target is ErrMalformedFrame.
func (e *DecodeError) Is(target error) bool { return target == ErrMalformedFrame }

// Code implements errors.Error.
func (e *DecodeError) Code() string { return overlayerrors.CodeMalformedFrame }

// Message implements errors.Error.
func (e *DecodeError) Message() string { return e.Error() }

// Unwrap implements errors.Error.
func (e *DecodeError) Unwrap() error { return nil }

// IsDecodeError reports whether err is a DecodeError.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrMalformedFrame)
}
