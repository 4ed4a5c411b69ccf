package protocol

import (
	"encoding/binary"
	"unicode/utf8"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
)

const (
	headerSize   = 1
	routeKeySize = 8

	kindShift = 6
	flagBit   = 1 << 5

	// MinRegistrationSize is the exact size of a Registration frame.
	MinRegistrationSize = headerSize
	// MinSubscribeSize is the smallest Subscribe frame (empty topic).
	MinSubscribeSize = headerSize + routeKeySize
	// MinMessageSize is the smallest Message frame (empty topic, separator, no payload).
	MinMessageSize = headerSize + routeKeySize + 1

	separator = 0x00
)

func header(kind Kind, flag bool) byte {
	b := byte(kind) << kindShift
	if flag {
		b |= flagBit
	}
	return b
}

// Encode converts a package to its wire representation.
func Encode(p Package) ([]byte, error) {
	switch pkg := p.(type) {
	case Registration:
		return []byte{header(KindRegistration, pkg.IsRouter)}, nil
	case *Registration:
		return Encode(*pkg)

	case Subscribe:
		if !utf8.ValidString(pkg.Topic) {
			return nil, overlayerrors.NewValidationError("topic", "topic is not valid UTF-8", pkg.Topic)
		}
		buf := make([]byte, MinSubscribeSize, MinSubscribeSize+len(pkg.Topic))
		buf[0] = header(KindSubscribe, pkg.IsSub)
		binary.BigEndian.PutUint64(buf[headerSize:], uint64(pkg.RouteKey))
		return append(buf, pkg.Topic...), nil
	case *Subscribe:
		return Encode(*pkg)

	case Message:
		if err := ValidateTopic(pkg.Topic); err != nil {
			return nil, err
		}
		buf := make([]byte, headerSize+routeKeySize, MinMessageSize+len(pkg.Topic)+len(pkg.Payload))
		buf[0] = header(KindMessage, false)
		binary.BigEndian.PutUint64(buf[headerSize:], uint64(pkg.RouteKey))
		buf = append(buf, pkg.Topic...)
		buf = append(buf, separator)
		return append(buf, pkg.Payload...), nil
	case *Message:
		return Encode(*pkg)

	default:
		return nil, overlayerrors.NewValidationError("package", "unsupported package", p)
	}
}

// MustEncode is Encode for packages known to be valid. It panics otherwise.
func MustEncode(p Package) []byte {
	b, err := Encode(p)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode parses one frame. It never panics on short or garbled input.
func Decode(frame []byte) (Package, error) {
	if len(frame) < headerSize {
		return nil, &DecodeError{Length: len(frame), Reason: "empty frame"}
	}

	kind := Kind(frame[0] >> kindShift)
	flag := frame[0]&flagBit != 0

	switch kind {
	case KindRegistration:
		if len(frame) != headerSize {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "registration carries trailing bytes"}
		}
		return Registration{IsRouter: flag}, nil

	case KindSubscribe:
		if len(frame) < MinSubscribeSize {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "shorter than route key"}
		}
		topic := frame[MinSubscribeSize:]
		if !utf8.Valid(topic) {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "topic is not valid UTF-8"}
		}
		return Subscribe{
			IsSub:    flag,
			RouteKey: RouteKey(binary.BigEndian.Uint64(frame[headerSize:])),
			Topic:    string(topic),
		}, nil

	case KindMessage:
		if len(frame) < MinMessageSize {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "shorter than route key and separator"}
		}
		rest := frame[headerSize+routeKeySize:]
		end := indexSeparator(rest)
		if end < 0 {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "missing topic separator"}
		}
		if !utf8.Valid(rest[:end]) {
			return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "topic is not valid UTF-8"}
		}
		var payload []byte
		if n := len(rest) - end - 1; n > 0 {
			payload = make([]byte, n)
			copy(payload, rest[end+1:])
		}
		return Message{
			RouteKey: RouteKey(binary.BigEndian.Uint64(frame[headerSize:])),
			Topic:    string(rest[:end]),
			Payload:  payload,
		}, nil

	default:
		return nil, &DecodeError{Kind: kind, Length: len(frame), Reason: "unknown type tag"}
	}
}

func indexSeparator(b []byte) int {
	for i, c := range b {
		if c == separator {
			return i
		}
	}
	return -1
}

func containsSeparator(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == separator {
			return true
		}
	}
	return false
}

// ValidateTopic reports whether topic can travel in every frame kind:
// valid UTF-8 without NUL bytes.
func ValidateTopic(topic string) error {
	if !utf8.ValidString(topic) {
		return overlayerrors.NewValidationError("topic", "topic is not valid UTF-8", topic)
	}
	if containsSeparator(topic) {
		return overlayerrors.NewValidationError("topic", "topic must not contain a NUL byte", topic)
	}
	return nil
}
