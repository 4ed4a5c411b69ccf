package protocol

import "fmt"

// Kind identifies the package variant carried by a frame.
type Kind uint8

const (
	KindMessage      Kind = 0b00
	KindSubscribe    Kind = 0b01
	KindRegistration Kind = 0b10
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindSubscribe:
		return "subscribe"
	case KindRegistration:
		return "registration"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Package is one of Subscribe, Registration or Message.
type Package interface {
	Kind() Kind
	isPackage()
}

// Subscribe announces the intent to start (IsSub) or stop receiving
// messages for Topic.
type Subscribe struct {
	IsSub    bool
	RouteKey RouteKey
	Topic    string
}

// Registration announces the sender's role.
type Registration struct {
	IsRouter bool
}

// Message is a published message.
type Message struct {
	RouteKey RouteKey
	Topic    string
	Payload  []byte
}

func (Subscribe) Kind() Kind    { return KindSubscribe }
func (Registration) Kind() Kind { return KindRegistration }
func (Message) Kind() Kind      { return KindMessage }

func (Subscribe) isPackage()    {}
func (Registration) isPackage() {}
func (Message) isPackage()      {}

// NewSubscribe builds a Subscribe package with the route key of topic.
func NewSubscribe(topic string, isSub bool) Subscribe {
	return Subscribe{IsSub: isSub, RouteKey: Hash(topic), Topic: topic}
}

// NewMessage builds a Message package with the route key of topic.
func NewMessage(topic string, payload []byte) Message {
	return Message{RouteKey: Hash(topic), Topic: topic, Payload: payload}
}
