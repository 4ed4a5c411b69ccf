package client

import "fmt"

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// link is the client's connection slot. The channel is only reachable
// through the connected variant.
type link interface {
	state() State
}

type disconnected struct{}

type connecting struct {
	attempt uint
}

type connected struct {
	ch Channel
}

func (disconnected) state() State { return StateDisconnected }
func (connecting) state() State   { return StateConnecting }
func (connected) state() State    { return StateConnected }
