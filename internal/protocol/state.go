package protocol

import "fmt"

type State int

const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshake"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Play:
		return "Play"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NextState is the intent carried by the handshake packet.
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// Valid reports whether n is one of the two states a client may request.
func (n NextState) Valid() bool {
	return n == NextStateStatus || n == NextStateLogin
}

// State returns the connection state the handshake switches to.
func (n NextState) State() State {
	if n == NextStateStatus {
		return Status
	}
	return Login
}
