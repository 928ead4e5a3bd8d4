package call

import (
	"github.com/dkeye/Huddle/internal/domain"
)

type State int

const (
	Unregistered State = iota
	Registered
	Calling
	Ringing
	InCall
	Ended
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Calling:
		return "calling"
	case Ringing:
		return "ringing"
	case InCall:
		return "in_call"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Idle states accept a new outgoing or incoming call.
func (s State) Idle() bool { return s == Registered || s == Ended }

// Active states hold a call session.
func (s State) Active() bool { return s == Calling || s == Ringing || s == InCall }

type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// Notice is published for every state change and every failure that the
// UI should surface. Err is nil for plain state changes.
type Notice struct {
	State  State
	Self   domain.ParticipantID
	Remote domain.ParticipantID
	Err    error
}

type Snapshot struct {
	State     State
	Self      domain.ParticipantID
	Remote    domain.ParticipantID
	Direction Direction
	Sharing   bool
}
