package directory

import "github.com/dkeye/Huddle/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	Disconnect
)

// Policy decides what happens when a participant's outbound queue is full.
type Policy interface {
	OnBackPressure(to domain.ParticipantID, msgType string) BackpressureAction
}

// SimplePolicy drops ICE candidates and disconnects on anything else.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(to domain.ParticipantID, msgType string) BackpressureAction {
	if msgType == "candidate" {
		return DropFrame
	}
	return Disconnect
}
