// Package domain contains entities without transport logic, just meta-data and
// the rules that keep them valid.
package domain

import (
	"github.com/google/uuid"
)

const MaxParticipantIDLen = 36

// ParticipantID is assigned once by the rendezvous directory and never changes
// for the lifetime of a session.
type ParticipantID string

// NewParticipantID is used by the directory when a client registers.
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

func (id ParticipantID) Valid() bool {
	return id != "" && len(id) <= MaxParticipantIDLen
}

func (id ParticipantID) String() string { return string(id) }
