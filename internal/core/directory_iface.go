package core

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
)

// Directory is the rendezvous directory as seen by a client: it hands out
// the local identity and lets participants dial each other by identity.
type Directory interface {
	// Register obtains the identity for this session.
	Register(ctx context.Context) (domain.ParticipantID, error)
	// Dial places a call carrying local and returns once the remote party
	// answered. An unknown or unreachable identity yields ErrPeerUnreachable.
	Dial(ctx context.Context, remote domain.ParticipantID, local *media.Stream) (CallLeg, error)
	// Incoming delivers calls addressed to this participant.
	Incoming() <-chan InboundCall
	Close() error
}

// InboundCall is a call waiting to be answered or rejected.
type InboundCall interface {
	Caller() domain.ParticipantID
	Answer(ctx context.Context, local *media.Stream) (CallLeg, error)
	Reject(reason string)
}

// CallLeg is one established peer connection.
// Callbacks may fire from any goroutine; a stream that arrived before
// OnRemoteStream was set is delivered when it is set.
type CallLeg interface {
	Remote() domain.ParticipantID
	OnRemoteStream(fn func(*media.Stream))
	OnClosed(fn func())
	// ReplaceVideoTrack swaps the outgoing video without renegotiation.
	ReplaceVideoTrack(t *media.LocalTrack) error
	Close() error
}
