package signal

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Message types on the rendezvous socket.
const (
	TypeRegister   = "register"
	TypeRegistered = "registered"
	TypeOffer      = "offer"
	TypeAnswer     = "answer"
	TypeReject     = "reject"
	TypeHangup     = "hangup"
	TypeCandidate  = "candidate"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Error codes carried by TypeError.
const (
	CodePeerUnreachable = "peer_unreachable"
	CodeNotRegistered   = "not_registered"
	CodeRateLimited     = "rate_limited"
	CodeBadPayload      = "bad_payload"
)

// Message is the single JSON envelope exchanged with the directory. Routed
// messages name the recipient in To; the directory fills From.
type Message struct {
	Type      string                   `json:"type"`
	ID        domain.ParticipantID     `json:"id,omitempty"`
	From      domain.ParticipantID     `json:"from,omitempty"`
	To        domain.ParticipantID     `json:"to,omitempty"`
	CallID    string                   `json:"call_id,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
	Code      string                   `json:"code,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// Routed reports whether the directory forwards this type to another peer.
func Routed(msgType string) bool {
	switch msgType {
	case TypeOffer, TypeAnswer, TypeReject, TypeHangup, TypeCandidate:
		return true
	}
	return false
}
