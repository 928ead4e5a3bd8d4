package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrAlreadySettled = errors.New("call already answered or rejected")

var _ core.InboundCall = (*inbound)(nil)

type inbound struct {
	client *Client
	from   domain.ParticipantID
	callID string
	offer  webrtc.SessionDescription

	mu        sync.Mutex
	settled   bool
	cancelled bool
}

func (in *inbound) Caller() domain.ParticipantID { return in.from }

// cancel marks the call as abandoned by the caller.
func (in *inbound) cancel() {
	in.mu.Lock()
	in.cancelled = true
	in.mu.Unlock()
}

func (in *inbound) settle() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancelled {
		return fmt.Errorf("%w: caller hung up", domain.ErrPeerUnreachable)
	}
	if in.settled {
		return ErrAlreadySettled
	}
	in.settled = true
	return nil
}

func (in *inbound) Answer(ctx context.Context, local *media.Stream) (core.CallLeg, error) {
	if local == nil {
		return nil, domain.ErrNoActiveStream
	}
	if err := in.settle(); err != nil {
		return nil, err
	}
	c := in.client
	l, err := c.newLeg(in.callID, in.from)
	if err != nil {
		in.sendReject("error")
		return nil, err
	}
	if err := l.conn.AddStream(local); err != nil {
		l.shutdown(false)
		in.sendReject("error")
		return nil, err
	}
	answer, err := l.conn.ApplyOfferAndCreateAnswer(in.offer)
	if err != nil {
		l.shutdown(false)
		in.sendReject("error")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		l.shutdown(false)
		in.sendReject("cancelled")
		return nil, err
	}
	c.track(l)
	if err := c.send(signal.Message{Type: signal.TypeAnswer, To: in.from, CallID: in.callID, SDP: answer.SDP}); err != nil {
		l.shutdown(false)
		return nil, fmt.Errorf("%w: %v", domain.ErrPeerUnreachable, err)
	}
	log.Info().Str("module", "rendezvous").Str("caller", string(in.from)).Str("call_id", in.callID).Msg("call answered")
	return l, nil
}

func (in *inbound) Reject(reason string) {
	if err := in.settle(); err != nil {
		return
	}
	in.sendReject(reason)
}

func (in *inbound) sendReject(reason string) {
	in.client.forget(in.callID)
	if err := in.client.send(signal.Message{Type: signal.TypeReject, To: in.from, CallID: in.callID, Reason: reason}); err != nil {
		log.Debug().Err(err).Str("module", "rendezvous").Str("call_id", in.callID).Msg("reject not delivered")
		return
	}
	log.Info().Str("module", "rendezvous").Str("caller", string(in.from)).Str("reason", reason).Msg("call rejected")
}
