package rendezvous

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Dial sends an offer carrying local to remote and waits for the answer.
// ICE candidates travel inside the SDP.
func (c *Client) Dial(ctx context.Context, remote domain.ParticipantID, local *media.Stream) (core.CallLeg, error) {
	if c.Self() == "" {
		return nil, domain.ErrNotRegistered
	}
	if local == nil {
		return nil, domain.ErrNoActiveStream
	}
	if c.opts.RingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RingTimeout)
		defer cancel()
	}

	callID := uuid.NewString()
	l, err := c.newLeg(callID, remote)
	if err != nil {
		return nil, err
	}
	if err := l.conn.AddStream(local); err != nil {
		l.shutdown(false)
		return nil, err
	}
	offer, err := l.conn.CreateOffer()
	if err != nil {
		l.shutdown(false)
		return nil, err
	}

	reply := make(chan signal.Message, 1)
	c.mu.Lock()
	c.pending[callID] = reply
	c.mu.Unlock()

	started := time.Now()
	if err := c.send(signal.Message{Type: signal.TypeOffer, To: remote, CallID: callID, SDP: offer.SDP}); err != nil {
		c.forget(callID)
		l.shutdown(false)
		return nil, fmt.Errorf("%w: %v", domain.ErrPeerUnreachable, err)
	}
	log.Info().Str("module", "rendezvous").Str("remote", string(remote)).Str("call_id", callID).Msg("offer sent")

	select {
	case m := <-reply:
		switch m.Type {
		case signal.TypeAnswer:
			if err := l.conn.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: m.SDP}); err != nil {
				l.shutdown(true)
				return nil, err
			}
			c.track(l)
			log.Info().
				Str("module", "rendezvous").
				Str("remote", string(remote)).
				Str("call_id", callID).
				Dur("ring", time.Since(started)).
				Msg("call answered")
			return l, nil
		case signal.TypeReject:
			l.shutdown(false)
			return nil, fmt.Errorf("%w: rejected (%s)", domain.ErrPeerUnreachable, m.Reason)
		default:
			l.shutdown(false)
			return nil, fmt.Errorf("%w: %s", domain.ErrPeerUnreachable, m.Code)
		}
	case <-ctx.Done():
		c.forget(callID)
		l.shutdown(true)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: no answer", domain.ErrPeerUnreachable)
		}
		return nil, ctx.Err()
	case <-c.closed:
		l.shutdown(false)
		return nil, ErrClosed
	}
}
