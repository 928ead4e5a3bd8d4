package rendezvous

import (
	"context"
	"sync"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var _ core.CallLeg = (*leg)(nil)

// leg is one peer connection set up through the directory.
type leg struct {
	client *Client
	callID string
	remote domain.ParticipantID
	conn   core.MediaConnection
	cancel context.CancelFunc

	mu        sync.Mutex
	stream    *media.Stream
	delivered bool
	onStream  func(*media.Stream)
	onClosed  func()
	closed    bool
	once      sync.Once
}

func (c *Client) newLeg(callID string, remote domain.ParticipantID) (*leg, error) {
	conn, err := rtc.NewWebRTCConnection(c.opts.ICE, remote)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &leg{client: c, callID: callID, remote: remote, conn: conn, cancel: cancel}
	conn.OnTrack(l.addRemoteTrack)
	conn.OnClosed(l.connClosed)
	if err := conn.Start(ctx); err != nil {
		cancel()
		conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *leg) Remote() domain.ParticipantID { return l.remote }

func (l *leg) addRemoteTrack(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	rt := media.NewRemoteTrack(ctx, track)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		rt.Stop()
		return
	}
	if l.stream == nil {
		l.stream = media.NewStream(track.StreamID())
	}
	l.stream.Add(rt)
	st, fn := l.stream, l.onStream
	deliver := fn != nil && !l.delivered
	if deliver {
		l.delivered = true
	}
	l.mu.Unlock()
	if deliver {
		fn(st)
	}
}

func (l *leg) OnRemoteStream(fn func(*media.Stream)) {
	l.mu.Lock()
	l.onStream = fn
	st := l.stream
	deliver := st != nil && !l.delivered
	if deliver {
		l.delivered = true
	}
	l.mu.Unlock()
	if deliver {
		fn(st)
	}
}

func (l *leg) OnClosed(fn func()) {
	l.mu.Lock()
	closed := l.closed
	l.onClosed = fn
	l.mu.Unlock()
	if closed {
		fn()
	}
}

func (l *leg) ReplaceVideoTrack(t *media.LocalTrack) error {
	return l.conn.ReplaceVideoTrack(t)
}

// Close hangs up: the remote side is told and the peer connection torn down.
func (l *leg) Close() error {
	l.shutdown(true)
	return nil
}

func (l *leg) shutdown(notify bool) {
	l.once.Do(func() {
		l.client.forget(l.callID)
		if notify {
			if err := l.client.send(signal.Message{Type: signal.TypeHangup, To: l.remote, CallID: l.callID}); err != nil {
				log.Debug().Err(err).Str("module", "rendezvous").Str("call_id", l.callID).Msg("hangup not delivered")
			}
		}
		l.cancel()
		l.conn.Close()
	})
}

// connClosed runs once when the peer connection fails or is closed.
func (l *leg) connClosed() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	fn := l.onClosed
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
	l.client.forget(l.callID)
}
