// Package rendezvous is the client side of the rendezvous directory: it
// registers over a WebSocket and sets up pion call legs by exchanging
// offers and answers through it.
package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("rendezvous client closed")

var _ core.Directory = (*Client)(nil)

type Options struct {
	URL string
	ICE webrtc.Configuration
	// RingTimeout bounds how long Dial waits for an answer. Zero waits for ctx.
	RingTimeout time.Duration
	PingPeriod  time.Duration
	IncomingBuf int
}

type Client struct {
	opts     Options
	incoming chan core.InboundCall
	closed   chan struct{}
	once     sync.Once

	writeMu sync.Mutex

	mu       sync.Mutex
	conn     *websocket.Conn
	connDone chan struct{}
	self     domain.ParticipantID
	regWait  chan domain.ParticipantID
	pending  map[string]chan signal.Message
	legs     map[string]*leg
	ringing  map[string]*inbound
}

func New(opts Options) *Client {
	if opts.IncomingBuf <= 0 {
		opts.IncomingBuf = 4
	}
	return &Client{
		opts:     opts,
		incoming: make(chan core.InboundCall, opts.IncomingBuf),
		closed:   make(chan struct{}),
		regWait:  make(chan domain.ParticipantID, 1),
		pending:  make(map[string]chan signal.Message),
		legs:     make(map[string]*leg),
		ringing:  make(map[string]*inbound),
	}
}

func (c *Client) Incoming() <-chan core.InboundCall { return c.incoming }

func (c *Client) Self() domain.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

// Register connects if needed and asks the directory for an identity.
func (c *Client) Register(ctx context.Context) (domain.ParticipantID, error) {
	done, err := c.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
	}
	if err := c.send(signal.Message{Type: signal.TypeRegister}); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
	}
	select {
	case id := <-c.regWait:
		c.mu.Lock()
		c.self = id
		c.mu.Unlock()
		log.Info().Str("module", "rendezvous").Str("self", string(id)).Msg("registered")
		return id, nil
	case <-done:
		return "", fmt.Errorf("%w: connection lost", domain.ErrRegistrationFailed)
	case <-c.closed:
		return "", fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, ErrClosed)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, ctx.Err())
	}
}

func (c *Client) connect(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return nil, ErrClosed
	default:
	}
	if c.conn != nil {
		select {
		case <-c.connDone:
		default:
			return c.connDone, nil
		}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.connDone = make(chan struct{})
	go c.readLoop(conn, c.connDone)
	if c.opts.PingPeriod > 0 {
		go c.keepalive(c.connDone)
	}
	log.Info().Str("module", "rendezvous").Str("url", c.opts.URL).Msg("connected")
	return c.connDone, nil
}

func (c *Client) send(m signal.Message) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return conn.WriteJSON(m)
}

func (c *Client) keepalive(done <-chan struct{}) {
	t := time.NewTicker(c.opts.PingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := c.send(signal.Message{Type: signal.TypePing}); err != nil {
				log.Warn().Err(err).Str("module", "rendezvous").Msg("ping failed")
				return
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		c.mu.Lock()
		pending := c.pending
		c.pending = make(map[string]chan signal.Message)
		c.mu.Unlock()
		for _, ch := range pending {
			ch <- signal.Message{Type: signal.TypeError, Code: signal.CodePeerUnreachable}
		}
		_ = conn.Close()
	}()
	for {
		var m signal.Message
		if err := conn.ReadJSON(&m); err != nil {
			select {
			case <-c.closed:
			default:
				log.Warn().Err(err).Str("module", "rendezvous").Msg("read loop stopped")
			}
			return
		}
		c.dispatch(m)
	}
}

func (c *Client) dispatch(m signal.Message) {
	switch m.Type {
	case signal.TypeRegistered:
		select {
		case c.regWait <- m.ID:
		default:
		}
	case signal.TypeOffer:
		c.onOffer(m)
	case signal.TypeAnswer, signal.TypeReject, signal.TypeError:
		c.mu.Lock()
		ch, ok := c.pending[m.CallID]
		delete(c.pending, m.CallID)
		c.mu.Unlock()
		if ok {
			ch <- m
			return
		}
		if m.Type == signal.TypeError {
			log.Warn().Str("module", "rendezvous").Str("code", m.Code).Str("call_id", m.CallID).Msg("directory error")
		}
	case signal.TypeHangup:
		c.onHangup(m)
	case signal.TypeCandidate:
		c.mu.Lock()
		l := c.legs[m.CallID]
		c.mu.Unlock()
		if l != nil && m.Candidate != nil {
			if err := l.conn.AddICECandidate(*m.Candidate); err != nil {
				log.Warn().Err(err).Str("module", "rendezvous").Str("call_id", m.CallID).Msg("add candidate")
			}
		}
	case signal.TypePong:
	default:
		log.Debug().Str("module", "rendezvous").Str("type", m.Type).Msg("ignored message")
	}
}

func (c *Client) onOffer(m signal.Message) {
	in := &inbound{
		client: c,
		from:   m.From,
		callID: m.CallID,
		offer:  webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: m.SDP},
	}
	c.mu.Lock()
	c.ringing[m.CallID] = in
	c.mu.Unlock()
	select {
	case c.incoming <- in:
		log.Info().Str("module", "rendezvous").Str("from", string(m.From)).Str("call_id", m.CallID).Msg("incoming call")
	default:
		in.Reject("busy")
	}
}

func (c *Client) onHangup(m signal.Message) {
	c.mu.Lock()
	l := c.legs[m.CallID]
	in := c.ringing[m.CallID]
	delete(c.ringing, m.CallID)
	c.mu.Unlock()
	if in != nil {
		in.cancel()
	}
	if l != nil {
		log.Info().Str("module", "rendezvous").Str("remote", string(l.remote)).Str("call_id", m.CallID).Msg("remote hung up")
		l.shutdown(false)
	}
}

func (c *Client) track(l *leg) {
	c.mu.Lock()
	c.legs[l.callID] = l
	delete(c.ringing, l.callID)
	c.mu.Unlock()
}

func (c *Client) forget(callID string) {
	c.mu.Lock()
	delete(c.legs, callID)
	delete(c.ringing, callID)
	delete(c.pending, callID)
	c.mu.Unlock()
}

// Close drops the directory connection and every leg it set up.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.closed) })
	c.mu.Lock()
	conn := c.conn
	legs := make([]*leg, 0, len(c.legs))
	for _, l := range c.legs {
		legs = append(legs, l)
	}
	c.mu.Unlock()
	for _, l := range legs {
		l.shutdown(true)
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
