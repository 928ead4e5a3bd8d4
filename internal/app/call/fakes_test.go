package call

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
)

type fakeDir struct {
	mu       sync.Mutex
	id       domain.ParticipantID
	regErr   error
	regCalls int
	dialErr  error
	dialGate chan struct{}
	dials    []domain.ParticipantID
	legs     []*fakeLeg
	incoming chan core.InboundCall
}

func newFakeDir(id domain.ParticipantID) *fakeDir {
	return &fakeDir{id: id, incoming: make(chan core.InboundCall, 4)}
}

func (d *fakeDir) Register(ctx context.Context) (domain.ParticipantID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regCalls++
	if d.regErr != nil {
		return "", d.regErr
	}
	return d.id, nil
}

func (d *fakeDir) setRegErr(err error) {
	d.mu.Lock()
	d.regErr = err
	d.mu.Unlock()
}

func (d *fakeDir) Dial(ctx context.Context, remote domain.ParticipantID, local *media.Stream) (core.CallLeg, error) {
	d.mu.Lock()
	gate, err := d.dialGate, d.dialErr
	d.dials = append(d.dials, remote)
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	leg := newFakeLeg(remote)
	d.mu.Lock()
	d.legs = append(d.legs, leg)
	d.mu.Unlock()
	return leg, nil
}

func (d *fakeDir) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDir) legCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.legs)
}

func (d *fakeDir) lastLeg() *fakeLeg {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.legs) == 0 {
		return nil
	}
	return d.legs[len(d.legs)-1]
}

func (d *fakeDir) Incoming() <-chan core.InboundCall { return d.incoming }
func (d *fakeDir) Close() error                      { return nil }

type fakeLeg struct {
	mu       sync.Mutex
	remote   domain.ParticipantID
	onStream func(*media.Stream)
	pending  *media.Stream
	onClosed func()
	replaced []*media.LocalTrack
	closed   bool
}

func newFakeLeg(remote domain.ParticipantID) *fakeLeg { return &fakeLeg{remote: remote} }

func (l *fakeLeg) Remote() domain.ParticipantID { return l.remote }

func (l *fakeLeg) OnRemoteStream(fn func(*media.Stream)) {
	l.mu.Lock()
	l.onStream = fn
	p := l.pending
	l.pending = nil
	l.mu.Unlock()
	if p != nil {
		fn(p)
	}
}

func (l *fakeLeg) OnClosed(fn func()) {
	l.mu.Lock()
	l.onClosed = fn
	l.mu.Unlock()
}

func (l *fakeLeg) ReplaceVideoTrack(t *media.LocalTrack) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("leg closed")
	}
	l.replaced = append(l.replaced, t)
	return nil
}

func (l *fakeLeg) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

// deliver hands a remote stream to the leg, before or after the callback is bound.
func (l *fakeLeg) deliver(st *media.Stream) {
	l.mu.Lock()
	fn := l.onStream
	if fn == nil {
		l.pending = st
	}
	l.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (l *fakeLeg) hangupRemote() {
	l.mu.Lock()
	fn := l.onClosed
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// bound reports whether the manager has attached its callbacks.
func (l *fakeLeg) bound() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onStream != nil && l.onClosed != nil
}

func (l *fakeLeg) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *fakeLeg) replacedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.replaced)
}

type fakeInbound struct {
	caller domain.ParticipantID
	// answerGate, when set, holds Answer until closed or ctx ends.
	answerGate chan struct{}

	mu       sync.Mutex
	rejected string
	answered bool
	leg      *fakeLeg
}

func (c *fakeInbound) Caller() domain.ParticipantID { return c.caller }

func (c *fakeInbound) Answer(ctx context.Context, local *media.Stream) (core.CallLeg, error) {
	if c.answerGate != nil {
		select {
		case <-c.answerGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answered = true
	c.leg = newFakeLeg(c.caller)
	return c.leg, nil
}

func (c *fakeInbound) Reject(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejected == "" {
		c.rejected = reason
	}
}

func (c *fakeInbound) rejection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejected
}

func (c *fakeInbound) answeredLeg() *fakeLeg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leg
}

// gatedCapture holds camera acquisition until release is closed.
type gatedCapture struct {
	Capture
	release chan struct{}
}

func (g *gatedCapture) AcquireCamera(ctx context.Context) (*media.Stream, error) {
	<-g.release
	return g.Capture.AcquireCamera(context.Background())
}
