// Package call owns the local participant's identity and its single call
// session. All state lives in one event loop; external happenings are posted
// to it as transition functions and run to completion one at a time.
package call

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("call manager stopped")

// Capture is the part of the capture manager the session needs.
type Capture interface {
	AcquireCamera(ctx context.Context) (*media.Stream, error)
	AcquireDisplay(ctx context.Context) (*media.Stream, error)
}

type Options struct {
	QueueSize    int
	NoticeBuffer int
}

type Manager struct {
	dir     core.Directory
	capture Capture
	events  chan func()
	notices chan Notice
	done    chan struct{}

	postMu sync.RWMutex
	closed bool

	localPreview  *media.Slot
	remotePreview *media.Slot

	snapMu sync.RWMutex
	snap   Snapshot

	// Owned by the loop.
	ctx         context.Context
	state       State
	self        domain.ParticipantID
	registering bool
	listening   bool
	stopped     bool
	gen         uint64
	call        *session
}

// session is one placed or answered call.
type session struct {
	gen     uint64
	dir     Direction
	remote  domain.ParticipantID
	ctx     context.Context
	cancel  context.CancelFunc
	inbound core.InboundCall
	leg     core.CallLeg

	local        *media.Stream
	share        *media.Stream
	remoteStream *media.Stream
}

func NewManager(dir core.Directory, capture Capture, opts Options) *Manager {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.NoticeBuffer <= 0 {
		opts.NoticeBuffer = 64
	}
	return &Manager{
		dir:           dir,
		capture:       capture,
		events:        make(chan func(), opts.QueueSize),
		notices:       make(chan Notice, opts.NoticeBuffer),
		done:          make(chan struct{}),
		localPreview:  media.NewSlot("local"),
		remotePreview: media.NewSlot("remote"),
		ctx:           context.Background(),
	}
}

func (m *Manager) Notices() <-chan Notice     { return m.notices }
func (m *Manager) LocalPreview() *media.Slot  { return m.localPreview }
func (m *Manager) RemotePreview() *media.Slot { return m.remotePreview }

func (m *Manager) Snapshot() Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snap
}

// Run requests an identity and then processes events until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	m.startRegistration()
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case ev := <-m.events:
			ev()
		}
	}
}

// Register retries identity registration. It never retries on its own.
func (m *Manager) Register(ctx context.Context) error {
	return m.exec(ctx, func() error {
		m.startRegistration()
		return nil
	})
}

// post queues ev for the loop. It reports false once the loop is gone, in
// which case the caller still owns whatever ev would have consumed.
func (m *Manager) post(ev func()) bool {
	m.postMu.RLock()
	defer m.postMu.RUnlock()
	if m.closed {
		return false
	}
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

// exec runs fn on the loop and waits for its precondition result.
func (m *Manager) exec(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	ok := m.post(func() {
		if m.stopped {
			reply <- ErrStopped
			return
		}
		reply <- fn()
	})
	if !ok {
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
}

func (m *Manager) startRegistration() {
	if m.state != Unregistered || m.registering {
		return
	}
	m.registering = true
	ctx := m.ctx
	go func() {
		id, err := m.dir.Register(ctx)
		m.post(func() { m.onRegistered(id, err) })
	}()
}

func (m *Manager) onRegistered(id domain.ParticipantID, err error) {
	m.registering = false
	if m.stopped || m.state != Unregistered {
		return
	}
	if err == nil && !id.Valid() {
		err = errors.New("directory returned an empty identity")
	}
	if err != nil {
		if !errors.Is(err, domain.ErrRegistrationFailed) {
			err = errors.Join(domain.ErrRegistrationFailed, err)
		}
		m.publishErr(err)
		return
	}
	m.self = id
	log.Info().Str("module", "call").Str("self", string(id)).Msg("registered")
	m.setState(Registered)
	if !m.listening {
		m.listening = true
		go m.listen(m.dir.Incoming())
	}
}

func (m *Manager) listen(in <-chan core.InboundCall) {
	for {
		select {
		case <-m.done:
			return
		case call, ok := <-in:
			if !ok {
				return
			}
			if !m.post(func() { m.onInbound(call) }) {
				call.Reject("unavailable")
				return
			}
		}
	}
}

// current returns the live session for gen, nil when gen is stale.
func (m *Manager) current(gen uint64) *session {
	if m.call != nil && m.call.gen == gen {
		return m.call
	}
	return nil
}

func (m *Manager) begin(dir Direction, remote domain.ParticipantID) *session {
	m.gen++
	ctx, cancel := context.WithCancel(m.ctx)
	m.call = &session{gen: m.gen, dir: dir, remote: remote, ctx: ctx, cancel: cancel}
	return m.call
}

func (m *Manager) setState(s State) {
	m.state = s
	remote := domain.ParticipantID("")
	n := Snapshot{State: s, Self: m.self}
	if m.call != nil {
		remote = m.call.remote
		n.Remote = remote
		n.Direction = m.call.dir
		n.Sharing = m.call.share != nil
	}
	m.snapMu.Lock()
	m.snap = n
	m.snapMu.Unlock()
	log.Info().Str("module", "call").Str("state", s.String()).Str("remote", string(remote)).Msg("state changed")
	m.publish(Notice{State: s, Self: m.self, Remote: remote})
}

func (m *Manager) publishErr(err error) {
	log.Warn().Err(err).Str("module", "call").Str("state", m.state.String()).Msg("call notice")
	n := Notice{State: m.state, Self: m.self, Err: err}
	if m.call != nil {
		n.Remote = m.call.remote
	}
	m.publish(n)
}

func (m *Manager) publish(n Notice) {
	select {
	case m.notices <- n:
	default:
		log.Warn().Str("module", "call").Str("state", n.State.String()).Msg("notice dropped, nobody is reading")
	}
}

func (m *Manager) shutdown() {
	m.stopped = true
	if m.call != nil {
		m.release(m.call, "shutdown")
		m.call = nil
	}
	close(m.done)
	m.postMu.Lock()
	m.closed = true
	m.postMu.Unlock()
	for {
		select {
		case ev := <-m.events:
			ev()
		default:
			log.Info().Str("module", "call").Msg("manager stopped")
			return
		}
	}
}
