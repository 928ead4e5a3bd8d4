package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/rs/zerolog/log"
)

// Call places a call to remote. With a nil local stream the camera is
// acquired first. The returned error covers preconditions only; the outcome
// arrives on Notices.
func (m *Manager) Call(ctx context.Context, remote domain.ParticipantID, local *media.Stream) error {
	return m.exec(ctx, func() error {
		switch {
		case m.state == Unregistered:
			return domain.ErrNotRegistered
		case m.state.Active():
			return domain.ErrCallAlreadyActive
		case !remote.Valid() || remote == m.self:
			return fmt.Errorf("%w: %q", domain.ErrPeerUnreachable, remote)
		}
		s := m.begin(Outgoing, remote)
		m.setState(Calling)
		if local != nil {
			m.onCamera(s.gen, local, nil)
			return nil
		}
		go func() {
			st, err := m.capture.AcquireCamera(s.ctx)
			if !m.post(func() { m.onCamera(s.gen, st, err) }) {
				st.Stop()
			}
		}()
		return nil
	})
}

func (m *Manager) onCamera(gen uint64, st *media.Stream, err error) {
	s := m.current(gen)
	if s == nil {
		st.Stop()
		return
	}
	if err != nil {
		m.fail(s, err)
		return
	}
	s.local = st
	m.localPreview.Attach(st)
	switch s.dir {
	case Outgoing:
		m.startDial(s)
	case Incoming:
		m.startAnswer(s)
	}
}

func (m *Manager) startDial(s *session) {
	dir, remote, local, gen := m.dir, s.remote, s.local, s.gen
	go func() {
		leg, err := dir.Dial(s.ctx, remote, local)
		if !m.post(func() { m.onLeg(gen, leg, err) }) && leg != nil {
			leg.Close()
		}
	}()
}

// onLeg binds an established leg to the session that asked for it.
func (m *Manager) onLeg(gen uint64, leg core.CallLeg, err error) {
	s := m.current(gen)
	if s == nil {
		if leg != nil {
			leg.Close()
		}
		return
	}
	if err != nil {
		if s.dir == Outgoing && !errors.Is(err, domain.ErrPeerUnreachable) && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", domain.ErrPeerUnreachable, err)
		}
		m.fail(s, err)
		return
	}
	s.leg = leg
	leg.OnRemoteStream(func(st *media.Stream) {
		if !m.post(func() { m.onRemoteStream(gen, st) }) {
			st.Stop()
		}
	})
	leg.OnClosed(func() {
		m.post(func() { m.onRemoteClosed(gen) })
	})
	log.Info().Str("module", "call").Str("remote", string(s.remote)).Str("dir", s.dir.String()).Msg("leg established")
}

// onRemoteStream completes the call: the first remote media moves it to InCall.
func (m *Manager) onRemoteStream(gen uint64, st *media.Stream) {
	s := m.current(gen)
	if s == nil {
		log.Error().Str("module", "call").Str("stream", st.ID()).Msg("remote media without a call, dropping")
		st.Stop()
		return
	}
	if s.remoteStream != nil && s.remoteStream != st {
		s.remoteStream.Stop()
	}
	s.remoteStream = st
	m.remotePreview.Attach(st)
	if m.state != InCall {
		m.setState(InCall)
	}
}
