package call

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Hangup ends the active call, or abandons one still being set up.
func (m *Manager) Hangup(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if !m.state.Active() || m.call == nil {
			return domain.ErrNoActiveCall
		}
		m.end(m.call, "hangup")
		return nil
	})
}

func (m *Manager) onRemoteClosed(gen uint64) {
	s := m.current(gen)
	if s == nil {
		return
	}
	m.end(s, "remote closed")
}

// end releases the session and lands in Ended.
func (m *Manager) end(s *session, reason string) {
	m.release(s, reason)
	m.setState(Ended)
	m.call = nil
}

// fail releases the session after a setup failure and returns to Registered.
func (m *Manager) fail(s *session, err error) {
	m.release(s, err.Error())
	m.call = nil
	m.setState(Registered)
	m.publishErr(err)
}

// release stops everything the session holds. Calling it twice is harmless.
func (m *Manager) release(s *session, reason string) {
	s.cancel()
	if s.leg != nil {
		s.leg.Close()
		s.leg = nil
	} else if s.inbound != nil {
		s.inbound.Reject(reason)
	}
	s.inbound = nil
	s.share.Stop()
	s.local.Stop()
	s.remoteStream.Stop()
	m.localPreview.Detach()
	m.remotePreview.Detach()
	log.Info().Str("module", "call").Str("remote", string(s.remote)).Str("reason", reason).Msg("session released")
}
