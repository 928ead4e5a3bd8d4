package call

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/rs/zerolog/log"
)

// onInbound rings when idle and turns the caller away otherwise.
func (m *Manager) onInbound(in core.InboundCall) {
	if m.stopped || !m.state.Idle() {
		log.Info().Str("module", "call").Str("caller", string(in.Caller())).Str("state", m.state.String()).Msg("busy, rejecting")
		in.Reject("busy")
		return
	}
	s := m.begin(Incoming, in.Caller())
	s.inbound = in
	m.setState(Ringing)
	go func() {
		st, err := m.capture.AcquireCamera(s.ctx)
		if !m.post(func() { m.onCamera(s.gen, st, err) }) {
			st.Stop()
		}
	}()
}

func (m *Manager) startAnswer(s *session) {
	in, local, gen := s.inbound, s.local, s.gen
	go func() {
		leg, err := in.Answer(s.ctx, local)
		if !m.post(func() { m.onLeg(gen, leg, err) }) && leg != nil {
			leg.Close()
		}
	}()
}
