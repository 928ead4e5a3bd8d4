package call

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/rs/zerolog/log"
)

// ShareScreen swaps the outgoing video for a display capture. Audio keeps
// flowing from the camera stream.
func (m *Manager) ShareScreen(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if m.state != InCall || m.call == nil {
			return domain.ErrNoActiveCall
		}
		s := m.call
		go func() {
			st, err := m.capture.AcquireDisplay(s.ctx)
			if !m.post(func() { m.onDisplay(s.gen, st, err) }) {
				st.Stop()
			}
		}()
		return nil
	})
}

func (m *Manager) onDisplay(gen uint64, st *media.Stream, err error) {
	s := m.current(gen)
	if s == nil || m.state != InCall {
		st.Stop()
		return
	}
	if err != nil {
		// A cancelled picker leaves the call untouched.
		m.publishErr(err)
		return
	}
	video, ok := st.Video().(*media.LocalTrack)
	if !ok || s.leg == nil {
		st.Stop()
		m.publishErr(domain.ErrDeviceUnavailable)
		return
	}
	if err := s.leg.ReplaceVideoTrack(video); err != nil {
		st.Stop()
		m.publishErr(err)
		return
	}
	if s.share != nil {
		s.share.Stop()
	} else if cam := s.local.Video(); cam != nil {
		cam.Stop()
	}
	s.share = st
	m.localPreview.Attach(st)
	log.Info().Str("module", "call").Str("remote", string(s.remote)).Str("stream", st.ID()).Msg("screen share started")
	m.setState(InCall)
}
