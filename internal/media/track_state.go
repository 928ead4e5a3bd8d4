package media

import "sync/atomic"

type TrackState int32

const (
	TrackLive TrackState = iota
	TrackMuted
	TrackStopped
)

func (s TrackState) String() string {
	switch s {
	case TrackLive:
		return "live"
	case TrackMuted:
		return "muted"
	case TrackStopped:
		return "stopped"
	}
	return "unknown"
}

// trackState is zero (TrackLive) by default. Stopped is terminal.
type trackState struct {
	v atomic.Int32
}

func (s *trackState) get() TrackState { return TrackState(s.v.Load()) }

func (s *trackState) setMuted(muted bool) {
	from, to := TrackLive, TrackMuted
	if !muted {
		from, to = TrackMuted, TrackLive
	}
	s.v.CompareAndSwap(int32(from), int32(to))
}

// stop reports whether this call performed the transition.
func (s *trackState) stop() bool {
	for {
		cur := s.v.Load()
		if TrackState(cur) == TrackStopped {
			return false
		}
		if s.v.CompareAndSwap(cur, int32(TrackStopped)) {
			return true
		}
	}
}
