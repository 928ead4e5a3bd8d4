package media

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Stream is a live set of tracks. It is not owned by any single component:
// it lives until stopped or replaced.
type Stream struct {
	id string

	mu     sync.RWMutex
	tracks []Track
}

func NewStream(id string, tracks ...Track) *Stream {
	return &Stream{id: id, tracks: tracks}
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Stream) Add(t Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, t)
}

func (s *Stream) Video() Track { return s.first(webrtc.RTPCodecTypeVideo) }
func (s *Stream) Audio() Track { return s.first(webrtc.RTPCodecTypeAudio) }

func (s *Stream) first(kind webrtc.RTPCodecType) Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.Kind() == kind {
			return t
		}
	}
	return nil
}

// ReplaceVideo swaps the first video track for v and returns the old one.
// The old track is not stopped.
func (s *Stream) ReplaceVideo(v Track) Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tracks {
		if t.Kind() == webrtc.RTPCodecTypeVideo {
			s.tracks[i] = v
			return t
		}
	}
	s.tracks = append(s.tracks, v)
	return nil
}

// Live reports whether at least one track has not been stopped.
func (s *Stream) Live() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.State() != TrackStopped {
			return true
		}
	}
	return false
}

func (s *Stream) Stop() {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
