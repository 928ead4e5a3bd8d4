// Package media models live audio/video streams shared between capture,
// the call leg, the local preview and the recorder.
package media

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

var ErrTrackStopped = errors.New("track stopped")

// Track is one audio or video component of a Stream.
type Track interface {
	ID() string
	Kind() webrtc.RTPCodecType
	State() TrackState
	SetMuted(muted bool)
	// Stop releases the track. It is idempotent.
	Stop()
	// Tap registers a consumer of the samples flowing through the track.
	Tap(fn Sink) (untap func())
}

// LocalTrack is a captured track. Samples written to it are sent on every
// PeerConnection it is bound to and copied to its taps.
type LocalTrack struct {
	local *webrtc.TrackLocalStaticSample
	state trackState
	taps  tapSet

	mu     sync.Mutex
	onStop []func()
}

func NewLocalTrack(codec webrtc.RTPCodecCapability, id, streamID string) (*LocalTrack, error) {
	local, err := webrtc.NewTrackLocalStaticSample(codec, id, streamID)
	if err != nil {
		return nil, err
	}
	return &LocalTrack{local: local}, nil
}

func (t *LocalTrack) ID() string                { return t.local.ID() }
func (t *LocalTrack) StreamID() string          { return t.local.StreamID() }
func (t *LocalTrack) Kind() webrtc.RTPCodecType { return t.local.Kind() }
func (t *LocalTrack) State() TrackState         { return t.state.get() }
func (t *LocalTrack) SetMuted(muted bool)       { t.state.setMuted(muted) }

// Local is the pion track handed to RTPSenders.
func (t *LocalTrack) Local() webrtc.TrackLocal { return t.local }

func (t *LocalTrack) Tap(fn Sink) func() { return t.taps.add(fn) }

// OnStop registers a callback run once when the track stops. On an already
// stopped track fn runs immediately.
func (t *LocalTrack) OnStop(fn func()) {
	t.mu.Lock()
	if t.state.get() == TrackStopped {
		t.mu.Unlock()
		fn()
		return
	}
	t.onStop = append(t.onStop, fn)
	t.mu.Unlock()
}

func (t *LocalTrack) WriteSample(s media.Sample) error {
	switch t.state.get() {
	case TrackStopped:
		return ErrTrackStopped
	case TrackMuted:
		return nil
	}
	err := t.local.WriteSample(s)
	t.taps.emit(s)
	return err
}

func (t *LocalTrack) Stop() {
	if !t.state.stop() {
		return
	}
	t.taps.clear()
	t.mu.Lock()
	fns := t.onStop
	t.onStop = nil
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
