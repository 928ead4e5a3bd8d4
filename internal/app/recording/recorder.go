// Package recording captures the samples of a local stream into a single
// in-memory artifact that the user can export when recording stops.
package recording

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

const DefaultContainer = "webm"

type Options struct {
	// Container is the artifact format. Only webm is written; other values
	// fall back to it.
	Container string
	// MaxBytes caps the buffered payload. Zero means unlimited.
	MaxBytes int
}

// Artifact is the finished recording.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
	Segments  int
	Duration  time.Duration
}

// Save writes the artifact into dir under its own name and returns the path.
func (a Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Handle identifies one recording between Start and Stop.
type Handle struct {
	id      string
	started time.Time

	mu       sync.Mutex
	stream   *media.Stream
	untaps   []func()
	segments []segment
	size     int
	dropped  int
	stopped  bool
}

func (h *Handle) ID() string { return h.id }

type Recorder struct {
	opts Options

	mu     sync.Mutex
	active *Handle

	followMu sync.Mutex
}

func NewRecorder(opts Options) *Recorder {
	if opts.Container != DefaultContainer {
		if opts.Container != "" {
			log.Warn().Str("module", "recording").Str("container", opts.Container).Msg("unsupported container, writing webm")
		}
		opts.Container = DefaultContainer
	}
	return &Recorder{opts: opts}
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Start taps every track of stream. Only one recording may run at a time.
func (r *Recorder) Start(stream *media.Stream) (*Handle, error) {
	if !stream.Live() {
		return nil, domain.ErrNoActiveStream
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, domain.ErrAlreadyRecording
	}
	h := &Handle{id: uuid.NewString(), started: time.Now()}
	r.attach(h, stream)
	r.active = h
	log.Info().Str("module", "recording").Str("rec", h.id).Str("stream", stream.ID()).Msg("recording started")
	return h, nil
}

// Stop detaches the taps and hands back the buffered recording exactly once.
func (r *Recorder) Stop(h *Handle) (Artifact, error) {
	if h == nil {
		return Artifact{}, domain.ErrNotRecording
	}
	r.mu.Lock()
	if r.active != h {
		r.mu.Unlock()
		return Artifact{}, domain.ErrNotRecording
	}
	r.active = nil
	r.mu.Unlock()

	h.mu.Lock()
	h.stopped = true
	untaps := h.untaps
	h.untaps = nil
	segments := h.segments
	h.segments = nil
	size, dropped := h.size, h.dropped
	h.size = 0
	h.mu.Unlock()
	for _, untap := range untaps {
		untap()
	}

	data, err := muxWebM(segments)
	if err != nil {
		log.Error().Err(err).Str("module", "recording").Str("rec", h.id).Msg("recording lost")
		return Artifact{}, err
	}
	a := Artifact{
		Name:      "recording." + r.opts.Container,
		MediaType: "video/" + r.opts.Container,
		Data:      data,
		Segments:  len(segments),
		Duration:  time.Since(h.started),
	}
	log.Info().
		Str("module", "recording").
		Str("rec", h.id).
		Int("segments", a.Segments).
		Int("payload", size).
		Int("bytes", len(a.Data)).
		Int("dropped", dropped).
		Msg("recording stopped")
	return a, nil
}

// Retarget moves the active recording onto stream. Samples buffered so far
// are kept. A nil stream pauses capture until the next retarget.
func (r *Recorder) Retarget(stream *media.Stream) {
	r.mu.Lock()
	h := r.active
	r.mu.Unlock()
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.stream == stream || h.stopped {
		h.mu.Unlock()
		return
	}
	untaps := h.untaps
	h.untaps = nil
	h.stream = nil
	h.mu.Unlock()
	for _, untap := range untaps {
		untap()
	}
	if stream == nil {
		log.Info().Str("module", "recording").Str("rec", h.id).Msg("recording paused, no source")
		return
	}
	r.attach(h, stream)
	log.Info().Str("module", "recording").Str("rec", h.id).Str("stream", stream.ID()).Msg("recording retargeted")
}

// Follow keeps the active recording on whatever the slot currently shows,
// starting with the stream it shows right now.
func (r *Recorder) Follow(slot *media.Slot) (unfollow func()) {
	follow := func() {
		r.followMu.Lock()
		defer r.followMu.Unlock()
		r.Retarget(slot.Current())
	}
	unsubscribe := slot.Subscribe(func(*media.Stream) { follow() })
	follow()
	return unsubscribe
}

func (r *Recorder) attach(h *Handle, stream *media.Stream) {
	untaps := make([]func(), 0, 2)
	for _, t := range stream.Tracks() {
		kind := t.Kind()
		untaps = append(untaps, t.Tap(func(s pionmedia.Sample) { r.capture(h, kind, s) }))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		for _, untap := range untaps {
			untap()
		}
		return
	}
	h.stream = stream
	h.untaps = untaps
}

func (r *Recorder) capture(h *Handle, kind webrtc.RTPCodecType, s pionmedia.Sample) {
	if len(s.Data) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	if r.opts.MaxBytes > 0 && h.size+len(s.Data) > r.opts.MaxBytes {
		h.dropped++
		return
	}
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	h.segments = append(h.segments, segment{kind: kind, at: time.Since(h.started), data: data})
	h.size += len(data)
}
