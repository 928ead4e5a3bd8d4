// Package huddle assembles one participant's side of a group call: devices,
// the call session, the local recorder, the comment board and the group list.
package huddle

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app/call"
	"github.com/dkeye/Huddle/internal/app/groups"
	"github.com/dkeye/Huddle/internal/app/moderation"
	"github.com/dkeye/Huddle/internal/app/recording"
	"github.com/dkeye/Huddle/internal/capture"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Directory core.Directory
	Devices   capture.Devices
	// Groups is optional; without it the catalog stays nil.
	Groups     groups.Source
	Translator moderation.Translator
}

type Options struct {
	Call          call.Options
	Recording     recording.Options
	RecordDir     string
	RefreshPeriod time.Duration
}

type Huddle struct {
	Capture  *capture.Manager
	Calls    *call.Manager
	Recorder *recording.Recorder
	Comments *moderation.Board
	Groups   *groups.Catalog

	dir  core.Directory
	opts Options

	mu       sync.Mutex
	rec      *recording.Handle
	unfollow func()
}

func New(deps Deps, opts Options) *Huddle {
	cm := capture.NewManager(deps.Devices)
	h := &Huddle{
		Capture:  cm,
		Calls:    call.NewManager(deps.Directory, cm, opts.Call),
		Recorder: recording.NewRecorder(opts.Recording),
		Comments: moderation.NewBoard(deps.Translator),
		dir:      deps.Directory,
		opts:     opts,
	}
	if deps.Groups != nil {
		h.Groups = groups.NewCatalog(deps.Groups)
	}
	return h
}

// Run drives the call manager and the group refresh until ctx is done.
func (h *Huddle) Run(ctx context.Context) error {
	if h.Groups != nil {
		go h.Groups.Poll(ctx, h.opts.RefreshPeriod)
	}
	err := h.Calls.Run(ctx)
	h.mu.Lock()
	rec := h.rec
	h.mu.Unlock()
	if rec != nil {
		if _, _, serr := h.StopRecording(); serr != nil {
			log.Warn().Err(serr).Str("module", "huddle").Msg("recording not saved on shutdown")
		}
	}
	if cerr := h.dir.Close(); cerr != nil {
		log.Warn().Err(cerr).Str("module", "huddle").Msg("directory close")
	}
	return err
}

// StartRecording records whatever the local preview shows, following it
// through screen share.
func (h *Huddle) StartRecording() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rec != nil {
		return domain.ErrAlreadyRecording
	}
	preview := h.Calls.LocalPreview()
	rec, err := h.Recorder.Start(preview.Current())
	if err != nil {
		return err
	}
	h.rec = rec
	h.unfollow = h.Recorder.Follow(preview)
	return nil
}

// StopRecording ends the recording and writes the artifact to RecordDir.
// The path is empty when RecordDir is not set.
func (h *Huddle) StopRecording() (recording.Artifact, string, error) {
	art, err := h.stopRecording()
	if err != nil {
		return recording.Artifact{}, "", err
	}
	if h.opts.RecordDir == "" {
		return art, "", nil
	}
	path, err := art.Save(h.opts.RecordDir)
	if err != nil {
		return art, "", err
	}
	log.Info().Str("module", "huddle").Str("path", path).Int("bytes", len(art.Data)).Msg("recording saved")
	return art, path, nil
}

func (h *Huddle) stopRecording() (recording.Artifact, error) {
	h.mu.Lock()
	rec, unfollow := h.rec, h.unfollow
	h.rec, h.unfollow = nil, nil
	h.mu.Unlock()
	if rec == nil {
		return recording.Artifact{}, domain.ErrNotRecording
	}
	unfollow()
	return h.Recorder.Stop(rec)
}
