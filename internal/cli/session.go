package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/groupsapi"
	"github.com/dkeye/Huddle/internal/adapters/rendezvous"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app/call"
	"github.com/dkeye/Huddle/internal/app/huddle"
	"github.com/dkeye/Huddle/internal/app/recording"
	"github.com/dkeye/Huddle/internal/capture"
	"github.com/dkeye/Huddle/internal/config"
)

func newHuddle(cfg *config.Config) (*huddle.Huddle, error) {
	wsURL, err := signalURL(cfg.Client.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	dir := rendezvous.New(rendezvous.Options{
		URL:         wsURL,
		ICE:         rtc.ConfigFromURLs(cfg.Client.ICEServers),
		RingTimeout: cfg.Client.RingTimeout,
		PingPeriod:  cfg.PingPeriod,
	})
	return huddle.New(huddle.Deps{
		Directory: dir,
		Devices:   capture.NewSynthetic(capture.SyntheticOptions{FrameInterval: cfg.Client.FrameInterval}),
		Groups:    groupsapi.New(cfg.Client.ServerURL),
	}, huddle.Options{
		Recording: recording.Options{
			Container: cfg.Recording.Container,
			MaxBytes:  cfg.Recording.MaxBytes,
		},
		RecordDir:     cfg.Recording.Dir,
		RefreshPeriod: cfg.Client.RefreshPeriod,
	}), nil
}

// watchNotices prints call notices to w until ctx is done. The first notice
// for which terminal holds is sent on ended and stops the session.
func watchNotices(ctx context.Context, w io.Writer, h *huddle.Huddle, terminal func(call.Notice) bool, ended chan<- call.Notice, stop context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-h.Calls.Notices():
			ts := time.Now().Format("15:04:05")
			if n.Err != nil {
				fmt.Fprintf(w, "%s  %-12s %v\n", ts, n.State, n.Err)
			} else {
				fmt.Fprintf(w, "%s  %-12s self=%s remote=%s\n", ts, n.State, n.Self, n.Remote)
			}
			if terminal(n) {
				select {
				case ended <- n:
				default:
				}
				stop()
				return
			}
		}
	}
}

// sessionOver reports the notices that finish a CLI session: the call ended,
// registration failed or an outgoing call fell back to Registered.
func sessionOver(outgoing bool) func(call.Notice) bool {
	return func(n call.Notice) bool {
		switch {
		case n.State == call.Ended:
			return true
		case n.Err != nil && n.State == call.Unregistered:
			return true
		case n.Err != nil && n.State == call.Registered:
			return outgoing
		}
		return false
	}
}

// waitFor polls the call snapshot until cond holds or ctx ends.
func waitFor(ctx context.Context, h *huddle.Huddle, cond func(call.Snapshot) bool) error {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for {
		if cond(h.Calls.Snapshot()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
