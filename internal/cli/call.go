package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkeye/Huddle/internal/app/call"
	"github.com/dkeye/Huddle/internal/app/huddle"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/spf13/cobra"
)

type sessionFlags struct {
	record   bool
	share    bool
	duration time.Duration
}

func (f *sessionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.record, "record", false, "record the call and save it on exit")
	cmd.Flags().BoolVar(&f.share, "share", false, "share the screen once the call is up")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "hang up after this long (0 = until interrupted)")
}

func newCallCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "call <participant-id>",
		Short: "Call a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, flags, domain.ParticipantID(args[0]))
		},
	}
	flags.bind(cmd)
	return cmd
}

func newListenCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Register and answer the next incoming call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, flags, "")
		},
	}
	flags.bind(cmd)
	return cmd
}

// runSession registers, optionally dials remote, and keeps the call until it
// ends, the duration passes or the process is interrupted.
func runSession(cmd *cobra.Command, flags sessionFlags, remote domain.ParticipantID) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h, err := newHuddle(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	runCtx, cancelRun := context.WithCancel(cmd.Context())
	defer cancelRun()
	waitCtx, finish := context.WithCancel(sigCtx)
	defer finish()

	runDone := make(chan error, 1)
	go func() { runDone <- h.Run(runCtx) }()
	ended := make(chan call.Notice, 1)
	go watchNotices(waitCtx, out, h, sessionOver(remote != ""), ended, finish)

	if waitFor(waitCtx, h, func(s call.Snapshot) bool { return s.State == call.Registered }) == nil {
		fmt.Fprintf(out, "registered as %s\n", h.Calls.Snapshot().Self)
		if remote != "" {
			if err := h.Calls.Call(runCtx, remote, nil); err != nil {
				finish()
				cancelRun()
				<-runDone
				return err
			}
		}
		if waitFor(waitCtx, h, func(s call.Snapshot) bool { return s.State == call.InCall }) == nil {
			if err := startExtras(runCtx, h, flags); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			holdCall(waitCtx, runCtx, h, flags.duration)
		}
	}
	<-waitCtx.Done()

	if flags.record {
		if _, path, err := h.StopRecording(); err == nil && path != "" {
			fmt.Fprintf(out, "recording saved to %s\n", path)
		}
	}
	cancelRun()
	if err := <-runDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	select {
	case n := <-ended:
		return n.Err
	default:
		return nil
	}
}

// holdCall waits for the session to end, hanging up after d when d > 0.
func holdCall(waitCtx, runCtx context.Context, h *huddle.Huddle, d time.Duration) {
	if d <= 0 {
		<-waitCtx.Done()
		return
	}
	select {
	case <-waitCtx.Done():
	case <-time.After(d):
		_ = h.Calls.Hangup(runCtx)
		<-waitCtx.Done()
	}
}

func startExtras(ctx context.Context, h *huddle.Huddle, flags sessionFlags) error {
	if flags.record {
		if err := h.StartRecording(); err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}
	if flags.share {
		if err := h.Calls.ShareScreen(ctx); err != nil {
			return fmt.Errorf("share: %w", err)
		}
	}
	return nil
}
