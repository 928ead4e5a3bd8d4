package huddle

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/app/call"
	"github.com/dkeye/Huddle/internal/capture"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoDirectory answers every dial with a leg that plays back a synthetic
// camera as the remote stream.
type echoDirectory struct {
	remote  *capture.Synthetic
	mu      sync.Mutex
	legs    []*echoLeg
	closed  bool
	inbound chan core.InboundCall
}

func (d *echoDirectory) Register(ctx context.Context) (domain.ParticipantID, error) {
	return "me", nil
}

func (d *echoDirectory) Dial(ctx context.Context, remote domain.ParticipantID, local *media.Stream) (core.CallLeg, error) {
	st, err := d.remote.OpenCamera(ctx)
	if err != nil {
		return nil, err
	}
	l := &echoLeg{remote: remote, stream: st}
	d.mu.Lock()
	d.legs = append(d.legs, l)
	d.mu.Unlock()
	return l, nil
}

func (d *echoDirectory) Incoming() <-chan core.InboundCall { return d.inbound }

func (d *echoDirectory) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

type echoLeg struct {
	remote domain.ParticipantID
	stream *media.Stream
}

func (l *echoLeg) Remote() domain.ParticipantID                { return l.remote }
func (l *echoLeg) OnRemoteStream(fn func(*media.Stream))       { fn(l.stream) }
func (l *echoLeg) OnClosed(fn func())                          {}
func (l *echoLeg) ReplaceVideoTrack(t *media.LocalTrack) error { return nil }

func (l *echoLeg) Close() error {
	l.stream.Stop()
	return nil
}

func waitState(t *testing.T, h *Huddle, want call.State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Calls.Snapshot().State == want }, 2*time.Second, 5*time.Millisecond)
}

func TestRecordingFollowsCallThroughScreenShare(t *testing.T) {
	dir := &echoDirectory{
		remote:  capture.NewSynthetic(capture.SyntheticOptions{}),
		inbound: make(chan core.InboundCall),
	}
	out := t.TempDir()
	h := New(Deps{
		Directory: dir,
		Devices:   capture.NewSynthetic(capture.SyntheticOptions{FrameInterval: 2 * time.Millisecond}),
	}, Options{RecordDir: out})
	assert.Nil(t, h.Groups)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitState(t, h, call.Registered)
	assert.ErrorIs(t, h.StartRecording(), domain.ErrNoActiveStream)

	require.NoError(t, h.Calls.Call(ctx, "friend", nil))
	waitState(t, h, call.InCall)

	require.NoError(t, h.StartRecording())
	assert.ErrorIs(t, h.StartRecording(), domain.ErrAlreadyRecording)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, h.Calls.ShareScreen(ctx))
	require.Eventually(t, func() bool { return h.Calls.Snapshot().Sharing }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, h.Calls.Hangup(ctx))
	waitState(t, h, call.Ended)

	art, path, err := h.StopRecording()
	require.NoError(t, err)
	assert.Equal(t, "recording.webm", art.Name)
	assert.NotEmpty(t, art.Data)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, art.Data, data)

	_, _, err = h.StopRecording()
	assert.ErrorIs(t, err, domain.ErrNotRecording)
	assert.Equal(t, 0, h.Capture.Live())
}

func TestRunClosesDirectory(t *testing.T) {
	dir := &echoDirectory{remote: capture.NewSynthetic(capture.SyntheticOptions{}), inbound: make(chan core.InboundCall)}
	h := New(Deps{Directory: dir, Devices: capture.NewSynthetic(capture.SyntheticOptions{})}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)
	dir.mu.Lock()
	defer dir.mu.Unlock()
	assert.True(t, dir.closed)
}
