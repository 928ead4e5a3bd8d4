package media

import (
	"context"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RemoteTrack wraps an inbound pion track and pumps its RTP payloads to taps.
type RemoteTrack struct {
	remote *webrtc.TrackRemote
	state  trackState
	taps   tapSet
	cancel context.CancelFunc
}

// NewRemoteTrack starts reading from remote until ctx is done, the track is
// stopped or the connection goes away.
func NewRemoteTrack(ctx context.Context, remote *webrtc.TrackRemote) *RemoteTrack {
	ctx, cancel := context.WithCancel(ctx)
	t := &RemoteTrack{remote: remote, cancel: cancel}
	logger := log.With().
		Str("module", "media.remote").
		Str("track_id", remote.ID()).
		Str("kind", remote.Kind().String()).
		Logger()
	go t.loop(ctx, &logger)
	return t
}

func (t *RemoteTrack) ID() string                { return t.remote.ID() }
func (t *RemoteTrack) StreamID() string          { return t.remote.StreamID() }
func (t *RemoteTrack) Kind() webrtc.RTPCodecType { return t.remote.Kind() }
func (t *RemoteTrack) State() TrackState         { return t.state.get() }
func (t *RemoteTrack) SetMuted(muted bool)       { t.state.setMuted(muted) }
func (t *RemoteTrack) Tap(fn Sink) func()        { return t.taps.add(fn) }

func (t *RemoteTrack) Stop() {
	if t.state.stop() {
		t.cancel()
		t.taps.clear()
	}
}

func (t *RemoteTrack) loop(ctx context.Context, logger *zerolog.Logger) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("remote track ctx done")
			return
		default:
		}
		pkt, _, err := t.remote.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Msg("remote track read stopped")
			return
		}
		t.forward(pkt)
	}
}

func (t *RemoteTrack) forward(pkt *rtp.Packet) {
	if t.state.get() != TrackLive {
		return
	}
	t.taps.emit(media.Sample{
		Data:            pkt.Payload,
		PacketTimestamp: pkt.Timestamp,
	})
}
