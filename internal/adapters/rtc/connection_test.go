package rtc

import (
	"context"
	"testing"

	"github.com/dkeye/Huddle/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vp8 = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}

func localStream(t *testing.T, id string) (*media.Stream, *media.LocalTrack) {
	t.Helper()
	v, err := media.NewLocalTrack(vp8, id+"-video", id)
	require.NoError(t, err)
	return media.NewStream(id, v), v
}

func TestOfferAnswerAndReplaceTrack(t *testing.T) {
	ctx := context.Background()
	caller, err := NewWebRTCConnection(webrtc.Configuration{}, "callee")
	require.NoError(t, err)
	callee, err := NewWebRTCConnection(webrtc.Configuration{}, "caller")
	require.NoError(t, err)
	defer caller.Close()
	defer callee.Close()
	require.NoError(t, caller.Start(ctx))
	require.NoError(t, callee.Start(ctx))

	st, _ := localStream(t, "cam")
	require.NoError(t, caller.AddStream(st))

	offer, err := caller.CreateOffer()
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)

	answer, err := callee.ApplyOfferAndCreateAnswer(*offer)
	require.NoError(t, err)
	require.NoError(t, caller.ApplyAnswer(*answer))

	_, screen := localStream(t, "screen")
	assert.NoError(t, caller.ReplaceVideoTrack(screen))
	assert.ErrorIs(t, callee.ReplaceVideoTrack(screen), ErrNoVideoSender)
}

func TestOnClosedFiresOnce(t *testing.T) {
	c, err := NewWebRTCConnection(webrtc.Configuration{}, "peer")
	require.NoError(t, err)
	n := 0
	c.OnClosed(func() { n++ })
	require.NoError(t, c.Start(context.Background()))
	c.Close()
	c.Close()
	assert.Equal(t, 1, n)
}

func TestConfigFromURLs(t *testing.T) {
	cfg := ConfigFromURLs([]string{"stun:a:3478", "", "turn:b:3478"})
	require.Len(t, cfg.ICEServers, 2)
	assert.Equal(t, []string{"turn:b:3478"}, cfg.ICEServers[1].URLs)
	assert.Len(t, DefaultWebRTCConfig().ICEServers, 1)
}
