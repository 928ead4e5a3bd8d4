package media

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrack(t *testing.T, mime, id string) *LocalTrack {
	t.Helper()
	tr, err := NewLocalTrack(webrtc.RTPCodecCapability{MimeType: mime, ClockRate: 90000}, id, "s1")
	require.NoError(t, err)
	return tr
}

func TestLocalTrackTapAndStop(t *testing.T) {
	tr := newTrack(t, webrtc.MimeTypeVP8, "v1")
	assert.Equal(t, webrtc.RTPCodecTypeVideo, tr.Kind())

	var got [][]byte
	untap := tr.Tap(func(s media.Sample) { got = append(got, s.Data) })

	require.NoError(t, tr.WriteSample(media.Sample{Data: []byte("a")}))
	tr.SetMuted(true)
	require.NoError(t, tr.WriteSample(media.Sample{Data: []byte("muted")}))
	tr.SetMuted(false)
	require.NoError(t, tr.WriteSample(media.Sample{Data: []byte("b")}))
	untap()
	require.NoError(t, tr.WriteSample(media.Sample{Data: []byte("c")}))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, got)

	stops := 0
	tr.OnStop(func() { stops++ })
	tr.Stop()
	tr.Stop()
	assert.Equal(t, 1, stops)
	assert.Equal(t, TrackStopped, tr.State())
	assert.ErrorIs(t, tr.WriteSample(media.Sample{Data: []byte("d")}), ErrTrackStopped)

	tr.SetMuted(false)
	assert.Equal(t, TrackStopped, tr.State())
}

func TestStreamReplaceVideoAndLive(t *testing.T) {
	cam := newTrack(t, webrtc.MimeTypeVP8, "cam")
	mic, err := NewLocalTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}, "mic", "s1")
	require.NoError(t, err)
	s := NewStream("s1", cam, mic)

	assert.Same(t, Track(cam), s.Video())
	assert.Same(t, Track(mic), s.Audio())

	screen := newTrack(t, webrtc.MimeTypeVP8, "screen")
	old := s.ReplaceVideo(screen)
	assert.Same(t, Track(cam), old)
	assert.Same(t, Track(screen), s.Video())
	assert.Len(t, s.Tracks(), 2)

	assert.True(t, s.Live())
	s.Stop()
	assert.False(t, s.Live())

	var nilStream *Stream
	assert.False(t, nilStream.Live())
	nilStream.Stop()
}

func TestSlotNotifiesFollowers(t *testing.T) {
	slot := NewSlot("local")
	var seen []*Stream
	unsub := slot.Subscribe(func(s *Stream) { seen = append(seen, s) })

	a := NewStream("a")
	slot.Attach(a)
	slot.Attach(a)
	slot.Detach()
	unsub()
	slot.Attach(NewStream("b"))

	assert.Equal(t, []*Stream{a, nil}, seen)
	assert.Equal(t, "b", slot.Current().ID())
}
