package recording

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/at-wat/ebml-go/webm"
	"github.com/pion/webrtc/v4"
)

// Synthetic and browser captures do not report a frame size; players take
// the real one from the VP8 keyframes.
const (
	defaultWidth  = 640
	defaultHeight = 480
	muxTimeout    = 5 * time.Second
)

var errMuxTimeout = errors.New("webm muxer did not finish")

// segment is one captured sample, stamped relative to the recording start.
type segment struct {
	kind webrtc.RTPCodecType
	at   time.Duration
	data []byte
}

// memFile is the in-memory sink of the muxer. The muxer closes it once every
// block writer is closed and the last cluster is flushed.
type memFile struct {
	bytes.Buffer
	closed chan struct{}
}

func (f *memFile) Close() error {
	close(f.closed)
	return nil
}

// muxWebM writes segments as a WebM file with a VP8 video track and, when any
// audio was captured, an Opus audio track.
func muxWebM(segments []segment) ([]byte, error) {
	tracks := []webm.TrackEntry{{
		Name:        "Video",
		TrackNumber: 1,
		TrackUID:    1,
		CodecID:     "V_VP8",
		TrackType:   1,
		Video:       &webm.Video{PixelWidth: defaultWidth, PixelHeight: defaultHeight},
	}}
	for _, s := range segments {
		if s.kind == webrtc.RTPCodecTypeAudio {
			tracks = append(tracks, webm.TrackEntry{
				Name:        "Audio",
				TrackNumber: 2,
				TrackUID:    2,
				CodecID:     "A_OPUS",
				TrackType:   2,
				Audio:       &webm.Audio{SamplingFrequency: 48000, Channels: 2},
			})
			break
		}
	}

	out := &memFile{closed: make(chan struct{})}
	writers, err := webm.NewSimpleBlockWriter(out, tracks)
	if err != nil {
		return nil, fmt.Errorf("webm header: %w", err)
	}
	for _, s := range segments {
		w, keyframe := writers[0], isVP8Keyframe(s.data)
		if s.kind == webrtc.RTPCodecTypeAudio {
			w, keyframe = writers[1], true
		}
		if _, err := w.Write(keyframe, s.at.Milliseconds(), s.data); err != nil {
			for _, w := range writers {
				_ = w.Close()
			}
			return nil, fmt.Errorf("webm block: %w", err)
		}
	}
	for _, w := range writers {
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("webm close: %w", err)
		}
	}
	select {
	case <-out.closed:
	case <-time.After(muxTimeout):
		return nil, errMuxTimeout
	}
	return out.Bytes(), nil
}

// isVP8Keyframe reads the P bit of the VP8 frame tag, zero on keyframes.
func isVP8Keyframe(frame []byte) bool {
	return len(frame) > 0 && frame[0]&0x01 == 0
}
