package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

var (
	VideoCodec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	AudioCodec = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
)

type SyntheticOptions struct {
	// FrameInterval > 0 makes every track emit a test pattern sample per tick.
	FrameInterval time.Duration
	DenyCamera    bool
	CancelDisplay bool
	DisplayAudio  bool
}

// Synthetic is a device set without hardware, used headless and in tests.
type Synthetic struct {
	opts SyntheticOptions
	seq  atomic.Uint64
}

func NewSynthetic(opts SyntheticOptions) *Synthetic {
	return &Synthetic{opts: opts}
}

func (d *Synthetic) OpenCamera(ctx context.Context) (*media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.opts.DenyCamera {
		return nil, fmt.Errorf("%w: camera permission denied", domain.ErrDeviceUnavailable)
	}
	return d.open("camera", true)
}

func (d *Synthetic) OpenDisplay(ctx context.Context) (*media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.opts.CancelDisplay {
		return nil, domain.ErrUserCancelled
	}
	return d.open("display", d.opts.DisplayAudio)
}

func (d *Synthetic) open(source string, withAudio bool) (*media.Stream, error) {
	streamID := fmt.Sprintf("%s-%d", source, d.seq.Add(1))
	video, err := media.NewLocalTrack(VideoCodec, streamID+"-video", streamID)
	if err != nil {
		return nil, err
	}
	tracks := []*media.LocalTrack{video}
	if withAudio {
		audio, err := media.NewLocalTrack(AudioCodec, streamID+"-audio", streamID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, audio)
	}

	s := media.NewStream(streamID)
	for _, t := range tracks {
		s.Add(t)
		if d.opts.FrameInterval > 0 {
			go pattern(t, d.opts.FrameInterval)
		}
	}
	return s, nil
}

func pattern(t *media.LocalTrack, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var n uint32
	for range ticker.C {
		n++
		payload := make([]byte, 8)
		binary.BigEndian.PutUint32(payload, n)
		copy(payload[4:], t.ID())
		err := t.WriteSample(pionmedia.Sample{Data: payload, Duration: every, Timestamp: time.Now()})
		if errors.Is(err, media.ErrTrackStopped) {
			return
		}
	}
}
