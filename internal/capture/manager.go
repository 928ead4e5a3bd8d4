// Package capture acquires and accounts for local camera, microphone and
// screen capture streams.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/rs/zerolog/log"
)

// Devices is the platform seam. Implementations may block on a permission
// prompt or a picker and must honour ctx.
type Devices interface {
	OpenCamera(ctx context.Context) (*media.Stream, error)
	OpenDisplay(ctx context.Context) (*media.Stream, error)
}

// Manager hands out streams and counts the local tracks still live.
// It does not know who consumes them.
type Manager struct {
	devices Devices
	live    atomic.Int64
}

func NewManager(devices Devices) *Manager {
	return &Manager{devices: devices}
}

// AcquireCamera returns a combined audio+video stream.
func (m *Manager) AcquireCamera(ctx context.Context) (*media.Stream, error) {
	return m.acquire(ctx, "camera", m.devices.OpenCamera)
}

// AcquireDisplay returns a screen or window capture stream.
func (m *Manager) AcquireDisplay(ctx context.Context) (*media.Stream, error) {
	return m.acquire(ctx, "display", m.devices.OpenDisplay)
}

// Live is the number of acquired local tracks not yet stopped.
func (m *Manager) Live() int { return int(m.live.Load()) }

func (m *Manager) acquire(
	ctx context.Context,
	source string,
	open func(context.Context) (*media.Stream, error),
) (*media.Stream, error) {
	s, err := open(ctx)
	if err != nil {
		err = classify(source, err)
		log.Warn().Err(err).Str("module", "capture").Str("source", source).Msg("acquire failed")
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s returned no stream", domain.ErrDeviceUnavailable, source)
	}
	for _, t := range s.Tracks() {
		lt, ok := t.(*media.LocalTrack)
		if !ok {
			continue
		}
		m.live.Add(1)
		lt.OnStop(func() { m.live.Add(-1) })
	}
	log.Info().Str("module", "capture").Str("source", source).Str("stream_id", s.ID()).Int("tracks", len(s.Tracks())).Msg("acquired")
	return s, nil
}

func classify(source string, err error) error {
	switch {
	case errors.Is(err, domain.ErrDeviceUnavailable), errors.Is(err, domain.ErrUserCancelled):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", domain.ErrUserCancelled, source, err)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrDeviceUnavailable, source, err)
	}
}
