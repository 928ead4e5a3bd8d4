package rendezvous

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/directory"
	"github.com/dkeye/Huddle/internal/capture"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/media"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDirectory(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	reg := directory.NewRegistry()
	ctl := signal.NewSignalWSController(reg, directory.NewRelay(reg, nil), signal.NewOfferLimiter(100, 100), signal.Options{})
	r := gin.New()
	r.GET("/api/ws/signal", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
}

func newClient(t *testing.T, url string, opts Options) (*Client, domain.ParticipantID) {
	t.Helper()
	opts.URL = url
	opts.ICE = webrtc.Configuration{}
	c := New(opts)
	t.Cleanup(func() { _ = c.Close() })
	id, err := c.Register(context.Background())
	require.NoError(t, err)
	return c, id
}

func camera(t *testing.T) *media.Stream {
	t.Helper()
	st, err := capture.NewSynthetic(capture.SyntheticOptions{}).OpenCamera(context.Background())
	require.NoError(t, err)
	t.Cleanup(st.Stop)
	return st
}

func nextInbound(t *testing.T, c *Client) core.InboundCall {
	t.Helper()
	select {
	case in := <-c.Incoming():
		return in
	case <-time.After(5 * time.Second):
		t.Fatal("no incoming call")
		return nil
	}
}

func TestRegisterFailsWithoutDirectory(t *testing.T) {
	c := New(Options{URL: "ws://127.0.0.1:1/api/ws/signal"})
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Register(ctx)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)

	_, err = c.Dial(ctx, "bob", nil)
	assert.ErrorIs(t, err, domain.ErrNotRegistered)
}

func TestDialAndAnswer(t *testing.T) {
	url := startDirectory(t)
	alice, aliceID := newClient(t, url, Options{})
	bob, bobID := newClient(t, url, Options{})

	type result struct {
		leg core.CallLeg
		err error
	}
	dialed := make(chan result, 1)
	local := camera(t)
	go func() {
		leg, err := alice.Dial(context.Background(), bobID, local)
		dialed <- result{leg, err}
	}()

	in := nextInbound(t, bob)
	assert.Equal(t, aliceID, in.Caller())
	bobLeg, err := in.Answer(context.Background(), camera(t))
	require.NoError(t, err)
	assert.Equal(t, aliceID, bobLeg.Remote())

	res := <-dialed
	require.NoError(t, res.err)
	assert.Equal(t, bobID, res.leg.Remote())

	// A second settle is refused.
	_, err = in.Answer(context.Background(), camera(t))
	assert.ErrorIs(t, err, ErrAlreadySettled)

	closed := make(chan struct{})
	bobLeg.OnClosed(func() { close(closed) })
	require.NoError(t, res.leg.Close())
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("remote leg never closed")
	}
}

func TestDialRejected(t *testing.T) {
	url := startDirectory(t)
	alice, _ := newClient(t, url, Options{})
	bob, bobID := newClient(t, url, Options{})

	errs := make(chan error, 1)
	local := camera(t)
	go func() {
		_, err := alice.Dial(context.Background(), bobID, local)
		errs <- err
	}()
	nextInbound(t, bob).Reject("busy")

	err := <-errs
	assert.ErrorIs(t, err, domain.ErrPeerUnreachable)
	assert.Contains(t, err.Error(), "busy")
}

func TestDialUnknownPeer(t *testing.T) {
	url := startDirectory(t)
	alice, _ := newClient(t, url, Options{})

	_, err := alice.Dial(context.Background(), "ghost", camera(t))
	assert.ErrorIs(t, err, domain.ErrPeerUnreachable)
}

func TestDialRingTimeout(t *testing.T) {
	url := startDirectory(t)
	alice, _ := newClient(t, url, Options{RingTimeout: 300 * time.Millisecond})
	bob, bobID := newClient(t, url, Options{})

	_, err := alice.Dial(context.Background(), bobID, camera(t))
	assert.ErrorIs(t, err, domain.ErrPeerUnreachable)

	// The abandoned offer still reached bob, followed by the hangup.
	in := nextInbound(t, bob).(*inbound)
	require.Eventually(t, func() bool {
		in.mu.Lock()
		defer in.mu.Unlock()
		return in.cancelled
	}, 2*time.Second, 20*time.Millisecond)
	_, err = in.Answer(context.Background(), camera(t))
	assert.ErrorIs(t, err, domain.ErrPeerUnreachable)
}
