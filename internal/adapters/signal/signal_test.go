package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/app/directory"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	url string
	reg *directory.Registry
}

func newTestServer(t *testing.T, limiter *OfferLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	reg := directory.NewRegistry()
	if limiter == nil {
		limiter = NewOfferLimiter(100, 100)
	}
	ctl := NewSignalWSController(reg, directory.NewRelay(reg, nil), limiter, Options{})
	r := gin.New()
	r.GET("/api/ws/signal", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal", reg: reg}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func register(t *testing.T, conn *websocket.Conn) domain.ParticipantID {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Message{Type: TypeRegister}))
	m := read(t, conn)
	require.Equal(t, TypeRegistered, m.Type)
	require.True(t, m.ID.Valid())
	return m.ID
}

func TestRegisterAssignsStableIdentity(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	id := register(t, conn)
	assert.Equal(t, id, register(t, conn))
	assert.Equal(t, 1, s.reg.Online())

	other := register(t, s.dial(t))
	assert.NotEqual(t, id, other)
}

func TestPingPong(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	assert.Equal(t, TypePong, read(t, conn).Type)
}

func TestRoutedRequiresRegistration(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	require.NoError(t, conn.WriteJSON(Message{Type: TypeOffer, To: "x", CallID: "c1"}))
	m := read(t, conn)
	assert.Equal(t, TypeError, m.Type)
	assert.Equal(t, CodeNotRegistered, m.Code)
	assert.Equal(t, "c1", m.CallID)
}

func TestOfferAndAnswerAreRelayed(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob := s.dial(t), s.dial(t)
	aliceID, bobID := register(t, alice), register(t, bob)

	require.NoError(t, alice.WriteJSON(Message{Type: TypeOffer, To: bobID, From: "forged", CallID: "c1", SDP: "v=0"}))
	m := read(t, bob)
	assert.Equal(t, TypeOffer, m.Type)
	assert.Equal(t, aliceID, m.From)
	assert.Empty(t, m.To)
	assert.Equal(t, "c1", m.CallID)
	assert.Equal(t, "v=0", m.SDP)

	require.NoError(t, bob.WriteJSON(Message{Type: TypeReject, To: aliceID, CallID: "c1", Reason: "busy"}))
	m = read(t, alice)
	assert.Equal(t, TypeReject, m.Type)
	assert.Equal(t, bobID, m.From)
	assert.Equal(t, "busy", m.Reason)
}

func TestUnknownRecipient(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.dial(t)
	register(t, alice)

	require.NoError(t, alice.WriteJSON(Message{Type: TypeOffer, To: "ghost", CallID: "c9"}))
	m := read(t, alice)
	assert.Equal(t, TypeError, m.Type)
	assert.Equal(t, CodePeerUnreachable, m.Code)
	assert.Equal(t, "c9", m.CallID)
}

func TestOffersAreRateLimited(t *testing.T) {
	s := newTestServer(t, NewOfferLimiter(0.001, 1))
	alice, bob := s.dial(t), s.dial(t)
	register(t, alice)
	bobID := register(t, bob)

	require.NoError(t, alice.WriteJSON(Message{Type: TypeOffer, To: bobID, CallID: "c1"}))
	assert.Equal(t, TypeOffer, read(t, bob).Type)

	require.NoError(t, alice.WriteJSON(Message{Type: TypeOffer, To: bobID, CallID: "c2"}))
	m := read(t, alice)
	assert.Equal(t, CodeRateLimited, m.Code)
	assert.Equal(t, "c2", m.CallID)
}

func TestDisconnectUnregisters(t *testing.T) {
	s := newTestServer(t, nil)
	conn := s.dial(t)
	register(t, conn)
	require.Equal(t, 1, s.reg.Online())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.reg.Online() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOfferLimiterPerParticipant(t *testing.T) {
	l := NewOfferLimiter(0.001, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	l.Forget("a")
	assert.True(t, l.Allow("a"))
}
