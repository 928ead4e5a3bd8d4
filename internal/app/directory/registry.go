// Package directory is the rendezvous side of the system: it hands out
// participant identities and routes signaling messages between them.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type peerEntry struct {
	Signal core.SignalConnection
	Cancel context.CancelFunc
	Since  time.Time
}

type Registry struct {
	mu    sync.RWMutex
	peers map[domain.ParticipantID]*peerEntry
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[domain.ParticipantID]*peerEntry)}
}

// Register assigns a fresh identity to conn.
func (r *Registry) Register(conn core.SignalConnection, cancel context.CancelFunc) domain.ParticipantID {
	id := domain.NewParticipantID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[id] = &peerEntry{Signal: conn, Cancel: cancel, Since: time.Now()}
	log.Info().Str("module", "directory.registry").Str("pid", string(id)).Int("online", len(r.peers)).Msg("registered participant")
	return id
}

func (r *Registry) Lookup(id domain.ParticipantID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.peers[id]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) Unbind(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[id]; !ok {
		return
	}
	delete(r.peers, id)
	log.Info().Str("module", "directory.registry").Str("pid", string(id)).Msg("unbound participant")
}

// Cancel stops the participant's connection handlers.
func (r *Registry) Cancel(id domain.ParticipantID) bool {
	r.mu.RLock()
	e, ok := r.peers[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "directory.registry").Str("pid", string(id)).Msg("canceled participant")
	return true
}

func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
