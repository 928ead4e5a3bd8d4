// Package groups serves the named group list: the server keeps it in a
// Store, the client mirrors it in a Catalog.
package groups

import (
	"context"
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type Store interface {
	List(ctx context.Context) ([]domain.Group, error)
	Add(ctx context.Context, g domain.Group) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]domain.Group, error) {
	return s.store.List(ctx)
}

// Create validates and stores a new group. Names are not unique.
func (s *Service) Create(ctx context.Context, name string, members []string) (domain.Group, error) {
	g, err := domain.NewGroup(name, members)
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.store.Add(ctx, g); err != nil {
		return domain.Group{}, err
	}
	log.Info().Str("module", "groups").Str("group", g.Name).Int("members", g.MemberCount()).Msg("group created")
	return g, nil
}

// MemoryStore keeps groups in process, in creation order.
type MemoryStore struct {
	mu     sync.RWMutex
	groups []domain.Group
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) List(ctx context.Context) ([]domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Group, len(m.groups))
	copy(out, m.groups)
	return out, nil
}

func (m *MemoryStore) Add(ctx context.Context, g domain.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, g)
	return nil
}
