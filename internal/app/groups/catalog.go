package groups

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Source is the remote group directory as seen by a client.
type Source interface {
	ListGroups(ctx context.Context) ([]domain.Group, error)
	CreateGroup(ctx context.Context, name string, members []string) (domain.Group, error)
}

// Catalog is the client side copy of the group list. A failed refresh keeps
// whatever was fetched last.
type Catalog struct {
	src Source

	mu        sync.RWMutex
	groups    []domain.Group
	refreshed time.Time
}

func NewCatalog(src Source) *Catalog {
	return &Catalog{src: src}
}

func (c *Catalog) Refresh(ctx context.Context) error {
	gs, err := c.src.ListGroups(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "groups").Msg("group refresh failed, keeping previous list")
		return err
	}
	c.mu.Lock()
	c.groups = gs
	c.refreshed = time.Now()
	c.mu.Unlock()
	log.Debug().Str("module", "groups").Int("groups", len(gs)).Msg("groups refreshed")
	return nil
}

// Create posts a group and refreshes the list on success.
func (c *Catalog) Create(ctx context.Context, name string, members []string) (domain.Group, error) {
	if _, err := domain.NewGroup(name, members); err != nil {
		return domain.Group{}, err
	}
	g, err := c.src.CreateGroup(ctx, name, members)
	if err != nil {
		return domain.Group{}, err
	}
	_ = c.Refresh(ctx)
	return g, nil
}

func (c *Catalog) Groups() []domain.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Group, len(c.groups))
	copy(out, c.groups)
	return out
}

func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Search returns groups whose name contains query, ignoring case. An empty
// query matches everything.
func (c *Catalog) Search(query string) []domain.Group {
	q := strings.ToLower(strings.TrimSpace(query))
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Group, 0, len(c.groups))
	for _, g := range c.groups {
		if strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}

// Poll refreshes every interval until ctx is done.
func (c *Catalog) Poll(ctx context.Context, every time.Duration) {
	_ = c.Refresh(ctx)
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Refresh(ctx)
		}
	}
}
