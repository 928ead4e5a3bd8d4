// Package moderation holds the city tagged comment list and its vote driven
// removal rule.
package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// DislikeThreshold is the dislike count at which a comment is removed for good.
const DislikeThreshold = 2

type Board struct {
	translator Translator
	now        func() time.Time

	mu    sync.Mutex
	items []domain.Comment
}

func NewBoard(t Translator) *Board {
	if t == nil {
		t = SuffixTranslator{}
	}
	return &Board{translator: t, now: time.Now}
}

// Submit validates text and appends a fresh comment. The list is untouched
// on any error.
func (b *Board) Submit(text string, city domain.City) (domain.Comment, error) {
	if err := domain.ValidateCommentText(text); err != nil {
		return domain.Comment{}, err
	}
	if city == "" {
		city = domain.DefaultCity
	}
	if _, err := domain.ParseCity(string(city)); err != nil {
		return domain.Comment{}, err
	}
	now := b.now()
	c := domain.Comment{ID: newCommentID(now), Text: text, City: city, CreatedAt: now}

	b.mu.Lock()
	b.items = append(b.items, c)
	n := len(b.items)
	b.mu.Unlock()

	log.Info().Str("module", "moderation").Str("comment", string(c.ID)).Str("city", string(city)).Int("count", n).Msg("comment submitted")
	return c, nil
}

func (b *Board) Like(id domain.CommentID) (domain.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(id)
	if err != nil {
		return domain.Comment{}, err
	}
	return b.like(i), nil
}

// Dislike counts a dislike. The returned bool reports whether the comment was
// removed by it.
func (b *Board) Dislike(id domain.CommentID) (domain.Comment, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(id)
	if err != nil {
		return domain.Comment{}, false, err
	}
	c, removed := b.dislike(i)
	return c, removed, nil
}

// LikeAt and DislikeAt address a comment by position. A removal shifts every
// later index down by one, so a caller holding an index must re-list first.
func (b *Board) LikeAt(index int) (domain.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.inRange(index); err != nil {
		return domain.Comment{}, err
	}
	return b.like(index), nil
}

func (b *Board) DislikeAt(index int) (domain.Comment, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.inRange(index); err != nil {
		return domain.Comment{}, false, err
	}
	c, removed := b.dislike(index)
	return c, removed, nil
}

// Translate asks the translator for a display string and stores it on the
// comment. The translator runs without the board lock held.
func (b *Board) Translate(ctx context.Context, id domain.CommentID) (domain.Comment, error) {
	b.mu.Lock()
	i, err := b.find(id)
	if err != nil {
		b.mu.Unlock()
		return domain.Comment{}, err
	}
	text := b.items[i].Text
	b.mu.Unlock()

	out, err := b.translator.Translate(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("module", "moderation").Str("comment", string(id)).Msg("translate failed")
		return domain.Comment{}, fmt.Errorf("translate %s: %w", id, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// The comment may have been voted out meanwhile.
	if i, err = b.find(id); err != nil {
		return domain.Comment{}, err
	}
	b.items[i].Translation = out
	return b.items[i], nil
}

func (b *Board) List() []domain.Comment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Comment, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Board) like(i int) domain.Comment {
	b.items[i].Likes++
	return b.items[i]
}

// dislike must be called with b.mu held: the increment and the removal are
// one step for every observer.
func (b *Board) dislike(i int) (domain.Comment, bool) {
	b.items[i].Dislikes++
	c := b.items[i]
	if c.Dislikes < DislikeThreshold {
		return c, false
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	log.Info().Str("module", "moderation").Str("comment", string(c.ID)).Int("dislikes", c.Dislikes).Msg("comment removed")
	return c, true
}

func (b *Board) find(id domain.CommentID) (int, error) {
	for i := range b.items {
		if b.items[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", domain.ErrCommentNotFound, id)
}

func (b *Board) inRange(index int) error {
	if index < 0 || index >= len(b.items) {
		return fmt.Errorf("%w: %d of %d", domain.ErrIndexOutOfRange, index, len(b.items))
	}
	return nil
}
