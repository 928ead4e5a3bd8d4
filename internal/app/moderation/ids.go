package moderation

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newCommentID returns a ULID, so ids sort in submission order.
func newCommentID(now time.Time) domain.CommentID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return domain.CommentID(ulid.MustNew(ulid.Timestamp(now.UTC()), entropy).String())
}
