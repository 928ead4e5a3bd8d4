package signal

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"golang.org/x/time/rate"
)

// OfferLimiter keeps one token bucket per participant.
type OfferLimiter struct {
	mu       sync.Mutex
	limiters map[domain.ParticipantID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewOfferLimiter(perSecond float64, burst int) *OfferLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &OfferLimiter{
		limiters: make(map[domain.ParticipantID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *OfferLimiter) Allow(pid domain.ParticipantID) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[pid]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[pid] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

func (rl *OfferLimiter) Forget(pid domain.ParticipantID) {
	rl.mu.Lock()
	delete(rl.limiters, pid)
	rl.mu.Unlock()
}
