package media

import "sync"

// Slot is a preview sink: it shows at most one stream at a time and tells its
// followers whenever the stream changes.
type Slot struct {
	name string

	mu   sync.RWMutex
	cur  *Stream
	next int
	subs map[int]func(*Stream)
}

func NewSlot(name string) *Slot {
	return &Slot{name: name, subs: make(map[int]func(*Stream))}
}

func (s *Slot) Name() string { return s.name }

func (s *Slot) Current() *Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Attach binds st (nil detaches) and notifies followers outside the lock.
func (s *Slot) Attach(st *Stream) {
	s.mu.Lock()
	if s.cur == st {
		s.mu.Unlock()
		return
	}
	s.cur = st
	fns := make([]func(*Stream), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *Slot) Detach() { s.Attach(nil) }

func (s *Slot) Subscribe(fn func(*Stream)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
