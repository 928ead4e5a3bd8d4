package media

import (
	"sync"

	"github.com/pion/webrtc/v4/pkg/media"
)

// Sink receives every sample a track produces.
type Sink func(media.Sample)

type tapSet struct {
	mu   sync.RWMutex
	next int
	fns  map[int]Sink
}

func (ts *tapSet) add(fn Sink) (untap func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.fns == nil {
		ts.fns = make(map[int]Sink)
	}
	id := ts.next
	ts.next++
	ts.fns[id] = fn
	return func() {
		ts.mu.Lock()
		delete(ts.fns, id)
		ts.mu.Unlock()
	}
}

func (ts *tapSet) emit(s media.Sample) {
	ts.mu.RLock()
	fns := make([]Sink, 0, len(ts.fns))
	for _, fn := range ts.fns {
		fns = append(fns, fn)
	}
	ts.mu.RUnlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (ts *tapSet) clear() {
	ts.mu.Lock()
	ts.fns = nil
	ts.mu.Unlock()
}
