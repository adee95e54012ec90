package engine

import (
	"sync"
	"time"
)

// Event is published to subscribers. The concrete types are NotesChanged,
// SyncStarted, SyncFinished and OnlineChanged.
type Event interface {
	Time() time.Time
	event()
}

// NotesChanged reports a local change. NoteID is empty when several notes
// may have changed at once.
type NotesChanged struct {
	At     time.Time
	NoteID string
}

type SyncStarted struct {
	At time.Time
}

type SyncFinished struct {
	At     time.Time
	Report Report
	Err    error
}

type OnlineChanged struct {
	At     time.Time
	Online bool
}

func (e NotesChanged) Time() time.Time  { return e.At }
func (e SyncStarted) Time() time.Time   { return e.At }
func (e SyncFinished) Time() time.Time  { return e.At }
func (e OnlineChanged) Time() time.Time { return e.At }

func (NotesChanged) event()  {}
func (SyncStarted) event()   {}
func (SyncFinished) event()  {}
func (OnlineChanged) event() {}

const defaultSubscriptionBuffer = 64

// Subscription delivers engine events until closed.
type Subscription struct {
	ch   chan Event
	hub  *subscribers
	once sync.Once
}

// Events returns the delivery channel. It is closed by Close or when the
// engine shuts down.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close stops delivery and closes the channel. It is safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

type subscribers struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	dropped uint64
	closed  bool
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[*Subscription]struct{})}
}

func (h *subscribers) add(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	s := &Subscription{ch: make(chan Event, buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *subscribers) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

func (h *subscribers) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			h.dropped++
		}
	}
}

func (h *subscribers) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}
