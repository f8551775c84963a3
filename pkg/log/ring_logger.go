package log

import "sync"

// RingLogger keeps the most recent events in memory.
// It backs the demo console's history view.
type RingLogger struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRingLogger creates a RingLogger holding up to size events.
func NewRingLogger(size int) *RingLogger {
	if size <= 0 {
		size = 1
	}
	return &RingLogger{events: make([]Event, size)}
}

// Log stores the event, evicting the oldest when full.
func (r *RingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Events returns the stored events, oldest first.
func (r *RingLogger) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}

var _ Logger = (*RingLogger)(nil)
