// Package hub fans out branch-creation events to server-sent-event clients.
package hub

import "sync"

// DefaultBufferCap is how many recent events each topic replays to late
// subscribers.
const DefaultBufferCap = 100

// TopicBranches carries one JSON event per created branch.
const TopicBranches = "branches"

// history is a fixed-size ring of the most recent events.
type history struct {
	events []string
	next   int // slot the next event overwrites once full
}

func newHistory(n int) history {
	return history{events: make([]string, 0, n)}
}

func (r *history) add(event string) {
	if len(r.events) < cap(r.events) {
		r.events = append(r.events, event)
		return
	}
	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
}

// replay returns the retained events, oldest first.
func (r *history) replay() []string {
	out := make([]string, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

type topic struct {
	recent  history
	clients map[chan string]struct{}
	closed  bool
}

// Hub routes events by topic name. Creations are published on
// TopicBranches; subscribers get the retained history before live events.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topic
}

// New creates a Hub ready for use.
func New() *Hub {
	return &Hub{topics: make(map[string]*topic)}
}

// Caller must hold h.mu.
func (h *Hub) lookup(name string) *topic {
	t, ok := h.topics[name]
	if !ok {
		t = &topic{
			recent:  newHistory(DefaultBufferCap),
			clients: make(map[chan string]struct{}),
		}
		h.topics[name] = t
	}
	return t
}

// Publish records event on the topic and delivers it to every subscriber.
// A subscriber whose channel is full misses the event. Publishing to a
// closed topic does nothing.
func (h *Hub) Publish(name, event string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.lookup(name)
	if t.closed {
		return
	}
	t.recent.add(event)
	for ch := range t.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel primed with the topic's retained events and
// a func that detaches it. On a closed topic the channel is already closed
// after the replay.
func (h *Hub) Subscribe(name string) (<-chan string, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.lookup(name)
	ch := make(chan string, DefaultBufferCap+64)
	for _, event := range t.recent.replay() {
		ch <- event
	}
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	t.clients[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(t.clients, ch)
	}
}

// Close ends the topic: every subscriber channel is closed, which the SSE
// handler turns into a final "done" frame. Later subscribers get the
// retained events and a closed channel. Called on server shutdown.
func (h *Hub) Close(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.lookup(name)
	if t.closed {
		return
	}
	t.closed = true
	for ch := range t.clients {
		close(ch)
	}
	t.clients = nil
}
