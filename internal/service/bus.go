package service

import "sync"

// Event reports a change to a widget instance.
type Event struct {
	Resource string // "widget"
	Action   string // widget action, e.g. "draw", "text", "baselayer", "deleted"
	ID       string // instance id
}

// EventBus is a simple fan-out pub/sub for widget change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]string)}
}

// Publish sends an event to every subscriber watching its instance
// (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, id := range b.subs {
		if id != "" && id != e.ID {
			continue
		}
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel receiving events for instance id, or
// for every instance when id is empty.
func (b *EventBus) Subscribe(id string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = id
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
