package bus

import (
	"time"
)

// Handler receives the payload of a broadcast event.
type Handler func(payload any)

// RecoverHandler is called with the value recovered from a panicking handler.
type RecoverHandler func(eventName, subscriberID string, recovered any)

// EventRecord is a single broadcast, kept in either the history or the
// pending queue.
type EventRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriber is owned by the registry entry it was appended to
type subscriber struct {
	id      string
	handler Handler
}

// registryEntry marks its name as registered, even with no subscribers
type registryEntry struct {
	name        string
	subscribers []*subscriber
}

// indexOf returns the position of the subscriber with id, or -1
func (e *registryEntry) indexOf(id string) int {
	for i, s := range e.subscribers {
		if s.id == id {
			return i
		}
	}
	return -1
}
