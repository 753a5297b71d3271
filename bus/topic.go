package bus

import (
	"fmt"
	"reflect"
)

// Topic binds an event name to a payload type.
type Topic[T any] struct {
	bus  *Bus
	name string
}

// NewTopic returns a typed view of name on b.
func NewTopic[T any](b *Bus, name string) *Topic[T] {
	return &Topic[T]{bus: b, name: name}
}

// Name returns the event name.
func (t *Topic[T]) Name() string {
	return t.name
}

// Subscribe registers a typed handler. A payload that is not a T counts as
// a failed delivery for this subscriber; nil is passed as the zero T.
func (t *Topic[T]) Subscribe(handler func(T), opts ...SubscribeOption) string {
	if handler == nil {
		return ""
	}
	return t.bus.Subscribe(t.name, func(payload any) {
		if payload == nil {
			var zero T
			handler(zero)
			return
		}
		v, ok := payload.(T)
		if !ok {
			panic(fmt.Errorf("topic %s: payload %T is not %s", t.name, payload, reflect.TypeFor[T]()))
		}
		handler(v)
	}, opts...)
}

// Unsubscribe removes a subscriber returned by Subscribe.
func (t *Topic[T]) Unsubscribe(subscriberID string) {
	t.bus.Unsubscribe(t.name, subscriberID)
}

// Broadcast sends payload under the topic's name.
func (t *Topic[T]) Broadcast(payload T) {
	t.bus.Broadcast(t.name, payload)
}
