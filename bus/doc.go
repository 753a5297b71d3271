// Package bus implements an in-process publish/subscribe event bus.
//
// Producers broadcast named events with arbitrary payloads and consumers
// subscribe to an event name to receive payloads asynchronously. A name
// becomes registered on its first subscription and stays registered for the
// life of the bus. Broadcasts to a registered name are delivered to its
// current subscribers and appended to the history; broadcasts to a name
// nobody has subscribed to yet are kept in the pending queue, where a later
// subscriber can opt in to receive them.
//
// # Usage
//
//	b := bus.New()
//
//	id := b.Subscribe("order.created", func(payload any) {
//	    order := payload.(Order)
//	    // ...
//	})
//	b.Broadcast("order.created", Order{ID: 1})
//	b.Unsubscribe("order.created", id)
//
// Replay events broadcast before anyone listened:
//
//	b.Broadcast("x", 42)
//	b.Subscribe("x", handler, bus.CollectPreviousEvents())
//
// Typed topics bind a payload type to an event name:
//
//	orders := bus.NewTopic[Order](b, "order.created")
//	orders.Subscribe(func(o Order) { ... })
//	orders.Broadcast(Order{ID: 2})
//
// # Failure model
//
// No operation returns an error. Subscribe returns an empty id for a nil
// handler, Unsubscribe ignores unknown names and ids, and a panicking handler
// is recovered at the delivery boundary. Use WithRecoverHandler to observe
// recovered panics.
//
// # Delivery
//
// Each handler invocation is a separate task handed to an Executor. The
// default starts a goroutine per task; NewPoolExecutor uses a worker pool.
// WithTracerProvider records a consumer span per task.
package bus
