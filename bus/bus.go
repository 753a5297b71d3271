package bus

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/ncobase/pubsub/bus"

// Bus is an in-process publish/subscribe event bus. All methods are safe
// for concurrent use; handlers never run while the bus lock is held.
type Bus struct {
	mu              sync.RWMutex
	entries         map[string]*registryEntry
	pending         []EventRecord
	history         []EventRecord
	subscriberCount uint64

	executor  Executor
	clock     clock.Clock
	onRecover RecoverHandler
	tracer    trace.Tracer
	inflight  *tracker

	metrics metrics
}

// delivery is a scheduled handler invocation
type delivery struct {
	eventName string
	eventID   string
	sub       *subscriber
	payload   any
	replayed  bool
}

// New creates an empty bus. Without options deliveries run on their own
// goroutines and recovered panics are discarded.
func New(opts ...Option) *Bus {
	b := &Bus{
		entries:   make(map[string]*registryEntry),
		executor:  GoExecutor{},
		clock:     clock.New(),
		onRecover: func(string, string, any) {},
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
		inflight:  newTracker(),
	}
	b.metrics.init()

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers handler for eventName and returns the subscriber id.
// A nil handler registers nothing and yields an empty id.
func (b *Bus) Subscribe(eventName string, handler Handler, opts ...SubscribeOption) string {
	if handler == nil {
		return ""
	}
	o := applySubscribeOptions(opts)

	b.mu.Lock()
	b.subscriberCount++
	sub := &subscriber{
		id:      "sub-" + strconv.FormatUint(b.subscriberCount, 10),
		handler: handler,
	}

	entry, ok := b.entries[eventName]
	if !ok {
		entry = &registryEntry{name: eventName}
		b.entries[eventName] = entry
	}
	entry.subscribers = append(entry.subscribers, sub)

	var replay []delivery
	if o.CollectPreviousEvents {
		for _, rec := range b.pending {
			if rec.Name == eventName {
				replay = append(replay, delivery{eventName: eventName, eventID: rec.ID, sub: sub, payload: rec.Payload, replayed: true})
			}
		}
	}
	b.mu.Unlock()

	b.metrics.totalSubscribers.Add(1)
	b.metrics.replayed.Add(int64(len(replay)))
	b.schedule(replay)

	return sub.id
}

// Unsubscribe removes the subscriber with subscriberID from eventName.
// Unknown names and ids are ignored. The name stays registered.
func (b *Bus) Unsubscribe(eventName, subscriberID string) {
	if subscriberID == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[eventName]
	if !ok {
		return
	}

	i := entry.indexOf(subscriberID)
	if i < 0 {
		return
	}
	entry.subscribers = append(entry.subscribers[:i:i], entry.subscribers[i+1:]...)
	b.metrics.totalSubscribers.Add(-1)
}

// Broadcast sends payload to every current subscriber of eventName and
// records it in the history. If eventName has never been subscribed to, the
// event is kept in the pending queue instead.
func (b *Bus) Broadcast(eventName string, payload any) {
	rec := EventRecord{
		ID:        uuid.NewString(),
		Name:      eventName,
		Payload:   payload,
		Timestamp: b.clock.Now(),
	}

	b.mu.Lock()
	entry, ok := b.entries[eventName]
	if !ok {
		b.pending = append(b.pending, rec)
		b.mu.Unlock()

		b.metrics.queued.Add(1)
		b.metrics.lastEventTime.Store(rec.Timestamp)
		return
	}

	deliveries := make([]delivery, 0, len(entry.subscribers))
	for _, sub := range entry.subscribers {
		deliveries = append(deliveries, delivery{eventName: eventName, eventID: rec.ID, sub: sub, payload: payload})
	}
	b.history = append(b.history, rec)
	b.mu.Unlock()

	b.metrics.broadcasts.Add(1)
	b.metrics.lastEventTime.Store(rec.Timestamp)
	b.schedule(deliveries)
}

// schedule submits deliveries to the executor in order
func (b *Bus) schedule(deliveries []delivery) {
	for _, d := range deliveries {
		b.inflight.add()
		b.metrics.scheduled.Add(1)
		b.executor.Submit(b.task(d))
	}
}

// task wraps a delivery with panic recovery, tracing and accounting
func (b *Bus) task(d delivery) func() {
	return func() {
		defer b.inflight.done()

		b.metrics.activeHandlers.Add(1)
		defer b.metrics.activeHandlers.Add(-1)

		_, span := b.tracer.Start(context.Background(), "deliver "+d.eventName,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("pubsub.event.name", d.eventName),
				attribute.String("pubsub.event.id", d.eventID),
				attribute.String("pubsub.subscriber.id", d.sub.id),
				attribute.Bool("pubsub.replayed", d.replayed),
			),
		)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				b.metrics.failed.Add(1)
				span.SetStatus(codes.Error, fmt.Sprint(r))
				b.reportPanic(d, r)
				return
			}
			b.metrics.delivered.Add(1)
		}()

		d.sub.handler(d.payload)
	}
}

func (b *Bus) reportPanic(d delivery, r any) {
	defer func() { _ = recover() }()
	b.onRecover(d.eventName, d.sub.id, r)
}

// Wait blocks until every scheduled delivery has returned.
func (b *Bus) Wait() {
	b.inflight.wait()
}

// Drain is Wait bounded by ctx. It returns ctx.Err() if deliveries are
// still running when ctx is done.
func (b *Bus) Drain(ctx context.Context) error {
	return b.inflight.waitContext(ctx)
}

// IsRegistered reports whether eventName has ever been subscribed to.
func (b *Bus) IsRegistered(eventName string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[eventName]
	return ok
}

// Subscribers returns the subscriber ids of eventName in delivery order,
// or nil if the name is not registered.
func (b *Bus) Subscribers(eventName string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[eventName]
	if !ok {
		return nil
	}
	ids := make([]string, len(entry.subscribers))
	for i, s := range entry.subscribers {
		ids[i] = s.id
	}
	return ids
}

// History returns a copy of the delivered event log.
func (b *Bus) History() []EventRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]EventRecord(nil), b.history...)
}

// Pending returns a copy of the events waiting for a first subscriber.
func (b *Bus) Pending() []EventRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]EventRecord(nil), b.pending...)
}

// tracker counts deliveries that have been scheduled but not finished.
// Unlike a WaitGroup it may be incremented while someone is waiting.
type tracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newTracker() *tracker {
	t := &tracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *tracker) add() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (t *tracker) done() {
	t.mu.Lock()
	t.n--
	if t.n == 0 {
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

func (t *tracker) wait() {
	t.mu.Lock()
	for t.n > 0 {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// waitContext is wait that also wakes up and gives up once ctx is done
func (t *tracker) waitContext(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	return nil
}
