package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ncobase/pubsub/concurrency/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor holds tasks until run is called
type recordingExecutor struct {
	mu    sync.Mutex
	tasks []func()
}

func (e *recordingExecutor) Submit(task func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
}

func (e *recordingExecutor) run() int {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

// collector records payloads received by a handler
type collector struct {
	mu       sync.Mutex
	payloads []any
}

func (c *collector) handle(payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
}

func (c *collector) received() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.payloads...)
}

func TestSubscribe_ReturnsUniqueIDs(t *testing.T) {
	b := New()

	id1 := b.Subscribe("order.created", func(any) {})
	id2 := b.Subscribe("order.created", func(any) {})
	id3 := b.Subscribe("order.paid", func(any) {})

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, id2, id3)
	assert.Equal(t, "sub-1", id1)
	assert.Equal(t, "sub-3", id3)
}

func TestSubscribe_IDsNotReusedAfterUnsubscribe(t *testing.T) {
	b := New()

	id1 := b.Subscribe("a", func(any) {})
	b.Unsubscribe("a", id1)
	id2 := b.Subscribe("a", func(any) {})

	assert.NotEqual(t, id1, id2)
}

func TestSubscribe_IDsScopedPerBus(t *testing.T) {
	b1, b2 := New(), New()

	assert.Equal(t, "sub-1", b1.Subscribe("a", func(any) {}))
	assert.Equal(t, "sub-1", b2.Subscribe("a", func(any) {}))
}

func TestSubscribe_NilHandler(t *testing.T) {
	b := New()

	id := b.Subscribe("x", nil)
	assert.Empty(t, id)
	assert.False(t, b.IsRegistered("x"))

	b.Broadcast("x", 1)
	b.Wait()
	assert.Len(t, b.Pending(), 1)
	assert.Empty(t, b.History())
	assert.Equal(t, int64(0), b.Snapshot().Scheduled)
}

func TestBroadcast_DeliversToAllSubscribers(t *testing.T) {
	b := New()

	var calls [3]atomic.Int32
	for i := range calls {
		b.Subscribe("tick", func(payload any) {
			assert.Equal(t, "hello", payload)
			calls[i].Add(1)
		})
	}

	b.Broadcast("tick", "hello")
	b.Wait()

	for i := range calls {
		assert.Equal(t, int32(1), calls[i].Load(), "subscriber %d", i)
	}
	require.Len(t, b.History(), 1)
	assert.Empty(t, b.Pending())
}

func TestBroadcast_IsAsynchronous(t *testing.T) {
	exec := &recordingExecutor{}
	b := New(WithExecutor(exec))

	var called bool
	b.Subscribe("x", func(any) { called = true })
	b.Broadcast("x", 1)

	assert.False(t, called, "handler ran on the broadcaster's stack")
	assert.Equal(t, 1, exec.run())
	assert.True(t, called)
}

func TestBroadcast_ScheduleOrderFollowsSubscribeOrder(t *testing.T) {
	exec := &recordingExecutor{}
	b := New(WithExecutor(exec))

	var order []string
	b.Subscribe("x", func(any) { order = append(order, "A") })
	b.Subscribe("x", func(any) { order = append(order, "B") })
	b.Subscribe("x", func(any) { order = append(order, "C") })

	b.Broadcast("x", nil)
	exec.run()

	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestBroadcast_WithoutEntryIsPending(t *testing.T) {
	b := New()

	b.Broadcast("x", 42)
	b.Broadcast("y", "other")
	b.Wait()

	pending := b.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "x", pending[0].Name)
	assert.Equal(t, 42, pending[0].Payload)
	assert.NotEmpty(t, pending[0].ID)
	assert.Empty(t, b.History())
	assert.Equal(t, int64(2), b.Snapshot().QueuedEvents)
}

func TestSubscribe_CollectPreviousEvents(t *testing.T) {
	b := New()

	b.Broadcast("x", 42)
	b.Broadcast("x", 43)
	b.Broadcast("y", "ignored")

	first := &collector{}
	b.Subscribe("x", first.handle, CollectPreviousEvents())
	b.Wait()
	assert.Equal(t, []any{42, 43}, first.received())

	// pending events are not consumed
	second := &collector{}
	b.Subscribe("x", second.handle, WithSubscribeOptions(SubscribeOptions{CollectPreviousEvents: true}))
	b.Wait()
	assert.Equal(t, []any{42, 43}, second.received())

	// replay goes to the new subscriber only
	assert.Equal(t, []any{42, 43}, first.received())
	assert.Len(t, b.Pending(), 3)
	assert.Equal(t, int64(4), b.Snapshot().ReplayedEvents)
}

func TestSubscribe_ReplayPreservesPendingOrder(t *testing.T) {
	exec := &recordingExecutor{}
	b := New(WithExecutor(exec))

	for i := 0; i < 5; i++ {
		b.Broadcast("seq", i)
	}

	var got []any
	b.Subscribe("seq", func(p any) { got = append(got, p) }, CollectPreviousEvents())
	exec.run()

	assert.Equal(t, []any{0, 1, 2, 3, 4}, got)
}

func TestSubscribe_WithoutOptionSkipsPending(t *testing.T) {
	b := New()

	b.Broadcast("x", 42)

	c := &collector{}
	b.Subscribe("x", c.handle)
	b.Wait()

	assert.Empty(t, c.received())
	assert.Len(t, b.Pending(), 1)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := New()
	h1 := &collector{}

	sub1 := b.Subscribe("order.created", h1.handle)
	b.Broadcast("order.created", map[string]int{"id": 1})
	b.Wait()
	assert.Equal(t, []any{map[string]int{"id": 1}}, h1.received())

	b.Unsubscribe("order.created", sub1)
	b.Broadcast("order.created", map[string]int{"id": 2})
	b.Wait()
	assert.Len(t, h1.received(), 1)
}

func TestUnsubscribe_ByIDNotHandler(t *testing.T) {
	b := New()
	shared := &collector{}

	id1 := b.Subscribe("x", shared.handle)
	id2 := b.Subscribe("x", shared.handle)

	b.Unsubscribe("x", id1)
	assert.Equal(t, []string{id2}, b.Subscribers("x"))

	b.Broadcast("x", "once")
	b.Wait()
	assert.Equal(t, []any{"once"}, shared.received())
}

func TestUnsubscribe_NoOps(t *testing.T) {
	b := New()
	id := b.Subscribe("x", func(any) {})

	b.Unsubscribe("x", "")
	b.Unsubscribe("unknown", id)
	b.Unsubscribe("x", "sub-999")
	assert.Equal(t, []string{id}, b.Subscribers("x"))

	b.Unsubscribe("x", id)
	b.Unsubscribe("x", id)
	assert.Empty(t, b.Subscribers("x"))
	assert.Equal(t, int64(0), b.Snapshot().Subscribers)
}

func TestUnsubscribe_EntryStaysRegistered(t *testing.T) {
	b := New()

	id := b.Subscribe("x", func(any) {})
	b.Unsubscribe("x", id)

	assert.True(t, b.IsRegistered("x"))
	assert.NotNil(t, b.Subscribers("x"))

	b.Broadcast("x", 1)
	b.Wait()

	assert.Empty(t, b.Pending())
	require.Len(t, b.History(), 1)
	assert.Equal(t, 1, b.History()[0].Payload)
}

func TestBroadcast_PanicIsIsolated(t *testing.T) {
	var (
		mu        sync.Mutex
		recovered []string
	)
	b := New(WithRecoverHandler(func(eventName, subscriberID string, r any) {
		mu.Lock()
		defer mu.Unlock()
		recovered = append(recovered, eventName+"/"+subscriberID)
	}))

	bad := b.Subscribe("x", func(any) { panic(errors.New("boom")) })
	sibling := &collector{}
	b.Subscribe("x", sibling.handle)

	assert.NotPanics(t, func() { b.Broadcast("x", "payload") })
	b.Wait()

	assert.Equal(t, []any{"payload"}, sibling.received())
	assert.Equal(t, []string{"x/" + bad}, recovered)

	s := b.Snapshot()
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.Delivered)
}

func TestBroadcast_PanickingRecoverHandler(t *testing.T) {
	b := New(WithRecoverHandler(func(string, string, any) { panic("again") }))
	b.Subscribe("x", func(any) { panic("boom") })

	b.Broadcast("x", nil)
	b.Wait()

	assert.Equal(t, int64(1), b.Snapshot().Failed)
}

func TestBroadcast_TimestampFromClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	b := New(WithClock(mock))

	b.Broadcast("early", 1)
	mock.Add(time.Minute)
	b.Subscribe("late", func(any) {})
	b.Broadcast("late", 2)
	b.Wait()

	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), b.Pending()[0].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 5, 5, 0, time.UTC), b.History()[0].Timestamp)
	assert.Equal(t, mock.Now(), b.Snapshot().LastEventTime)
}

func TestBus_HandlerMayUseBus(t *testing.T) {
	b := New()
	done := &collector{}

	b.Subscribe("step.done", done.handle)
	b.Subscribe("step", func(p any) {
		b.Broadcast("step.done", p)
	})

	b.Broadcast("step", 7)
	b.Wait()

	assert.Equal(t, []any{7}, done.received())
}

func TestBus_PoolExecutor(t *testing.T) {
	pool := worker.NewPool(&worker.Config{MaxWorkers: 2, QueueSize: 4, TaskTimeout: time.Second})
	pool.Start()
	defer pool.Stop(context.Background())

	b := New(WithExecutor(NewPoolExecutor(pool)))

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		b.Subscribe("job", func(any) { calls.Add(1) })
	}
	for i := 0; i < 10; i++ {
		b.Broadcast("job", i)
	}
	b.Wait()

	assert.Equal(t, int32(30), calls.Load())
}

func TestBus_PoolExecutorFallsBackWhenStopped(t *testing.T) {
	pool := worker.NewPool(nil)
	pool.Start()
	pool.Stop(context.Background())

	b := ProvideBus(pool, nil)
	c := &collector{}
	b.Subscribe("x", c.handle)
	b.Broadcast("x", "still delivered")
	b.Wait()

	assert.Equal(t, []any{"still delivered"}, c.received())
}

func TestBus_Drain(t *testing.T) {
	b := New()
	release := make(chan struct{})
	b.Subscribe("slow", func(any) { <-release })
	b.Broadcast("slow", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Drain(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, b.Drain(context.Background()))
}

func TestBus_DrainReturnsWhileHandlerHangs(t *testing.T) {
	b := New()
	release := make(chan struct{})
	defer close(release)
	b.Subscribe("hung", func(any) { <-release })
	b.Broadcast("hung", nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.Drain(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after cancel")
	}

	b.inflight.mu.Lock()
	defer b.inflight.mu.Unlock()
	assert.Equal(t, 1, b.inflight.n)
}

func TestBus_DrainDoneContext(t *testing.T) {
	b := New()
	assert.NoError(t, b.Drain(context.Background()))

	release := make(chan struct{})
	defer close(release)
	b.Subscribe("hung", func(any) { <-release })
	b.Broadcast("hung", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Drain(ctx), context.Canceled)
}

func TestBus_ConcurrentUse(t *testing.T) {
	b := New()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{})
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := b.Subscribe("load", func(any) {})
			b.Broadcast("load", id)
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	b.Wait()

	assert.Len(t, ids, 50)
	assert.Len(t, b.History(), 50)
}

func TestGetMetrics(t *testing.T) {
	b := New()

	b.Broadcast("x", 1)
	b.Subscribe("x", func(any) {}, CollectPreviousEvents())
	b.Subscribe("x", func(any) { panic("boom") })
	b.Broadcast("x", 2)
	b.Wait()

	m := b.GetMetrics()
	assert.Equal(t, int64(1), m["broadcasts"])
	assert.Equal(t, int64(1), m["queued_events"])
	assert.Equal(t, int64(1), m["replayed_events"])
	assert.Equal(t, int64(3), m["scheduled"])
	assert.Equal(t, int64(2), m["delivered"])
	assert.Equal(t, int64(1), m["failed"])
	assert.Equal(t, int64(2), m["total_subscribers"])
	assert.Equal(t, 1, m["registered_events"])
	assert.Equal(t, 1, m["history_size"])
	assert.Equal(t, 1, m["pending_size"])
	assert.InDelta(t, 33.33, m["failure_rate"], 0.01)
}
