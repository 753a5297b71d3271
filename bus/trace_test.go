package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTracing_SpanPerDelivery(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	b := New(WithTracerProvider(tp))

	b.Broadcast("user.created", "early")
	id := b.Subscribe("user.created", func(any) {}, CollectPreviousEvents())
	b.Subscribe("user.created", func(any) { panic("boom") })
	b.Broadcast("user.created", "live")
	b.Wait()

	spans := sr.Ended()
	require.Len(t, spans, 3)

	var replayed, failed int
	for _, s := range spans {
		assert.Equal(t, "deliver user.created", s.Name())
		assert.Equal(t, trace.SpanKindConsumer, s.SpanKind())

		attrs := spanAttrs(s)
		assert.Equal(t, "user.created", attrs["pubsub.event.name"].AsString())
		assert.NotEmpty(t, attrs["pubsub.event.id"].AsString())
		if attrs["pubsub.replayed"].AsBool() {
			replayed++
			assert.Equal(t, id, attrs["pubsub.subscriber.id"].AsString())
			assert.Equal(t, b.Pending()[0].ID, attrs["pubsub.event.id"].AsString())
		}
		if s.Status().Code == codes.Error {
			failed++
			assert.Equal(t, "boom", s.Status().Description)
		}
	}
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 1, failed)
}

func TestTracing_NilProviderKeepsNoop(t *testing.T) {
	b := New(WithTracerProvider(nil))
	b.Subscribe("x", func(any) {})
	b.Broadcast("x", 1)
	b.Wait()

	assert.Equal(t, int64(1), b.Snapshot().Delivered)
}
