package bus

import (
	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Bus.
type Option func(*Bus)

// WithExecutor sets the executor deliveries are submitted to.
func WithExecutor(e Executor) Option {
	return func(b *Bus) {
		if e != nil {
			b.executor = e
		}
	}
}

// WithClock sets the clock used to timestamp event records.
func WithClock(c clock.Clock) Option {
	return func(b *Bus) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithRecoverHandler sets the callback invoked after a handler panic has
// been recovered.
func WithRecoverHandler(fn RecoverHandler) Option {
	return func(b *Bus) {
		if fn != nil {
			b.onRecover = fn
		}
	}
}

// WithTracerProvider records one consumer span per delivery. Without it
// deliveries are not traced.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bus) {
		if tp != nil {
			b.tracer = tp.Tracer(tracerName)
		}
	}
}

// SubscribeOptions controls a single subscription.
type SubscribeOptions struct {
	// CollectPreviousEvents replays every pending event of the same name to
	// the new subscriber.
	CollectPreviousEvents bool `json:"collect_previous_events" yaml:"collect_previous_events"`
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*SubscribeOptions)

// CollectPreviousEvents enables replay of pending events.
func CollectPreviousEvents() SubscribeOption {
	return func(o *SubscribeOptions) {
		o.CollectPreviousEvents = true
	}
}

// WithSubscribeOptions applies a whole SubscribeOptions value.
func WithSubscribeOptions(opts SubscribeOptions) SubscribeOption {
	return func(o *SubscribeOptions) {
		*o = opts
	}
}

func applySubscribeOptions(opts []SubscribeOption) SubscribeOptions {
	var o SubscribeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
