package bus

import (
	"github.com/google/wire"
	"github.com/ncobase/pubsub/concurrency/worker"
)

// ProviderSet is the wire provider set for the bus package.
//
// Usage:
//
//	wire.Build(
//	    worker.ProviderSet,
//	    bus.ProviderSet,
//	    // ... RecoverHandler provider, e.g. logger.RecoverHandler
//	)
var ProviderSet = wire.NewSet(ProvideBus)

// ProvideBus creates a bus delivering through pool. A nil pool falls back
// to one goroutine per delivery.
func ProvideBus(pool *worker.Pool, onRecover RecoverHandler) *Bus {
	opts := []Option{WithRecoverHandler(onRecover)}
	if pool != nil {
		opts = append(opts, WithExecutor(NewPoolExecutor(pool)))
	}
	return New(opts...)
}
