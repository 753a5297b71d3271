package concurrency

import (
	"github.com/google/wire"
	"github.com/ncobase/pubsub/concurrency/worker"
)

// ProviderSet is the wire provider set for the concurrency package.
// It provides the delivery worker pool.
var ProviderSet = wire.NewSet(
	worker.ProviderSet,
)
