package bus

import (
	"github.com/ncobase/pubsub/concurrency/worker"
)

// Executor runs delivery tasks. Submit must not run the task on the
// caller's stack and must not drop it.
type Executor interface {
	Submit(task func())
}

// GoExecutor runs every task on its own goroutine.
type GoExecutor struct{}

// Submit starts task on a new goroutine.
func (GoExecutor) Submit(task func()) {
	go task()
}

// PoolExecutor submits tasks to a worker pool. A task the pool refuses
// (queue full or pool stopped) runs on a fresh goroutine instead.
type PoolExecutor struct {
	pool *worker.Pool
}

// NewPoolExecutor wraps a started pool.
func NewPoolExecutor(pool *worker.Pool) *PoolExecutor {
	return &PoolExecutor{pool: pool}
}

// Submit implements Executor.
func (e *PoolExecutor) Submit(task func()) {
	if e.pool == nil {
		go task()
		return
	}
	if err := e.pool.Submit(task); err != nil {
		go task()
	}
}
