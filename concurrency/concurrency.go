package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Manager limits how many tasks run at the same time
type Manager struct {
	maxConcurrent int32
	current       atomic.Int32
	semaphore     chan struct{}

	totalExecutions atomic.Int64
	rejectedCount   atomic.Int64
}

// NewManager creates a new concurrency manager
//
// Usage:
//
//	cm, err := concurrency.NewManager(8)
//	if err != nil {
//	    return err
//	}
//
//	// as a bus executor: at most 8 handlers run at once, the broadcaster
//	// never waits for a slot
//	b := bus.New(bus.WithExecutor(cm))
//
//	// or guard work directly
//	if err := cm.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer cm.Release()
func NewManager(max int32) (*Manager, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max concurrent must be positive, got: %d", max)
	}

	return &Manager{
		maxConcurrent: max,
		semaphore:     make(chan struct{}, max),
	}, nil
}

// Acquire waits for a concurrency slot until ctx is done
func (m *Manager) Acquire(ctx context.Context) error {
	select {
	case m.semaphore <- struct{}{}:
		m.current.Add(1)
		m.totalExecutions.Add(1)
		return nil
	case <-ctx.Done():
		m.rejectedCount.Add(1)
		return fmt.Errorf("failed to acquire concurrency slot: %w", ctx.Err())
	}
}

// TryAcquire attempts to acquire without blocking
func (m *Manager) TryAcquire() bool {
	select {
	case m.semaphore <- struct{}{}:
		m.current.Add(1)
		m.totalExecutions.Add(1)
		return true
	default:
		return false
	}
}

// Release releases a concurrency slot
func (m *Manager) Release() {
	select {
	case <-m.semaphore:
		m.current.Add(-1)
	default:
		panic("attempting to release more slots than acquired")
	}
}

// Submit runs task on its own goroutine once a slot is free. The caller
// never blocks; waiting happens on the task's goroutine.
func (m *Manager) Submit(task func()) {
	go func() {
		_ = m.Acquire(context.Background())
		defer m.Release()
		task()
	}()
}

// GetMetrics returns current metrics
func (m *Manager) GetMetrics() map[string]int64 {
	return map[string]int64{
		"current":          int64(m.current.Load()),
		"total_executions": m.totalExecutions.Load(),
		"rejected_count":   m.rejectedCount.Load(),
	}
}

// Available returns the number of available slots
func (m *Manager) Available() int32 {
	return m.maxConcurrent - m.current.Load()
}
