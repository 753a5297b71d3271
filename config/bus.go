package config

import (
	"time"

	"github.com/ncobase/pubsub/concurrency/worker"
	"github.com/spf13/viper"
)

// Executor names accepted in bus.executor
const (
	ExecutorGoroutine = "goroutine"
	ExecutorPool      = "pool"
	ExecutorLimited   = "limited"
)

// Bus bus config struct
type Bus struct {
	Executor      string
	MaxConcurrent int32
	Workers       int
	QueueSize     int
	TaskTimeout   time.Duration
}

func setBusDefaults(v *viper.Viper) {
	def := worker.DefaultConfig()
	v.SetDefault("bus.executor", ExecutorGoroutine)
	v.SetDefault("bus.max_concurrent", def.MaxWorkers)
	v.SetDefault("bus.workers", def.MaxWorkers)
	v.SetDefault("bus.queue_size", def.QueueSize)
	v.SetDefault("bus.task_timeout", def.TaskTimeout)
}

// getBusConfig returns the bus config
func getBusConfig(v *viper.Viper) *Bus {
	return &Bus{
		Executor:      v.GetString("bus.executor"),
		MaxConcurrent: v.GetInt32("bus.max_concurrent"),
		Workers:       v.GetInt("bus.workers"),
		QueueSize:     v.GetInt("bus.queue_size"),
		TaskTimeout:   v.GetDuration("bus.task_timeout"),
	}
}

// UsePool reports whether deliveries should go through a worker pool.
func (b *Bus) UsePool() bool {
	return b != nil && b.Executor == ExecutorPool
}

// UseLimiter reports whether deliveries should run on goroutines capped at
// MaxConcurrent.
func (b *Bus) UseLimiter() bool {
	return b != nil && b.Executor == ExecutorLimited
}

// Worker converts the bus section into a worker pool configuration.
func (b *Bus) Worker() *worker.Config {
	if b == nil {
		return worker.DefaultConfig()
	}
	return &worker.Config{
		MaxWorkers:  b.Workers,
		QueueSize:   b.QueueSize,
		TaskTimeout: b.TaskTimeout,
	}
}
