package bus

import (
	"sync/atomic"
	"time"
)

type metrics struct {
	broadcasts       atomic.Int64 // broadcasts to registered names
	queued           atomic.Int64 // broadcasts kept as pending
	replayed         atomic.Int64 // pending events replayed to late subscribers
	scheduled        atomic.Int64
	delivered        atomic.Int64
	failed           atomic.Int64
	activeHandlers   atomic.Int64
	totalSubscribers atomic.Int64
	lastEventTime    atomic.Value // time.Time
}

func (m *metrics) init() {
	m.lastEventTime.Store(time.Time{})
}

// Stats is a point-in-time view of bus activity.
type Stats struct {
	Broadcasts       int64     `json:"broadcasts"`
	QueuedEvents     int64     `json:"queued_events"`
	ReplayedEvents   int64     `json:"replayed_events"`
	Scheduled        int64     `json:"scheduled"`
	Delivered        int64     `json:"delivered"`
	Failed           int64     `json:"failed"`
	ActiveHandlers   int64     `json:"active_handlers"`
	Subscribers      int64     `json:"total_subscribers"`
	RegisteredEvents int       `json:"registered_events"`
	HistorySize      int       `json:"history_size"`
	PendingSize      int       `json:"pending_size"`
	LastEventTime    time.Time `json:"last_event_time"`
}

// Snapshot returns the current Stats.
func (b *Bus) Snapshot() Stats {
	b.mu.RLock()
	registered, historySize, pendingSize := len(b.entries), len(b.history), len(b.pending)
	b.mu.RUnlock()

	return Stats{
		Broadcasts:       b.metrics.broadcasts.Load(),
		QueuedEvents:     b.metrics.queued.Load(),
		ReplayedEvents:   b.metrics.replayed.Load(),
		Scheduled:        b.metrics.scheduled.Load(),
		Delivered:        b.metrics.delivered.Load(),
		Failed:           b.metrics.failed.Load(),
		ActiveHandlers:   b.metrics.activeHandlers.Load(),
		Subscribers:      b.metrics.totalSubscribers.Load(),
		RegisteredEvents: registered,
		HistorySize:      historySize,
		PendingSize:      pendingSize,
		LastEventTime:    b.metrics.lastEventTime.Load().(time.Time),
	}
}

// GetMetrics returns event bus metrics
func (b *Bus) GetMetrics() map[string]any {
	s := b.Snapshot()
	return map[string]any{
		"broadcasts":        s.Broadcasts,
		"queued_events":     s.QueuedEvents,
		"replayed_events":   s.ReplayedEvents,
		"scheduled":         s.Scheduled,
		"delivered":         s.Delivered,
		"failed":            s.Failed,
		"active_handlers":   s.ActiveHandlers,
		"total_subscribers": s.Subscribers,
		"registered_events": s.RegisteredEvents,
		"history_size":      s.HistorySize,
		"pending_size":      s.PendingSize,
		"last_event_time":   s.LastEventTime,
		"failure_rate":      s.failureRate(),
	}
}

// failureRate is the percentage of finished deliveries that panicked
func (s Stats) failureRate() float64 {
	finished := s.Delivered + s.Failed
	if finished == 0 {
		return 0.0
	}
	return (float64(s.Failed) / float64(finished)) * 100.0
}
