package metrics

import (
	"github.com/ncobase/pubsub/bus"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "pubsub"
	subsystem = "bus"
)

// StatsSource is implemented by *bus.Bus.
type StatsSource interface {
	Snapshot() bus.Stats
}

// PoolSource is implemented by *worker.Pool.
type PoolSource interface {
	GetMetrics() map[string]int64
}

// Collector exports bus statistics as Prometheus metrics. Values are read
// from the source on every scrape.
type Collector struct {
	source StatsSource
	pool   PoolSource

	broadcasts       *prometheus.Desc
	queued           *prometheus.Desc
	replayed         *prometheus.Desc
	deliveries       *prometheus.Desc
	activeHandlers   *prometheus.Desc
	subscribers      *prometheus.Desc
	registeredEvents *prometheus.Desc
	historySize      *prometheus.Desc
	pendingSize      *prometheus.Desc
	lastEvent        *prometheus.Desc
	poolTasks        *prometheus.Desc
}

// NewCollector creates a collector for source. pool may be nil.
func NewCollector(source StatsSource, pool PoolSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
	}

	return &Collector{
		source:           source,
		pool:             pool,
		broadcasts:       desc("broadcasts_total", "Broadcasts to registered event names"),
		queued:           desc("queued_events_total", "Broadcasts kept as pending because the name had no subscribers yet"),
		replayed:         desc("replayed_events_total", "Pending events replayed to late subscribers"),
		deliveries:       desc("deliveries_total", "Handler deliveries by status", "status"),
		activeHandlers:   desc("active_handlers", "Handlers currently running"),
		subscribers:      desc("subscribers", "Current subscribers across all event names"),
		registeredEvents: desc("registered_events", "Event names that have been subscribed to"),
		historySize:      desc("history_size", "Records in the delivered event history"),
		pendingSize:      desc("pending_size", "Records in the pending queue"),
		lastEvent:        desc("last_event_timestamp_seconds", "Unix time of the last broadcast"),
		poolTasks:        desc("pool_tasks", "Delivery pool task counters", "state"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.broadcasts
	ch <- c.queued
	ch <- c.replayed
	ch <- c.deliveries
	ch <- c.activeHandlers
	ch <- c.subscribers
	ch <- c.registeredEvents
	ch <- c.historySize
	ch <- c.pendingSize
	ch <- c.lastEvent
	if c.pool != nil {
		ch <- c.poolTasks
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	counter(c.broadcasts, s.Broadcasts)
	counter(c.queued, s.QueuedEvents)
	counter(c.replayed, s.ReplayedEvents)
	counter(c.deliveries, s.Scheduled, "scheduled")
	counter(c.deliveries, s.Delivered, "delivered")
	counter(c.deliveries, s.Failed, "failed")
	gauge(c.activeHandlers, float64(s.ActiveHandlers))
	gauge(c.subscribers, float64(s.Subscribers))
	gauge(c.registeredEvents, float64(s.RegisteredEvents))
	gauge(c.historySize, float64(s.HistorySize))
	gauge(c.pendingSize, float64(s.PendingSize))

	var last float64
	if !s.LastEventTime.IsZero() {
		last = float64(s.LastEventTime.UnixNano()) / 1e9
	}
	gauge(c.lastEvent, last)

	if c.pool != nil {
		for state, v := range c.pool.GetMetrics() {
			if state == "processing_time" {
				continue
			}
			gauge(c.poolTasks, float64(v), state)
		}
	}
}
