// Package metrics exposes multiplexer events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "fairmux"

// Collector is a prometheus.Collector that implements mux.Metrics.
type Collector struct {
	registeredKeys prometheus.Counter
	closedKeys     prometheus.Counter
	notifications  prometheus.Counter
	emitted        prometheus.Counter
	deferred       prometheus.Counter
	readyKeys      prometheus.Gauge
	emitLatency    prometheus.Histogram
}

// NewCollector returns a new Collector. name is attached as a constant
// label so several multiplexers can share a registry.
func NewCollector(name string) *Collector {
	labels := prometheus.Labels{"mux": name}
	return &Collector{
		registeredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "registered_keys_total",
			Help:        "The number of keys registered.",
			ConstLabels: labels,
		}),
		closedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "closed_keys_total",
			Help:        "The number of keys closed and fully drained.",
			ConstLabels: labels,
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "notifications_total",
			Help:        "The number of readiness notifications drained into the ledger.",
			ConstLabels: labels,
		}),
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "emitted_total",
			Help:        "The number of items handed to the consumer.",
			ConstLabels: labels,
		}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "deferred_reads_total",
			Help:        "The number of served keys whose value was not yet visible.",
			ConstLabels: labels,
		}),
		readyKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "ready_keys",
			Help:        "The number of keys with pending notifications.",
			ConstLabels: labels,
		}),
		emitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "emit_latency_seconds",
			Help:        "The time between a send and the emission of its item.",
			Buckets:     []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
			ConstLabels: labels,
		}),
	}
}

// KeyRegistered is part of the mux.Metrics interface.
func (c *Collector) KeyRegistered() {
	c.registeredKeys.Inc()
}

// KeyClosed is part of the mux.Metrics interface.
func (c *Collector) KeyClosed() {
	c.closedKeys.Inc()
}

// Notified is part of the mux.Metrics interface.
func (c *Collector) Notified(n int) {
	c.notifications.Add(float64(n))
}

// Emitted is part of the mux.Metrics interface.
func (c *Collector) Emitted(latency time.Duration) {
	c.emitted.Inc()
	c.emitLatency.Observe(latency.Seconds())
}

// Deferred is part of the mux.Metrics interface.
func (c *Collector) Deferred() {
	c.deferred.Inc()
}

// ReadyKeys is part of the mux.Metrics interface.
func (c *Collector) ReadyKeys(n int) {
	c.readyKeys.Set(float64(n))
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.registeredKeys.Describe(ch)
	c.closedKeys.Describe(ch)
	c.notifications.Describe(ch)
	c.emitted.Describe(ch)
	c.deferred.Describe(ch)
	c.readyKeys.Describe(ch)
	c.emitLatency.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.registeredKeys.Collect(ch)
	c.closedKeys.Collect(ch)
	c.notifications.Collect(ch)
	c.emitted.Collect(ch)
	c.deferred.Collect(ch)
	c.readyKeys.Collect(ch)
	c.emitLatency.Collect(ch)
}
