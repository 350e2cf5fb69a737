// Package prometheus exports ledger metrics through client_golang.
package prometheus

import (
	"time"

	"finance-tracker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	namespace string

	storageGets   *prometheus.CounterVec
	storageMisses *prometheus.CounterVec
	storageSets   *prometheus.CounterVec
	storageErrors *prometheus.CounterVec

	circuitOpens *prometheus.CounterVec
	circuitState *prometheus.GaugeVec

	queueDepth   prometheus.Gauge
	savesDropped prometheus.Counter
	saves        *prometheus.CounterVec

	mutations *prometheus.CounterVec

	getLatency  *prometheus.HistogramVec
	setLatency  *prometheus.HistogramVec
	saveLatency prometheus.Histogram
}

var _ metrics.Collector = (*Collector)(nil)

// NewCollector creates the metric vectors; call Register to expose them.
func NewCollector(namespace string) *Collector {
	return &Collector{
		namespace: namespace,
		storageGets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_gets_total",
				Help:      "Total number of storage get operations per backend",
			},
			[]string{"backend"},
		),
		storageMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_misses_total",
				Help:      "Total number of storage gets that found no value",
			},
			[]string{"backend"},
		),
		storageSets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_sets_total",
				Help:      "Total number of storage set operations per backend",
			},
			[]string{"backend", "status"},
		),
		storageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of storage errors per backend, operation and type",
			},
			[]string{"backend", "operation", "error_type"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Total number of circuit breaker opens per backend",
			},
			[]string{"backend"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state per backend (0=closed, 1=open, 2=half-open)",
			},
			[]string{"backend"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "save_queue_depth",
				Help:      "Current number of snapshots waiting to be saved",
			},
		),
		savesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_dropped_total",
				Help:      "Total number of snapshot saves dropped because the queue was full",
			},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Total number of snapshot saves by status",
			},
			[]string{"status"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_mutations_total",
				Help:      "Total number of successful ledger mutations by operation",
			},
			[]string{"operation"},
		),
		getLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_get_duration_seconds",
				Help:      "Storage get operation latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 0.1ms to ~3s
			},
			[]string{"backend"},
		),
		setLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_set_duration_seconds",
				Help:      "Storage set operation latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"backend"},
		),
		saveLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "save_duration_seconds",
				Help:      "Snapshot save latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
		),
	}
}

// Register registers all metrics with the given registerer.
func (c *Collector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.storageGets,
		c.storageMisses,
		c.storageSets,
		c.storageErrors,
		c.circuitOpens,
		c.circuitState,
		c.queueDepth,
		c.savesDropped,
		c.saves,
		c.mutations,
		c.getLatency,
		c.setLatency,
		c.saveLatency,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) RecordGet(backend string, found bool, duration time.Duration) {
	c.storageGets.WithLabelValues(backend).Inc()
	if !found {
		c.storageMisses.WithLabelValues(backend).Inc()
	}
	c.getLatency.WithLabelValues(backend).Observe(duration.Seconds())
}

func (c *Collector) RecordSet(backend string, success bool, duration time.Duration) {
	c.storageSets.WithLabelValues(backend, status(success)).Inc()
	c.setLatency.WithLabelValues(backend).Observe(duration.Seconds())
}

func (c *Collector) RecordError(backend, operation, errorType string) {
	c.storageErrors.WithLabelValues(backend, operation, errorType).Inc()
}

func (c *Collector) RecordCircuitState(backend string, state metrics.CircuitState) {
	c.circuitState.WithLabelValues(backend).Set(float64(state))
	if state == metrics.CircuitOpen {
		c.circuitOpens.WithLabelValues(backend).Inc()
	}
}

func (c *Collector) RecordQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

func (c *Collector) RecordSaveDropped() {
	c.savesDropped.Inc()
}

func (c *Collector) RecordSave(success bool, duration time.Duration) {
	c.saves.WithLabelValues(status(success)).Inc()
	c.saveLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordMutation(operation string) {
	c.mutations.WithLabelValues(operation).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
