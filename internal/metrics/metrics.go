// Package metrics defines the signals the ledger reports and a no-op default.
package metrics

import (
	"time"
)

// Collector receives storage, persistence and ledger metrics.
// Implementations export them to a backend such as Prometheus.
type Collector interface {
	// Storage gateway operations
	RecordGet(backend string, found bool, duration time.Duration)
	RecordSet(backend string, success bool, duration time.Duration)
	RecordError(backend, operation, errorType string)

	// Circuit breaker
	RecordCircuitState(backend string, state CircuitState)

	// Async saver
	RecordQueueDepth(depth int)
	RecordSaveDropped()
	RecordSave(success bool, duration time.Duration)

	// Ledger mutations, labelled by operation name
	RecordMutation(operation string)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means the circuit breaker is allowing requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the circuit breaker is blocking requests.
	CircuitOpen
	// CircuitHalfOpen means the circuit breaker is testing if the backend has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is used when metrics are disabled.
type NoOpCollector struct{}

func (NoOpCollector) RecordGet(backend string, found bool, duration time.Duration)   {}
func (NoOpCollector) RecordSet(backend string, success bool, duration time.Duration) {}
func (NoOpCollector) RecordError(backend, operation, errorType string)               {}
func (NoOpCollector) RecordCircuitState(backend string, state CircuitState)          {}
func (NoOpCollector) RecordQueueDepth(depth int)                                     {}
func (NoOpCollector) RecordSaveDropped()                                             {}
func (NoOpCollector) RecordSave(success bool, duration time.Duration)                {}
func (NoOpCollector) RecordMutation(operation string)                                {}
