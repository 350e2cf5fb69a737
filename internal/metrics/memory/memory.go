// Package memory provides an in-memory metrics collector for tests.
package memory

import (
	"sync"
	"time"

	"finance-tracker/internal/metrics"
)

// Collector counts every recorded signal. It is safe for concurrent use.
type Collector struct {
	mu sync.RWMutex

	gets          map[string]int64
	misses        map[string]int64
	sets          map[string]int64
	setErrors     map[string]int64
	errorsByType  map[string]int64
	circuitStates map[string]metrics.CircuitState
	mutations     map[string]int64

	queueDepth   int
	saves        int64
	saveErrors   int64
	savesDropped int64
}

var _ metrics.Collector = (*Collector)(nil)

func NewCollector() *Collector {
	return &Collector{
		gets:          make(map[string]int64),
		misses:        make(map[string]int64),
		sets:          make(map[string]int64),
		setErrors:     make(map[string]int64),
		errorsByType:  make(map[string]int64),
		circuitStates: make(map[string]metrics.CircuitState),
		mutations:     make(map[string]int64),
	}
}

func (c *Collector) RecordGet(backend string, found bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets[backend]++
	if !found {
		c.misses[backend]++
	}
}

func (c *Collector) RecordSet(backend string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[backend]++
	if !success {
		c.setErrors[backend]++
	}
}

func (c *Collector) RecordError(backend, operation, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorsByType[errorType]++
}

func (c *Collector) RecordCircuitState(backend string, state metrics.CircuitState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.circuitStates[backend] = state
}

func (c *Collector) RecordQueueDepth(depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueDepth = depth
}

func (c *Collector) RecordSaveDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.savesDropped++
}

func (c *Collector) RecordSave(success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if !success {
		c.saveErrors++
	}
}

func (c *Collector) RecordMutation(operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations[operation]++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Gets          map[string]int64
	Misses        map[string]int64
	Sets          map[string]int64
	SetErrors     map[string]int64
	ErrorsByType  map[string]int64
	CircuitStates map[string]metrics.CircuitState
	Mutations     map[string]int64
	QueueDepth    int
	Saves         int64
	SaveErrors    int64
	SavesDropped  int64
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Gets:          copyCounts(c.gets),
		Misses:        copyCounts(c.misses),
		Sets:          copyCounts(c.sets),
		SetErrors:     copyCounts(c.setErrors),
		ErrorsByType:  copyCounts(c.errorsByType),
		CircuitStates: copyStates(c.circuitStates),
		Mutations:     copyCounts(c.mutations),
		QueueDepth:    c.queueDepth,
		Saves:         c.saves,
		SaveErrors:    c.saveErrors,
		SavesDropped:  c.savesDropped,
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStates(in map[string]metrics.CircuitState) map[string]metrics.CircuitState {
	out := make(map[string]metrics.CircuitState, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
