package health

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Component states as reported by the component lifecycle.
const (
	StateCreated     = "created"
	StateInitialized = "initialized"
	StateFailed      = "failed"
)

// Monitor tracks the processing outcome of every component in a flow in a
// thread-safe manner.
type Monitor struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	state        string
	since        time.Time
	processed    int64
	errors       int
	consecutive  int
	lastError    string
	lastFatal    bool
	lastActivity time.Time
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	return &Monitor{
		entries: make(map[string]*entry),
	}
}

func (m *Monitor) entryLocked(name string) *entry {
	e, ok := m.entries[name]
	if !ok {
		e = &entry{state: StateCreated, since: time.Now()}
		m.entries[name] = e
	}
	return e
}

// SetState records a lifecycle state ("created", "initialized", "failed").
func (m *Monitor) SetState(name, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entryLocked(name).state = state
}

// RecordSuccess records a successful Process call and clears the failure streak.
func (m *Monitor) RecordSuccess(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryLocked(name)
	e.processed++
	e.consecutive = 0
	e.lastFatal = false
	e.lastActivity = time.Now()
}

// RecordFailure records a failed Process call. Fatal failures make the
// component unhealthy until it succeeds again.
func (m *Monitor) RecordFailure(name string, err error, fatal bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryLocked(name)
	e.errors++
	e.consecutive++
	e.lastFatal = fatal
	e.lastActivity = time.Now()
	if err != nil {
		e.lastError = err.Error()
	}
}

// Remove stops tracking a component
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

// Get returns the current status of a component
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[name]
	if !ok {
		return Status{}, false
	}
	return e.status(name), true
}

// GetAll returns the status of every tracked component
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Status, len(m.entries))
	for name, e := range m.entries {
		out[name] = e.status(name)
	}
	return out
}

// ListComponents returns the tracked component names, sorted
func (m *Monitor) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AggregateHealth returns the flow status with one sub-status per component,
// ordered by name.
func (m *Monitor) AggregateHealth(flowName string) Status {
	all := m.GetAll()
	subs := make([]Status, 0, len(all))
	for _, name := range m.ListComponents() {
		if s, ok := all[name]; ok {
			subs = append(subs, s)
		}
	}
	return Aggregate(flowName, subs)
}

func (e *entry) status(name string) Status {
	var s Status
	switch {
	case e.state == StateFailed || (e.lastFatal && e.consecutive > 0):
		s = NewUnhealthy(name, sanitizeErrorMessage(e.lastError))
	case e.state == StateCreated:
		s = NewDegraded(name, "Not initialized")
	case e.consecutive > 0:
		s = NewDegraded(name, sanitizeErrorMessage(e.lastError))
	default:
		s = NewHealthy(name, "Processed "+strconv.FormatInt(e.processed, 10)+" times")
	}
	if s.Message == "" {
		s.Message = "Component failed"
	}

	s.Metrics = &Metrics{
		Uptime:              time.Since(e.since),
		Processed:           e.processed,
		ErrorCount:          e.errors,
		ConsecutiveFailures: e.consecutive,
		LastActivity:        e.lastActivity,
	}
	return s
}
