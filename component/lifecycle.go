package component

import (
	"sync/atomic"
)

// State represents the current lifecycle state of a component
type State int32

const (
	// StateCreated indicates component was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates component is ready to process
	StateInitialized
	// StateFailed indicates component failed during a lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lifecycle is an embeddable, thread-safe state holder.
type Lifecycle struct {
	state atomic.Int32
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// SetState records a new state.
func (l *Lifecycle) SetState(s State) {
	l.state.Store(int32(s))
}

// Transition moves from one state to another and reports whether the current
// state matched from.
func (l *Lifecycle) Transition(from, to State) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}

// Ready reports whether the component has been initialized.
func (l *Lifecycle) Ready() bool {
	return l.State() == StateInitialized
}
