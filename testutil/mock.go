// Package testutil provides stream buffer fakes and sample generators for
// component tests.
package testutil

import (
	"errors"
	"sync"

	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Common test errors
var (
	ErrMockFailed  = errors.New("mock operation failed")
	ErrMockTimeout = errors.New("mock operation timed out")
)

// Counts is a snapshot of the acquire/release calls seen by a MockBuffer.
type Counts struct {
	WriteAcquires int
	WriteReleases int
	ReadAcquires  int
	ReadReleases  int
}

// OutstandingWrites returns write acquisitions not yet released.
func (c Counts) OutstandingWrites() int {
	return c.WriteAcquires - c.WriteReleases
}

// OutstandingReads returns read acquisitions not yet released.
func (c Counts) OutstandingReads() int {
	return c.ReadAcquires - c.ReadReleases
}

// MockBuffer wraps a real stream, counts every successful acquire and release,
// and optionally fails selected calls.
type MockBuffer[T types.Element] struct {
	*buffer.Stream[T]

	mu     sync.Mutex
	counts Counts

	// Injected failures; nil means the call goes through to the stream.
	AcquireWriteErr error
	ReleaseWriteErr error
	AcquireReadErr  error
	ReleaseReadErr  error
}

// NewMockBuffer creates a MockBuffer over a Reject-policy stream of the given depth.
func NewMockBuffer[T types.Element](name string, depth int) *MockBuffer[T] {
	stream, err := buffer.NewStream[T](name, depth, buffer.WithOverflowPolicy(buffer.Reject))
	if err != nil {
		panic(err)
	}
	return &MockBuffer[T]{Stream: stream}
}

// Counts returns a snapshot of the call counters.
func (m *MockBuffer[T]) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts
}

// AcquireWrite counts and forwards the call unless a failure is injected.
func (m *MockBuffer[T]) AcquireWrite(size int) (*buffer.DataSet[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireWriteErr != nil {
		return nil, m.AcquireWriteErr
	}
	ds, err := m.Stream.AcquireWrite(size)
	if err == nil {
		m.counts.WriteAcquires++
	}
	return ds, err
}

// ReleaseWrite counts and forwards the call. An injected failure still
// returns the DataSet to the stream so the fake never leaks.
func (m *MockBuffer[T]) ReleaseWrite(ds *buffer.DataSet[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.Stream.ReleaseWrite(ds)
	if err == nil {
		m.counts.WriteReleases++
	}
	if m.ReleaseWriteErr != nil {
		return m.ReleaseWriteErr
	}
	return err
}

// AcquireRead counts and forwards the call unless a failure is injected.
func (m *MockBuffer[T]) AcquireRead() (*buffer.DataSet[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireReadErr != nil {
		return nil, m.AcquireReadErr
	}
	ds, err := m.Stream.AcquireRead()
	if err == nil {
		m.counts.ReadAcquires++
	}
	return ds, err
}

// ReleaseRead counts and forwards the call.
func (m *MockBuffer[T]) ReleaseRead(ds *buffer.DataSet[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.Stream.ReleaseRead(ds)
	if err == nil {
		m.counts.ReadReleases++
	}
	if m.ReleaseReadErr != nil {
		return m.ReleaseReadErr
	}
	return err
}

// Push publishes one DataSet onto the buffer for a component to read.
func (m *MockBuffer[T]) Push(data []T, sampleRate, timestamp float64) error {
	return buffer.Write[T](m.Stream, data, sampleRate, timestamp)
}

// Pop consumes the oldest DataSet written by a component.
func (m *MockBuffer[T]) Pop() (*buffer.DataSet[T], error) {
	ds, err := m.Stream.AcquireRead()
	if err != nil {
		return nil, err
	}
	data := make([]T, len(ds.Data))
	copy(data, ds.Data)
	out := &buffer.DataSet[T]{
		Data:       data,
		SampleRate: ds.SampleRate,
		Timestamp:  ds.Timestamp,
	}
	return out, m.Stream.ReleaseRead(ds)
}

// MockComponent is a hand-driven processing stub for host tests.
type MockComponent struct {
	mu sync.Mutex

	ProcessFunc func(inputs, outputs []buffer.Handle) error

	ProcessCalls int
}

// Process records the call and delegates to ProcessFunc.
func (m *MockComponent) Process(inputs, outputs []buffer.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessCalls++
	if m.ProcessFunc != nil {
		return m.ProcessFunc(inputs, outputs)
	}
	return nil
}
