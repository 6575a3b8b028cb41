package buffer

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Stream is a bounded, thread-safe queue of DataSets with one element type.
// At most one DataSet may be acquired for writing and one for reading at any
// time.
type Stream[T types.Element] struct {
	name     string
	dataType types.DataType
	depth    int
	policy   OverflowPolicy

	mu      sync.Mutex
	queue   []*DataSet[T]
	pool    []*DataSet[T]
	writing *DataSet[T]
	reading *DataSet[T]
	closed  bool
	changed chan struct{}

	stats   *Statistics
	metrics *bufferMetrics
}

// NewStream creates a stream buffer holding at most depth DataSets.
func NewStream[T types.Element](name string, depth int, options ...Option) (*Stream[T], error) {
	if depth <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stream", "NewStream",
			fmt.Sprintf("validate depth %d", depth))
	}

	opts := applyOptions(options...)
	s := &Stream[T]{
		name:     name,
		dataType: types.TypeOf[T](),
		depth:    depth,
		policy:   opts.overflowPolicy,
		queue:    make([]*DataSet[T], 0, depth),
		changed:  make(chan struct{}),
		stats:    NewStatistics(),
	}

	if opts.metricsReg != nil {
		m, err := newBufferMetrics(opts.metricsReg, name)
		if err != nil {
			return nil, errors.Wrap(err, "Stream", "NewStream", "register metrics")
		}
		s.metrics = m
	}

	return s, nil
}

// Name returns the buffer name.
func (s *Stream[T]) Name() string { return s.name }

// DataType returns the element type tag of the stream.
func (s *Stream[T]) DataType() types.DataType { return s.dataType }

// Depth returns the maximum number of queued DataSets.
func (s *Stream[T]) Depth() int { return s.depth }

// Policy returns the overflow policy.
func (s *Stream[T]) Policy() OverflowPolicy { return s.policy }

// Stats returns the statistics tracker.
func (s *Stream[T]) Stats() *Statistics { return s.stats }

// Len returns the number of queued DataSets, including one being read.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// HasData reports whether a DataSet is queued.
func (s *Stream[T]) HasData() bool {
	return s.Len() > 0
}

// AcquireWrite borrows a DataSet of size elements. With the Block policy it
// waits for space until the stream is closed.
func (s *Stream[T]) AcquireWrite(size int) (*DataSet[T], error) {
	return s.AcquireWriteContext(context.Background(), size)
}

// AcquireWriteContext is AcquireWrite with cancellation for the Block policy.
func (s *Stream[T]) AcquireWriteContext(ctx context.Context, size int) (*DataSet[T], error) {
	if size < 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Stream", "AcquireWrite",
			fmt.Sprintf("validate size %d", size))
	}

	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			return nil, errors.WrapFatal(errors.ErrBufferClosed, "Stream", "AcquireWrite", "acquire "+s.name)
		}
		if s.writing != nil {
			s.mu.Unlock()
			return nil, errors.WrapFatal(errors.ErrAlreadyAcquired, "Stream", "AcquireWrite", "acquire "+s.name)
		}
		if len(s.queue) < s.depth {
			break
		}

		s.stats.Overflow()
		s.metrics.recordOverflow()

		switch s.policy {
		case DropOldest:
			if s.dropOldestLocked() {
				continue
			}
			s.mu.Unlock()
			return nil, errors.WrapTransient(errors.ErrBufferFull, "Stream", "AcquireWrite", "acquire "+s.name)
		case Reject:
			s.mu.Unlock()
			return nil, errors.WrapTransient(errors.ErrBufferFull, "Stream", "AcquireWrite", "acquire "+s.name)
		default:
			wait := s.changed
			s.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return nil, errors.WrapTransient(ctx.Err(), "Stream", "AcquireWrite", "wait for space in "+s.name)
			}
			s.mu.Lock()
		}
	}

	ds := s.takeLocked(size)
	s.writing = ds
	s.mu.Unlock()

	s.stats.AcquireWrite()
	return ds, nil
}

// ReleaseWrite publishes the DataSet obtained from AcquireWrite.
func (s *Stream[T]) ReleaseWrite(ds *DataSet[T]) error {
	s.mu.Lock()
	if ds == nil || ds != s.writing {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrInvalidRelease, "Stream", "ReleaseWrite", "release "+s.name)
	}
	s.writing = nil
	if s.closed {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrBufferClosed, "Stream", "ReleaseWrite", "release "+s.name)
	}
	s.queue = append(s.queue, ds)
	size := len(s.queue)
	s.notifyLocked()
	s.mu.Unlock()

	s.stats.ReleaseWrite(len(ds.Data))
	s.stats.UpdateSize(int64(size))
	s.metrics.recordPublish(len(ds.Data), size, s.depth)
	return nil
}

// AcquireRead borrows the oldest queued DataSet. It fails with ErrBufferEmpty
// when nothing is queued.
func (s *Stream[T]) AcquireRead() (*DataSet[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.acquireReadLocked()
	if err != nil {
		return nil, err
	}
	s.stats.AcquireRead()
	return ds, nil
}

// AcquireReadContext waits for a DataSet to become available.
func (s *Stream[T]) AcquireReadContext(ctx context.Context) (*DataSet[T], error) {
	s.mu.Lock()
	for len(s.queue) == 0 && !s.closed && s.reading == nil {
		wait := s.changed
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, errors.WrapTransient(ctx.Err(), "Stream", "AcquireRead", "wait for data in "+s.name)
		}
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	ds, err := s.acquireReadLocked()
	if err != nil {
		return nil, err
	}
	s.stats.AcquireRead()
	return ds, nil
}

func (s *Stream[T]) acquireReadLocked() (*DataSet[T], error) {
	if s.reading != nil {
		return nil, errors.WrapFatal(errors.ErrAlreadyAcquired, "Stream", "AcquireRead", "acquire "+s.name)
	}
	if len(s.queue) == 0 {
		if s.closed {
			return nil, errors.WrapFatal(errors.ErrBufferClosed, "Stream", "AcquireRead", "acquire "+s.name)
		}
		return nil, errors.WrapTransient(errors.ErrBufferEmpty, "Stream", "AcquireRead", "acquire "+s.name)
	}
	s.reading = s.queue[0]
	return s.reading, nil
}

// ReleaseRead returns the DataSet obtained from AcquireRead and removes it
// from the queue.
func (s *Stream[T]) ReleaseRead(ds *DataSet[T]) error {
	s.mu.Lock()
	if ds == nil || ds != s.reading {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrInvalidRelease, "Stream", "ReleaseRead", "release "+s.name)
	}
	s.reading = nil
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.pool = append(s.pool, ds)
	size := len(s.queue)
	s.notifyLocked()
	s.mu.Unlock()

	s.stats.ReleaseRead(len(ds.Data))
	s.stats.UpdateSize(int64(size))
	s.metrics.updateSize(size, s.depth)
	return nil
}

// Discard drops every queued DataSet not held by a reader and reports how
// many DataSets and samples were dropped. Hosts use it to drain streams whose
// element type they do not handle.
func (s *Stream[T]) Discard() (datasets, samples int) {
	s.mu.Lock()
	start := 0
	if s.reading != nil {
		start = 1
	}
	for _, ds := range s.queue[start:] {
		datasets++
		samples += len(ds.Data)
		s.pool = append(s.pool, ds)
	}
	s.queue = s.queue[:start]
	size := len(s.queue)
	if datasets > 0 {
		s.notifyLocked()
	}
	s.mu.Unlock()

	for i := 0; i < datasets; i++ {
		s.stats.Drop()
	}
	s.stats.UpdateSize(int64(size))
	s.metrics.updateSize(size, s.depth)
	return datasets, samples
}

// Close wakes all waiters and fails further acquisitions. Queued DataSets
// remain readable.
func (s *Stream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.notifyLocked()
	return nil
}

// dropOldestLocked discards the oldest DataSet not held by a reader.
func (s *Stream[T]) dropOldestLocked() bool {
	idx := 0
	if s.reading != nil {
		idx = 1
	}
	if idx >= len(s.queue) {
		return false
	}

	dropped := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
	s.pool = append(s.pool, dropped)

	s.stats.Drop()
	s.metrics.recordDrop()
	return true
}

// takeLocked returns a recycled or new DataSet sized for size elements.
func (s *Stream[T]) takeLocked(size int) *DataSet[T] {
	var ds *DataSet[T]
	if n := len(s.pool); n > 0 {
		ds = s.pool[n-1]
		s.pool = s.pool[:n-1]
	} else {
		ds = &DataSet[T]{}
	}

	if cap(ds.Data) >= size {
		ds.Data = ds.Data[:size]
	} else {
		ds.Data = make([]T, size)
	}
	ds.SampleRate = 0
	ds.Timestamp = 0
	return ds
}

func (s *Stream[T]) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
