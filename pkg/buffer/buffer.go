// Package buffer provides the typed stream buffers that connect components.
//
// A stream buffer is a bounded queue of DataSets of one element type. Producers
// and consumers borrow DataSets through paired acquire/release calls:
//   - AcquireWrite/ReleaseWrite publish one DataSet downstream
//   - AcquireRead/ReleaseRead consume the oldest queued DataSet
//
// Every acquire must be matched by exactly one release of the same DataSet.
// Statistics are always collected; Prometheus metrics are optional.
package buffer

import (
	"fmt"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Handle is the type-erased view of a stream buffer. Components receive
// handles and switch on DataType once per invocation to reach the typed view.
type Handle interface {
	// Name identifies the buffer, usually "component.port".
	Name() string

	// DataType returns the element type tag agreed for this stream.
	DataType() types.DataType
}

// DataSet is one block of samples with its signal metadata.
type DataSet[T any] struct {
	Data       []T
	SampleRate float64
	Timestamp  float64
}

// ReadBuffer is the consumer side of a typed stream.
type ReadBuffer[T any] interface {
	Handle

	// AcquireRead borrows the oldest queued DataSet.
	AcquireRead() (*DataSet[T], error)

	// ReleaseRead returns a DataSet obtained from AcquireRead and removes it
	// from the queue.
	ReleaseRead(ds *DataSet[T]) error

	// HasData reports whether a DataSet is queued.
	HasData() bool
}

// WriteBuffer is the producer side of a typed stream.
type WriteBuffer[T any] interface {
	Handle

	// AcquireWrite borrows a DataSet whose Data has exactly size elements.
	AcquireWrite(size int) (*DataSet[T], error)

	// ReleaseWrite publishes a DataSet obtained from AcquireWrite.
	ReleaseWrite(ds *DataSet[T]) error
}

// OverflowPolicy defines what AcquireWrite does when the queue is full.
type OverflowPolicy int

const (
	// Block waits until a consumer releases a DataSet.
	Block OverflowPolicy = iota

	// DropOldest discards the oldest queued DataSet to make room.
	DropOldest

	// Reject fails the acquisition with ErrBufferFull.
	Reject
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case Block:
		return "Block"
	case DropOldest:
		return "DropOldest"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}

// ParseOverflowPolicy converts a configuration name into a policy.
func ParseOverflowPolicy(name string) (OverflowPolicy, error) {
	switch name {
	case "block", "Block", "":
		return Block, nil
	case "drop_oldest", "DropOldest":
		return DropOldest, nil
	case "reject", "Reject":
		return Reject, nil
	default:
		return Block, errors.WrapInvalid(errors.ErrInvalidConfig, "buffer", "ParseOverflowPolicy",
			fmt.Sprintf("parse overflow policy %q", name))
	}
}

// NewHandle creates a stream buffer for a runtime element type tag. It is the
// single place where the host turns a negotiated tag into a typed Stream.
func NewHandle(dt types.DataType, name string, depth int, options ...Option) (Handle, error) {
	switch dt {
	case types.Uint8:
		return NewStream[uint8](name, depth, options...)
	case types.Uint16:
		return NewStream[uint16](name, depth, options...)
	case types.Uint32:
		return NewStream[uint32](name, depth, options...)
	case types.Uint64:
		return NewStream[uint64](name, depth, options...)
	case types.Int8:
		return NewStream[int8](name, depth, options...)
	case types.Int16:
		return NewStream[int16](name, depth, options...)
	case types.Int32:
		return NewStream[int32](name, depth, options...)
	case types.Int64:
		return NewStream[int64](name, depth, options...)
	case types.Float32:
		return NewStream[float32](name, depth, options...)
	case types.Float64:
		return NewStream[float64](name, depth, options...)
	case types.LongDoubleType:
		return NewStream[types.LongDouble](name, depth, options...)
	case types.Complex64:
		return NewStream[complex64](name, depth, options...)
	case types.Complex128:
		return NewStream[complex128](name, depth, options...)
	case types.ComplexLongDoubleType:
		return NewStream[types.ComplexLongDouble](name, depth, options...)
	default:
		return nil, errors.WrapInvalid(errors.ErrUnsupportedDataType, "buffer", "NewHandle",
			fmt.Sprintf("create stream %s with tag %d", name, int(dt)))
	}
}

// Write copies data into one DataSet on w.
func Write[T any](w WriteBuffer[T], data []T, sampleRate, timestamp float64) error {
	ds, err := w.AcquireWrite(len(data))
	if err != nil {
		return err
	}
	copy(ds.Data, data)
	ds.SampleRate = sampleRate
	ds.Timestamp = timestamp
	return w.ReleaseWrite(ds)
}

// ReadAll consumes every queued DataSet on r and returns the concatenated samples.
func ReadAll[T any](r ReadBuffer[T]) ([]T, error) {
	var out []T
	for r.HasData() {
		ds, err := r.AcquireRead()
		if err != nil {
			return out, err
		}
		out = append(out, ds.Data...)
		if err := r.ReleaseRead(ds); err != nil {
			return out, err
		}
	}
	return out, nil
}
