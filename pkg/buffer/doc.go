// # Overview
//
// Components never allocate their own output storage. The host creates one
// Stream per link and hands components type-erased Handles; a component
// switches on Handle.DataType once per invocation and asserts the handle to
// ReadBuffer[T] or WriteBuffer[T].
//
// # Quick Start
//
//	s, err := buffer.NewStream[complex64]("qam.output", 8,
//		buffer.WithOverflowPolicy(buffer.Reject),
//		buffer.WithMetrics(registry),
//	)
//
//	// Producer
//	ds, err := s.AcquireWrite(len(symbols))
//	copy(ds.Data, symbols)
//	err = s.ReleaseWrite(ds)
//
//	// Consumer
//	in, err := s.AcquireRead()
//	process(in.Data)
//	err = s.ReleaseRead(in)
//
// Runtime construction from a negotiated tag:
//
//	h, err := buffer.NewHandle(types.Complex64, "qam.output", 8)
//	w := h.(buffer.WriteBuffer[complex64])
//
// # Overflow Policies
//
// AcquireWrite on a full stream behaves according to the policy:
//
//   - Block: wait until a consumer releases a DataSet (default)
//   - DropOldest: discard the oldest DataSet not held by a reader
//   - Reject: fail with errors.ErrBufferFull (transient)
//
// AcquireRead never blocks; it fails with errors.ErrBufferEmpty when nothing is
// queued. Use AcquireReadContext to wait.
//
// # Pairing Rules
//
// A second AcquireWrite before ReleaseWrite (or AcquireRead before ReleaseRead)
// fails with errors.ErrAlreadyAcquired. Releasing a DataSet that was not the
// outstanding acquisition fails with errors.ErrInvalidRelease. Both are fatal:
// they indicate a component bug, not a load condition.
//
// # Observability
//
// Statistics are always on and available via Stats(). WithMetrics additionally
// exports phystreams_buffer_* vectors labelled by buffer name. Vectors are
// shared, so any number of streams can use one registry.
package buffer
