// Package testutil provides shared helpers for component and engine tests.
//
// MockBuffer wraps a real buffer.Stream and counts every acquire and release so
// tests can assert that a component balanced its DataSet borrowing, including
// on failure paths. Failures are injected per call through the *Err fields.
//
//	in := testutil.NewMockBuffer[uint8]("split.input1", 4)
//	out := testutil.NewMockBuffer[uint8]("split.output1", 4)
//	out.AcquireWriteErr = testutil.ErrMockFailed
//
//	err := comp.Process([]buffer.Handle{in}, []buffer.Handle{out})
//	assert.Zero(t, in.Counts().OutstandingReads())
//
// Ramp and Sample generate deterministic sample data for every element type,
// and the flow constants provide ready-made flow documents for config and
// engine tests.
package testutil
