// Package errors provides standardized error handling for components, stream
// buffers and the flow engine.
//
// # Error Classification
//
// Errors are classified as:
//
//   - Transient: the operation may succeed later (a full stream buffer, a timeout)
//   - Invalid: the input or configuration is wrong (an undersized output buffer)
//   - Fatal: the invocation cannot continue (miswired ports, processing before
//     initialization)
//
// Classify looks for a ClassifiedError first and falls back to the sentinel
// errors of this package. Anything else is unknown and is never retried.
//
// # Error Wrapping Pattern
//
// All wrapping follows "Component.Method: action failed: cause":
//
//	if len(outputs) != s.numOutputs {
//	    return errors.WrapFatal(errors.ErrPortMismatch, "Splitter", "Process", "output count check")
//	}
//
// # Retry
//
// Retry policy belongs to the host. RetryConfig describes it and converts to
// the retry package's Config:
//
//	cfg := errors.DefaultRetryConfig().ToRetryConfig()
//	err := retry.Do(ctx, cfg, func() error { return step() })
package errors
