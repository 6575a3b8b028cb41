// Package retry provides exponential backoff retry for transient failures.
//
// Components never retry on their own; the flow engine wraps a processing step
// in Do when the step fails with a transient error such as a full stream buffer.
// Errors wrapped with NonRetryable end the loop at once:
//
//	err := retry.Do(ctx, cfg, func() error {
//	    if err := comp.Process(inputs, outputs); err != nil {
//	        if !errors.IsTransient(err) {
//	            return retry.NonRetryable(err)
//	        }
//	        return err
//	    }
//	    return nil
//	})
//
// DoAttempt passes the attempt number to fn for callers that log or count
// retries.
package retry
