// Package health tracks the health of the components in a running flow.
//
// A Monitor records, per component, its lifecycle state and the outcome of
// each Process call. The status of a component is derived from that record:
//
//   - unhealthy: the component failed, or its last Process call failed fatally
//   - degraded: the component is not initialized, or its last Process call
//     failed with a transient or invalid error
//   - healthy: otherwise
//
// AggregateHealth folds the component statuses into a flow status. Error
// messages are stripped of URLs, file paths and credentials before they are
// exposed, since the status is served over HTTP.
//
// Basic usage:
//
//	monitor := health.NewMonitor()
//	monitor.SetState("split", health.StateInitialized)
//	monitor.RecordSuccess("split")
//	monitor.RecordFailure("qam", err, errors.IsFatal(err))
//
//	status := monitor.AggregateHealth("split-modulate")
//	if status.IsUnhealthy() {
//		// stop feeding the flow
//	}
package health
