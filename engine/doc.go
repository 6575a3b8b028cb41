// Package flowengine runs a flow of PHY components.
//
// # Overview
//
// An Engine takes a config.FlowConfig and a component.Registry and turns them
// into a running pipeline:
//
//  1. Components are created through the registry under their instance names.
//  2. Links are connected in a flowgraph.FlowGraph, which rejects fan-in,
//     fan-out and cycles and yields the invocation order.
//  3. Element types are negotiated in that order. Open inputs take the type
//     declared in the flow's inputs section, linked inputs take the type of
//     the upstream output, and each component reports its output types via
//     CalculateOutputTypes.
//  4. One typed stream buffer is created per link and per open port.
//  5. Components are initialized in order.
//
// # Running
//
// The host feeds open inputs with Inject and calls Step, which invokes every
// component whose inputs all hold data. Open outputs are read with Drain or
// emptied with DiscardOutput.
//
//	eng, err := flowengine.New(flow, registry, flowengine.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	if err := flowengine.Inject(eng, "split.input1", samples, 1e6, 0); err != nil {
//		return err
//	}
//	if _, err := eng.Step(ctx); err != nil {
//		return err
//	}
//	out, err := flowengine.Drain[complex64](eng, "qam.output1")
//
// # Errors
//
// Transient Process failures are retried with the backoff configured in the
// flow's engine section while the component still has input. Invalid and
// fatal failures stop the step and are returned wrapped with the component
// name. A fatal failure marks the component as failed in the core metrics.
//
// # Validation
//
// Validate performs a dry run: schema checks, then a full build without
// Initialize, and reports connectivity warnings.
package flowengine
