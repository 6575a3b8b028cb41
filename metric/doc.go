// Package metric provides the Prometheus metrics registry shared by components,
// stream buffers and the flow engine, plus an HTTP server for the command-line
// host.
//
// Core metrics (component state, process invocations and duration, errors by
// class, engine retries) are registered when the registry is created.
// Components, buffers and the engine get their vectors from SharedCounterVec,
// SharedGaugeVec and SharedHistogramVec: the first call registers, later calls
// with the same owner and name return the same vector, so instances of one
// kind share it and separate their series by label. Register and Unregister
// handle one-off collectors.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() {
//	    if err := server.Serve(ctx); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//
// Component metric structs are nil-safe: a component built without a registry
// keeps a nil metrics pointer and every record method returns early.
package metric
