// Package config loads and validates flow definitions.
//
// A flow names its component instances, links output ports to input ports,
// declares the element types of the open inputs the host feeds, and tunes the
// engine. Flows are YAML or JSON:
//
//	name: split-modulate
//	components:
//	  split:
//	    type: processor
//	    name: splitter
//	    config: {numoutputs: 2}
//	  qam:
//	    type: modulator
//	    name: qammodulator
//	links:
//	  - from: split.output1
//	    to: qam.input1
//	inputs:
//	  split.input1: uint8
//	engine:
//	  buffer_depth: 8
//	  open_output_policy: drop_oldest
//	  max_retries: 3
//	  retry_backoff: 1ms
//
// # Loading
//
//	flow, err := config.LoadFlow("flows/split.yaml")
//
// Loading applies engine defaults, then the PHYSTREAMS_BUFFER_DEPTH,
// PHYSTREAMS_OPEN_OUTPUT_POLICY, PHYSTREAMS_MAX_RETRIES and
// PHYSTREAMS_RETRY_BACKOFF environment overrides, then structural validation.
// Unknown fields are rejected.
//
// # Validation
//
// FlowConfig.Validate checks structure: every link endpoint names an enabled
// component, no input port is fed twice, and declared inputs are valid
// element types. Port names and per-component parameters are only known to
// the component registry; ValidateSchemas checks parameters against each
// factory's schema, and the engine checks ports when it builds the graph.
package config
