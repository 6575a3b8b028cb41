// Package phystreams is a framework for building physical-layer signal
// processing chains out of typed stream components.
//
// # Philosophy
//
// A PHY chain is a directed graph of components connected by bounded stream
// buffers. Each buffer carries DataSets of one element type (integers, reals
// or complex numbers, fourteen tags in all). The host negotiates those types
// before any data flows and invokes components one at a time, so components
// never deal with concurrency or scheduling.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          Flow Engine                │  Type negotiation
//	│   (build, step, reconfigure)        │  Retry, health, metrics
//	└─────────────────────────────────────┘
//	           ↓ invokes
//	┌─────────────────────────────────────┐
//	│         Components                  │  Splitter,
//	│   (processor, modulator)            │  QAM modulator
//	└─────────────────────────────────────┘
//	           ↓ read and write
//	┌─────────────────────────────────────┐
//	│         Stream Buffers              │  Acquire/release,
//	│   (one per link or open port)       │  overflow policies
//	└─────────────────────────────────────┘
//
// # Packages
//
//   - types: element type tags and component configuration
//   - pkg/buffer: bounded typed streams with acquire/release semantics
//   - component: the PhyComponent contract, ports, schemas and the registry
//   - component/flowgraph: flow topology, ordering and connectivity analysis
//   - config: YAML/JSON flow files
//   - engine: builds and runs flows
//   - processor/splitter, processor/qammod: the shipped components
//   - modulation: QAM constellations and symbol mapping
//   - health, metric: flow health and Prometheus metrics
//   - cmd/phystreams: command-line host
//
// # Fan-Out
//
// The splitter copies each input DataSet to a runtime-selectable subset of its
// outputs. Inactive outputs receive nothing for that invocation:
//
//	              ┌──────────┐
//	uint8 ───────>│ splitter │──output1──> qam ──> complex64
//	              │          │──output2──> (open output)
//	              └──────────┘
//	         activeports: "1,2"
package phystreams
