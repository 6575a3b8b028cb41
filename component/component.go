package component

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// PhyComponent is the contract between a host and a stream-processing component.
//
// The host calls, in order:
//   - InputPorts/OutputPorts to wire streams
//   - CalculateOutputTypes to negotiate element types
//   - Initialize once, before the first Process
//   - Process repeatedly, serially, with one handle per port
//
// Process must acquire and release every DataSet it touches before returning,
// on success and on failure.
type PhyComponent interface {
	// Meta returns basic component information
	Meta() Metadata

	// InputPorts returns the ports this component reads from
	InputPorts() []Port

	// OutputPorts returns the ports this component writes to
	OutputPorts() []Port

	// ConfigSchema returns the configuration schema for this component
	ConfigSchema() ConfigSchema

	// CalculateOutputTypes maps input port names to their negotiated element
	// types and returns the element type of every output port.
	CalculateOutputTypes(inputTypes map[string]types.DataType) (map[string]types.DataType, error)

	// Initialize prepares the component for processing.
	Initialize() error

	// Process consumes one DataSet per input and produces DataSets on outputs.
	Process(inputs, outputs []buffer.Handle) error
}

// RuntimeConfigurable is implemented by components whose parameters may change
// between Process calls.
type RuntimeConfigurable interface {
	// ValidateConfigUpdate checks proposed changes without applying them.
	ValidateConfigUpdate(changes map[string]any) error

	// ApplyConfigUpdate validates and applies changes.
	ApplyConfigUpdate(changes map[string]any) error

	// GetRuntimeConfig returns the current runtime parameter values.
	GetRuntimeConfig() map[string]any
}

// Stateful is implemented by components that expose their lifecycle state.
type Stateful interface {
	State() State
}

// Metadata describes what a component is
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "processor", "modulator"
	Description string `json:"description"`
	Author      string `json:"author"`
	Version     string `json:"version"`
}
