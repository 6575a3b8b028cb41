package flowengine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/config"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Validation status values.
const (
	StatusValid    = "valid"
	StatusWarnings = "warnings"
	StatusErrors   = "errors"
)

// ValidationResult is the outcome of a dry-run build of a flow.
type ValidationResult struct {
	Status      string                    `json:"validation_status"` // "valid", "warnings", "errors"
	Errors      []ValidationIssue         `json:"errors"`
	Warnings    []ValidationIssue         `json:"warnings"`
	Order       []string                  `json:"order,omitempty"`
	Ports       map[string]types.DataType `json:"ports,omitempty"` // Negotiated type per "component.port"
	OpenInputs  []string                  `json:"open_inputs,omitempty"`
	OpenOutputs []string                  `json:"open_outputs,omitempty"`
}

// ValidationIssue describes one problem found in a flow.
type ValidationIssue struct {
	Type          string   `json:"type"`     // "schema", "build", "disconnected_node"
	Severity      string   `json:"severity"` // "error", "warning"
	ComponentName string   `json:"component_name,omitempty"`
	PortName      string   `json:"port_name,omitempty"`
	Message       string   `json:"message"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// Validate checks a flow without running it. Parameters are checked against
// the registered schemas, then the flow is built without initializing any
// component, so type negotiation and wiring errors surface here. Instance
// names of the flow must not be in use in the registry.
func Validate(flow *config.FlowConfig, registry *component.Registry, opts ...Option) *ValidationResult {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.initialize = false
	o.registry = nil

	result := &ValidationResult{Status: StatusValid}

	if flow != nil && registry != nil {
		for _, se := range config.ValidateSchemas(flow, registry, o.logger) {
			result.Errors = append(result.Errors, ValidationIssue{
				Type:          "schema",
				Severity:      "error",
				ComponentName: se.Instance,
				Message:       fmt.Sprintf("%s: %s", se.Field, se.Message),
			})
		}
	}
	if len(result.Errors) > 0 {
		result.Status = StatusErrors
		return result
	}

	e, err := build(flow, registry, o)
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{
			Type:     "build",
			Severity: "error",
			Message:  err.Error(),
		})
		result.Status = StatusErrors
		return result
	}
	defer e.Close()

	result.Order = e.Order()
	result.Ports = make(map[string]types.DataType, len(e.portTypes))
	for endpoint, dt := range e.portTypes {
		result.Ports[endpoint] = dt
	}
	result.OpenInputs = sortedKeys(e.OpenInputs())
	result.OpenOutputs = sortedKeys(e.OpenOutputs())

	for _, dn := range e.Analysis().DisconnectedNodes {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Type:          "disconnected_node",
			Severity:      "warning",
			ComponentName: dn.ComponentName,
			Message:       dn.Issue,
			Suggestions:   dn.Suggestions,
		})
	}
	if len(result.Warnings) > 0 {
		result.Status = StatusWarnings
	}
	return result
}

func sortedKeys(m map[string]types.DataType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
