package config

import (
	"log/slog"
	"sort"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
)

// ComponentRegistry defines the interface needed for schema validation
type ComponentRegistry interface {
	GetComponentSchema(componentType string) (component.ConfigSchema, error)
}

// SchemaError is a schema violation in one component's parameters.
type SchemaError struct {
	Instance string
	component.ValidationError
}

// ValidateSchemas checks every enabled component's parameters against the
// schema its factory registered. Factories without a schema are skipped with a
// warning. Results are ordered by instance then field.
func ValidateSchemas(flow *FlowConfig, registry ComponentRegistry, logger *slog.Logger) []SchemaError {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		logger.Warn("Registry is nil, skipping schema validation", "flow", flow.Name)
		return nil
	}

	var out []SchemaError
	for instance, cfg := range flow.EnabledComponents() {
		schema, err := registry.GetComponentSchema(cfg.Name)
		if err != nil {
			out = append(out, SchemaError{
				Instance: instance,
				ValidationError: component.ValidationError{
					Field:   "name",
					Message: "unknown component factory " + cfg.Name,
					Code:    "unknown",
				},
			})
			continue
		}
		if len(schema.Properties) == 0 {
			logger.Debug("Component has no schema defined, skipping validation",
				"instance", instance, "factory", cfg.Name)
			continue
		}

		params := cfg.Config
		if params == nil {
			params = map[string]any{}
		}
		for _, ve := range component.ValidateConfig(params, schema) {
			out = append(out, SchemaError{Instance: instance, ValidationError: ve})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Instance != out[j].Instance {
			return out[i].Instance < out[j].Instance
		}
		return out[i].Field < out[j].Field
	})

	if len(out) > 0 {
		logger.Info("Configuration validation failed", "flow", flow.Name, "error_count", len(out))
	}
	return out
}
