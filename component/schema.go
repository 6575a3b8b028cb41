package component

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// ConfigSchema describes the configuration parameters for a component
type ConfigSchema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single configuration property
type PropertySchema struct {
	Type        string   `json:"type"` // "string", "int", "bool", "float", "enum"
	Description string   `json:"description"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`     // Valid string values
	Minimum     *int     `json:"minimum,omitempty"`  // For numeric types
	Maximum     *int     `json:"maximum,omitempty"`  // For numeric types
	Category    string   `json:"category,omitempty"` // "basic" or "advanced"
	Runtime     bool     `json:"runtime,omitempty"`  // May change after Initialize
}

// ValidationError represents a validation error for a specific configuration field.
//
// Error codes:
//   - "required": Field is required but missing
//   - "min": Numeric value below minimum threshold
//   - "max": Numeric value above maximum threshold
//   - "enum": Value not in allowed enum values
//   - "type": Value doesn't match expected type
//   - "invalid": Any other schema violation
type ValidationError struct {
	Field   string `json:"field"`   // Name of the field that failed validation
	Message string `json:"message"` // Human-readable error message
	Code    string `json:"code"`    // Machine-readable error code (see above)
}

// Error implements the error interface
func (v ValidationError) Error() string {
	return v.Message
}

// JSONSchema converts the schema into a JSON Schema (draft 7) document.
// Unknown properties are allowed.
func (s ConfigSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{}
		switch p.Type {
		case "int":
			prop["type"] = "integer"
		case "float":
			prop["type"] = "number"
		case "bool":
			prop["type"] = "boolean"
		case "string", "enum":
			prop["type"] = "string"
		case "array", "object":
			prop["type"] = p.Type
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		doc["required"] = s.Required
	}
	return doc
}

// ValidateConfig validates a configuration map against a ConfigSchema.
// It checks required fields, type constraints, min/max bounds, and enum values.
//
// Returns a slice of ValidationError containing all validation failures found,
// sorted by field. An empty slice indicates the configuration is valid.
func ValidateConfig(config map[string]any, schema ConfigSchema) []ValidationError {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.JSONSchema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return []ValidationError{{
			Field:   "",
			Message: fmt.Sprintf("schema evaluation failed: %v", err),
			Code:    "invalid",
		}}
	}
	if result.Valid() {
		return nil
	}

	var out []ValidationError
	for _, desc := range result.Errors() {
		out = append(out, toValidationError(desc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return out
}

func toValidationError(desc gojsonschema.ResultError) ValidationError {
	field := desc.Field()
	code := "invalid"

	switch desc.Type() {
	case "required":
		code = "required"
		if prop, ok := desc.Details()["property"].(string); ok {
			field = prop
		}
	case "number_gte", "number_gt":
		code = "min"
	case "number_lte", "number_lt":
		code = "max"
	case "enum":
		code = "enum"
	case "invalid_type":
		code = "type"
	}

	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Field %q: %s", field, desc.Description()),
		Code:    code,
	}
}

// ValidateRawConfig decodes raw JSON configuration and validates it against
// the schema. All failures are joined into one invalid-class error.
func ValidateRawConfig(rawConfig json.RawMessage, schema ConfigSchema) error {
	config := map[string]any{}
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return errors.WrapInvalid(err, "ConfigSchema", "ValidateRawConfig", "config parsing")
		}
	}

	verrs := ValidateConfig(config, schema)
	if len(verrs) == 0 {
		return nil
	}

	msgs := make([]string, len(verrs))
	for i, v := range verrs {
		msgs[i] = v.Message
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; ")),
		"ConfigSchema", "ValidateRawConfig", "schema validation")
}

// GetPropertyValue safely extracts a property value from a configuration map.
// Passing a nil config returns (nil, false).
func GetPropertyValue(config map[string]any, key string) (any, bool) {
	if config == nil {
		return nil, false
	}
	value, exists := config[key]
	return value, exists
}

// RuntimeProperties returns the names of properties that may change after
// Initialize, sorted.
func RuntimeProperties(schema ConfigSchema) []string {
	var names []string
	for name, prop := range schema.Properties {
		if prop.Runtime {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SortedPropertyNames returns property names with "basic" properties first,
// then the rest, alphabetically within each group. Properties without an
// explicit Category default to "advanced".
func SortedPropertyNames(schema ConfigSchema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}

	rank := func(name string) int {
		if schema.Properties[name].Category == "basic" {
			return 0
		}
		return 1
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// IntPtr returns a pointer to v, for schema bounds.
func IntPtr(v int) *int {
	return &v
}
