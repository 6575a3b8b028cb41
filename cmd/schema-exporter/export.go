package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
)

// ComponentSchema is the exported JSON Schema of one component's configuration
type ComponentSchema struct {
	Schema      string            `json:"$schema"`
	ID          string            `json:"$id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Properties  map[string]any    `json:"properties"`
	Required    []string          `json:"required"`
	Metadata    ComponentMetadata `json:"x-component-metadata"`
}

// ComponentMetadata describes the component behind a schema
type ComponentMetadata struct {
	Name    string         `json:"name"              yaml:"name"`
	Type    string         `json:"type"              yaml:"type"` // "processor", "modulator"
	Version string         `json:"version"           yaml:"version"`
	Inputs  []PortMetadata `json:"inputs"            yaml:"inputs"`
	Outputs []PortMetadata `json:"outputs"           yaml:"outputs"`
	Runtime []string       `json:"runtime,omitempty" yaml:"runtime,omitempty"` // Parameters changeable after Initialize
}

// PortMetadata lists a port and the element types it accepts
type PortMetadata struct {
	Name      string   `json:"name"       yaml:"name"`
	DataTypes []string `json:"data_types" yaml:"data_types"`
}

// CatalogEntry is one component in the YAML catalog
type CatalogEntry struct {
	ComponentMetadata `yaml:",inline"`
	Description       string             `yaml:"description"`
	Schema            string             `yaml:"schema"`
	Parameters        []CatalogParameter `yaml:"parameters"`
}

// CatalogParameter is one configuration parameter in the catalog
type CatalogParameter struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
	Runtime     bool   `yaml:"runtime,omitempty"`
}

// export writes one schema file per factory plus the catalog and returns the
// written paths.
func export(registry *component.Registry, outDir, catalogPath string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	factories := registry.ListFactories()
	names := registry.FactoryNames()

	var written []string
	catalog := make([]CatalogEntry, 0, len(names))
	for _, name := range names {
		registration, ok := factories[name]
		if !ok {
			continue
		}
		schema, err := extractSchema(name, registration)
		if err != nil {
			return written, err
		}
		if err := validateDefaults(schema, registration.Schema); err != nil {
			return written, err
		}

		outFile := filepath.Join(outDir, schema.ID)
		if err := writeJSONSchema(outFile, schema); err != nil {
			return written, fmt.Errorf("write schema for %s: %w", name, err)
		}
		written = append(written, outFile)
		catalog = append(catalog, catalogEntry(schema, registration.Schema))
	}

	if err := os.MkdirAll(filepath.Dir(catalogPath), 0o755); err != nil {
		return written, fmt.Errorf("create catalog directory: %w", err)
	}
	data, err := yaml.Marshal(map[string]any{"components": catalog})
	if err != nil {
		return written, fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(catalogPath, data, 0o644); err != nil {
		return written, fmt.Errorf("write catalog: %w", err)
	}
	return append(written, catalogPath), nil
}

// extractSchema converts a registration into a JSON Schema. Ports come from a
// throwaway instance built with the default configuration.
func extractSchema(name string, registration component.Registration) (ComponentSchema, error) {
	instance, err := registration.Factory(json.RawMessage(`{}`), component.Dependencies{})
	if err != nil {
		return ComponentSchema{}, fmt.Errorf("instantiate %s with defaults: %w", name, err)
	}

	doc := registration.Schema.JSONSchema()
	properties, _ := doc["properties"].(map[string]any)

	required := registration.Schema.Required
	if required == nil {
		required = []string{}
	}

	return ComponentSchema{
		Schema:      "http://json-schema.org/draft-07/schema#",
		ID:          fmt.Sprintf("%s.v1.json", name),
		Type:        "object",
		Title:       fmt.Sprintf("%s Configuration", name),
		Description: registration.Description,
		Properties:  properties,
		Required:    required,
		Metadata: ComponentMetadata{
			Name:    name,
			Type:    registration.Type,
			Version: registration.Version,
			Inputs:  portMetadata(instance.InputPorts()),
			Outputs: portMetadata(instance.OutputPorts()),
			Runtime: component.RuntimeProperties(registration.Schema),
		},
	}, nil
}

func portMetadata(ports []component.Port) []PortMetadata {
	out := make([]PortMetadata, 0, len(ports))
	for _, p := range ports {
		dataTypes := make([]string, len(p.DataTypes))
		for i, dt := range p.DataTypes {
			dataTypes[i] = dt.String()
		}
		out = append(out, PortMetadata{Name: p.Name, DataTypes: dataTypes})
	}
	return out
}

// validateDefaults checks that the declared defaults satisfy the exported
// schema, so a flow that omits every parameter is accepted.
func validateDefaults(schema ComponentSchema, cs component.ConfigSchema) error {
	defaults := make(map[string]any, len(cs.Properties))
	for name, prop := range cs.Properties {
		if prop.Default != nil {
			defaults[name] = prop.Default
		}
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema %s: %w", schema.ID, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(defaults),
	)
	if err != nil {
		return fmt.Errorf("validate defaults of %s: %w", schema.ID, err)
	}
	if !result.Valid() {
		errMsg := fmt.Sprintf("defaults of %s violate the schema:", schema.ID)
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("\n  - %s: %s", desc.Field(), desc.Description())
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func catalogEntry(schema ComponentSchema, cs component.ConfigSchema) CatalogEntry {
	params := make([]CatalogParameter, 0, len(cs.Properties))
	for _, name := range component.SortedPropertyNames(cs) {
		prop := cs.Properties[name]
		params = append(params, CatalogParameter{
			Name:        name,
			Type:        prop.Type,
			Default:     prop.Default,
			Description: prop.Description,
			Runtime:     prop.Runtime,
		})
	}
	return CatalogEntry{
		ComponentMetadata: schema.Metadata,
		Description:       schema.Description,
		Schema:            schema.ID,
		Parameters:        params,
	}
}

// writeJSONSchema writes a component schema to a JSON file
func writeJSONSchema(filename string, schema ComponentSchema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
