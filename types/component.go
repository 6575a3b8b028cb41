// Package types contains the element type tags and shared configuration types
package types

import (
	"encoding/json"
	"fmt"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// ComponentType represents the category of a component
type ComponentType string

// Component type constants
const (
	ComponentTypeProcessor ComponentType = "processor"
	ComponentTypeModulator ComponentType = "modulator"
)

// String implements fmt.Stringer for ComponentType
func (ct ComponentType) String() string {
	return string(ct)
}

// ComponentConfig configures one component instance of a flow. The instance
// name is the map key in the flow's components section.
type ComponentConfig struct {
	Type     ComponentType  `json:"type"               yaml:"type"`
	Name     string         `json:"name"               yaml:"name"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Config   map[string]any `json:"config,omitempty"   yaml:"config,omitempty"`
}

// Validate ensures the component configuration is valid
func (c ComponentConfig) Validate() error {
	if c.Type == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component type cannot be empty")
	}
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component factory name cannot be empty")
	}

	switch c.Type {
	case ComponentTypeProcessor, ComponentTypeModulator:
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ComponentConfig", "Validate",
			fmt.Sprintf("invalid component type: %s", c.Type))
	}
}

// RawConfig returns the component-specific configuration as JSON, the form
// component factories consume.
func (c ComponentConfig) RawConfig() (json.RawMessage, error) {
	if len(c.Config) == 0 {
		return json.RawMessage(`{}`), nil
	}
	data, err := json.Marshal(c.Config)
	if err != nil {
		return nil, errors.WrapInvalid(err, "ComponentConfig", "RawConfig", "config marshal")
	}
	return data, nil
}
