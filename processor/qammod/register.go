package qammod

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// FactoryName is the name flows use to create a QAM modulator.
const FactoryName = "qammodulator"

// Register registers the QAM modulator factory with the given registry.
func Register(registry *component.Registry) error {
	return registry.Register(component.Registration{
		Name:        FactoryName,
		Factory:     NewComponent,
		Schema:      qamSchema,
		Type:        string(types.ComponentTypeModulator),
		Description: ComponentDescription,
		Version:     ComponentVersion,
	})
}
