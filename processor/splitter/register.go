package splitter

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// FactoryName is the name flows use to create a splitter.
const FactoryName = "splitter"

// Register registers the splitter factory with the given registry.
func Register(registry *component.Registry) error {
	return registry.Register(component.Registration{
		Name:        FactoryName,
		Factory:     NewComponent,
		Schema:      splitterSchema,
		Type:        string(types.ComponentTypeProcessor),
		Description: ComponentDescription,
		Version:     ComponentVersion,
	})
}
