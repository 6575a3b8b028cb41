package component

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Info is the catalog view of a registered factory.
type Info struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Factory creates a component in StateCreated from its raw JSON config.
// Processing resources are acquired in Initialize, not here.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (PhyComponent, error)

// Registration describes a factory: its name in flow files, the component
// type it produces and the schema its config is checked against.
type Registration struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Schema      ConfigSchema `json:"schema"`
	Factory     Factory      `json:"-"`
}

// Info returns the catalog entry for the registration.
func (r Registration) Info() Info {
	return Info{Type: r.Type, Description: r.Description, Version: r.Version}
}

// Registry holds factories by name and the instances created from them.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Registration
	instances map[string]PhyComponent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Registration),
		instances: make(map[string]PhyComponent),
	}
}

// Register adds a factory. Names must be unique.
//
//	err := registry.Register(component.Registration{
//	    Name:    "splitter",
//	    Type:    "processor",
//	    Factory: splitter.NewComponent,
//	    Schema:  schema,
//	})
func (r *Registry) Register(reg Registration) error {
	if err := ValidateComponentName(reg.Name); err != nil {
		return errors.Wrap(err, "Registry", "Register", "factory name check")
	}
	if reg.Factory == nil || reg.Type == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: factory %q needs a factory function and a type", errors.ErrInvalidConfig, reg.Name),
			"Registry", "Register", "registration check")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[reg.Name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: factory %q registered twice", errors.ErrInvalidConfig, reg.Name),
			"Registry", "Register", "duplicate check")
	}
	r.factories[reg.Name] = reg
	return nil
}

func (r *Registry) registration(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[name]
	return reg, ok
}

// CreateComponent runs the factory named by config and records the result
// under instanceName. The component config is checked against the factory's
// schema first; the logger in deps gains an "instance" attribute.
func (r *Registry) CreateComponent(
	instanceName string, config types.ComponentConfig, deps Dependencies,
) (PhyComponent, error) {
	if err := ValidateComponentName(instanceName); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance name check")
	}
	if config.Type == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: instance %q has no component type", errors.ErrInvalidConfig, instanceName),
			"Registry", "CreateComponent", "component type check")
	}

	reg, ok := r.registration(config.Name)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: factory %q", errors.ErrUnknownComponent, config.Name),
			"Registry", "CreateComponent", "factory lookup")
	}
	if reg.Type != string(config.Type) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s builds %s components, not %s",
				errors.ErrInvalidConfig, config.Name, reg.Type, config.Type),
			"Registry", "CreateComponent", "component type check")
	}
	if r.Component(instanceName) != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: instance %q already exists", errors.ErrInvalidConfig, instanceName),
			"Registry", "CreateComponent", "instance name check")
	}

	raw, err := config.RawConfig()
	if err != nil {
		return nil, errors.WrapInvalid(err, "Registry", "CreateComponent", "config encoding")
	}
	if len(raw) > MaxConfigSize {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: config of %q has %d bytes, limit %d", errors.ErrInvalidConfig, instanceName, len(raw), MaxConfigSize),
			"Registry", "CreateComponent", "config size check")
	}
	if err := ValidateRawConfig(raw, reg.Schema); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "schema validation")
	}

	deps.InstanceName = instanceName
	if deps.Logger != nil {
		deps.Logger = deps.Logger.With("instance", instanceName)
	}
	comp, err := reg.Factory(raw, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "factory "+config.Name)
	}
	if err := r.RegisterInstance(instanceName, comp); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance registration")
	}
	return comp, nil
}

// RegisterInstance records a component created outside CreateComponent.
func (r *Registry) RegisterInstance(name string, comp PhyComponent) error {
	if name == "" || comp == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: instance needs a name and a component", errors.ErrInvalidConfig),
			"Registry", "RegisterInstance", "argument check")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.instances[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: instance %q already exists", errors.ErrInvalidConfig, name),
			"Registry", "RegisterInstance", "duplicate check")
	}
	r.instances[name] = comp
	return nil
}

// UnregisterInstance forgets an instance. Unknown names are ignored.
func (r *Registry) UnregisterInstance(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
}

// Instances returns a snapshot of the live instances.
func (r *Registry) Instances() map[string]PhyComponent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.instances)
}

// Component returns the named instance, or nil.
func (r *Registry) Component(name string) PhyComponent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// GetComponentSchema returns a factory's schema without creating anything.
func (r *Registry) GetComponentSchema(name string) (ConfigSchema, error) {
	reg, ok := r.registration(name)
	if !ok {
		return ConfigSchema{}, errors.WrapInvalid(
			fmt.Errorf("%w: factory %q", errors.ErrUnknownComponent, name),
			"Registry", "GetComponentSchema", "factory lookup")
	}
	return reg.Schema, nil
}

// GetFactory returns the named factory function.
func (r *Registry) GetFactory(name string) (Factory, bool) {
	reg, ok := r.registration(name)
	return reg.Factory, ok
}

// FactoryNames returns the registered factory names in sorted order.
func (r *Registry) FactoryNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// ListFactories returns a copy of every registration keyed by factory name.
func (r *Registry) ListFactories() map[string]Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.factories)
}

// ListAvailable returns the catalog entry of every factory.
func (r *Registry) ListAvailable() map[string]Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Info, len(r.factories))
	for name, reg := range r.factories {
		result[name] = reg.Info()
	}
	return result
}

// MaxConfigSize bounds the encoded config of one component.
const MaxConfigSize = 64 << 10

// Names end up in endpoints ("name.port") and metric labels, so dots and
// anything outside this set are refused.
var componentNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateComponentName checks a factory or instance name.
func ValidateComponentName(name string) error {
	if !componentNamePattern.MatchString(name) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: name %q must be 1-64 letters, digits, '-' or '_'", errors.ErrInvalidConfig, name),
			"Registry", "ValidateComponentName", "name check")
	}
	return nil
}
