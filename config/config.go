package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Engine defaults
const (
	DefaultBufferDepth      = 8
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = "1ms"
	DefaultOpenOutputPolicy = "drop_oldest"
)

// ComponentConfigs holds component instance configurations.
// The map key is the instance name (e.g., "split-main").
type ComponentConfigs map[string]types.ComponentConfig

// FlowConfig describes a processing graph: its components, the links between
// their ports, and the element types entering through open input ports.
type FlowConfig struct {
	Name       string                    `json:"name"             yaml:"name"`
	Components ComponentConfigs          `json:"components"       yaml:"components"`
	Links      []Link                    `json:"links,omitempty"  yaml:"links,omitempty"`
	Inputs     map[string]types.DataType `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Engine     EngineConfig              `json:"engine,omitempty" yaml:"engine,omitempty"`
}

// Link connects an output port to an input port, both written "component.port".
type Link struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// String returns "from -> to"
func (l Link) String() string {
	return l.From + " -> " + l.To
}

// EngineConfig tunes the buffers and retry policy the engine builds.
type EngineConfig struct {
	BufferDepth      int    `json:"buffer_depth,omitempty"       yaml:"buffer_depth,omitempty"`
	OpenOutputPolicy string `json:"open_output_policy,omitempty" yaml:"open_output_policy,omitempty"`
	MaxRetries       int    `json:"max_retries,omitempty"        yaml:"max_retries,omitempty"`
	RetryBackoff     string `json:"retry_backoff,omitempty"      yaml:"retry_backoff,omitempty"`
}

// WithDefaults returns e with unset fields filled.
func (e EngineConfig) WithDefaults() EngineConfig {
	if e.BufferDepth == 0 {
		e.BufferDepth = DefaultBufferDepth
	}
	if e.OpenOutputPolicy == "" {
		e.OpenOutputPolicy = DefaultOpenOutputPolicy
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = DefaultMaxRetries
	}
	if e.RetryBackoff == "" {
		e.RetryBackoff = DefaultRetryBackoff
	}
	return e
}

// Backoff returns the parsed initial retry delay.
func (e EngineConfig) Backoff() time.Duration {
	d, err := time.ParseDuration(e.RetryBackoff)
	if err != nil {
		return time.Millisecond
	}
	return d
}

// RetryConfig returns the retry policy for transient Process failures.
func (e EngineConfig) RetryConfig() errors.RetryConfig {
	rc := errors.DefaultRetryConfig()
	rc.MaxRetries = e.MaxRetries
	rc.InitialDelay = e.Backoff()
	if rc.MaxDelay < rc.InitialDelay {
		rc.MaxDelay = rc.InitialDelay
	}
	return rc
}

// Validate checks engine settings.
func (e EngineConfig) Validate() error {
	if e.BufferDepth < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: buffer_depth %d", errors.ErrInvalidConfig, e.BufferDepth),
			"EngineConfig", "Validate", "buffer depth check")
	}
	if e.MaxRetries < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: max_retries %d", errors.ErrInvalidConfig, e.MaxRetries),
			"EngineConfig", "Validate", "retry count check")
	}
	if _, err := buffer.ParseOverflowPolicy(e.OpenOutputPolicy); err != nil {
		return errors.Wrap(err, "EngineConfig", "Validate", "open output policy check")
	}
	if e.RetryBackoff != "" {
		if d, err := time.ParseDuration(e.RetryBackoff); err != nil || d < 0 {
			return errors.WrapInvalid(
				fmt.Errorf("%w: retry_backoff %q", errors.ErrInvalidConfig, e.RetryBackoff),
				"EngineConfig", "Validate", "retry backoff check")
		}
	}
	return nil
}

// Endpoint names one port of one component instance.
type Endpoint struct {
	Component string
	Port      string
}

// String returns "component.port"
func (e Endpoint) String() string {
	return e.Component + "." + e.Port
}

// ParseEndpoint splits "component.port" at the last dot. Instance names may
// themselves contain dots; port names may not.
func ParseEndpoint(s string) (Endpoint, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Endpoint{}, errors.WrapInvalid(
			fmt.Errorf("%w: endpoint %q is not component.port", errors.ErrInvalidConfig, s),
			"Config", "ParseEndpoint", "endpoint parse")
	}
	return Endpoint{Component: s[:idx], Port: s[idx+1:]}, nil
}

// Validate checks the flow's structure. Component-specific parameters are
// checked against their schemas by ValidateSchemas.
func (f *FlowConfig) Validate() error {
	if f.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "FlowConfig", "Validate", "flow name check")
	}
	if len(f.Components) == 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: flow %s has no components", errors.ErrMissingConfig, f.Name),
			"FlowConfig", "Validate", "component presence check")
	}

	for instanceName, cfg := range f.Components {
		if instanceName == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "FlowConfig", "Validate", "empty instance name")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", instanceName, err)
		}
	}

	targets := make(map[string]string, len(f.Links))
	for _, link := range f.Links {
		from, err := f.endpoint(link.From)
		if err != nil {
			return fmt.Errorf("link %s: %w", link, err)
		}
		to, err := f.endpoint(link.To)
		if err != nil {
			return fmt.Errorf("link %s: %w", link, err)
		}
		if from.Component == to.Component {
			return errors.WrapInvalid(
				fmt.Errorf("%w: link %s loops on %s", errors.ErrInvalidConfig, link, from.Component),
				"FlowConfig", "Validate", "self link check")
		}
		if prev, dup := targets[link.To]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s is fed by both %s and %s", errors.ErrInvalidConfig, link.To, prev, link.From),
				"FlowConfig", "Validate", "fan-in check")
		}
		targets[link.To] = link.From
	}

	for name, dt := range f.Inputs {
		if _, err := f.endpoint(name); err != nil {
			return fmt.Errorf("input %s: %w", name, err)
		}
		if _, linked := targets[name]; linked {
			return errors.WrapInvalid(
				fmt.Errorf("%w: input %s is also a link target", errors.ErrInvalidConfig, name),
				"FlowConfig", "Validate", "input check")
		}
		if !dt.Valid() {
			return errors.WrapInvalid(
				fmt.Errorf("%w: input %s", errors.ErrUnsupportedDataType, name),
				"FlowConfig", "Validate", "input type check")
		}
	}

	return f.Engine.Validate()
}

// endpoint parses s and checks that it names a configured, enabled component.
func (f *FlowConfig) endpoint(s string) (Endpoint, error) {
	ep, err := ParseEndpoint(s)
	if err != nil {
		return ep, err
	}
	cfg, ok := f.Components[ep.Component]
	if !ok {
		return ep, errors.WrapInvalid(
			fmt.Errorf("%w: component %q", errors.ErrConfigNotFound, ep.Component),
			"FlowConfig", "Validate", "endpoint lookup")
	}
	if cfg.Disabled {
		return ep, errors.WrapInvalid(
			fmt.Errorf("%w: component %q is disabled", errors.ErrInvalidConfig, ep.Component),
			"FlowConfig", "Validate", "endpoint lookup")
	}
	return ep, nil
}

// EnabledComponents returns the instances that are not disabled.
func (f *FlowConfig) EnabledComponents() ComponentConfigs {
	out := make(ComponentConfigs, len(f.Components))
	for name, cfg := range f.Components {
		if !cfg.Disabled {
			out[name] = cfg
		}
	}
	return out
}

// Clone creates a deep copy of the flow
func (f *FlowConfig) Clone() *FlowConfig {
	if f == nil {
		return &FlowConfig{}
	}

	data, err := json.Marshal(f)
	if err != nil {
		copied := *f
		return &copied
	}

	var clone FlowConfig
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *f
		return &copied
	}
	return &clone
}

// String returns a YAML representation of the flow
func (f *FlowConfig) String() string {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Sprintf("FlowConfig{Name: %s}", f.Name)
	}
	return string(data)
}

// SaveToFile writes the flow to path, as YAML unless the extension is .json.
func (f *FlowConfig) SaveToFile(path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(f, "", "  ")
	default:
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return errors.WrapInvalid(err, "FlowConfig", "SaveToFile", "encode flow")
	}
	return writeFlowFile(path, data)
}
