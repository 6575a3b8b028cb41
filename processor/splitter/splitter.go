package splitter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Component metadata
const (
	ComponentName        = "splitterphycomponent"
	ComponentDescription = "Splits data into two or more outputs"
	ComponentAuthor      = "Paul Sutton"
	ComponentVersion     = "0.1"
)

// InputPortName is the single input port.
const InputPortName = "input1"

// Ensure Splitter implements the component contracts
var (
	_ component.PhyComponent        = (*Splitter)(nil)
	_ component.RuntimeConfigurable = (*Splitter)(nil)
	_ component.Stateful            = (*Splitter)(nil)
)

// Splitter copies each input DataSet to every active output port.
type Splitter struct {
	component.Lifecycle

	config  Config
	logger  *slog.Logger
	metrics *splitterMetrics

	mu     sync.RWMutex
	active []int
}

// NewComponent is the factory used by the component registry.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.PhyComponent, error) {
	cfg, err := parseConfig(rawConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Splitter", "NewComponent", "config parsing")
	}

	metrics, err := newSplitterMetrics(deps.MetricsRegistry, deps.MetricLabel(ComponentName))
	if err != nil {
		return nil, errors.Wrap(err, "Splitter", "NewComponent", "metrics registration")
	}

	return newSplitter(cfg, deps.GetLoggerWithComponent(ComponentName), metrics), nil
}

// New creates a Splitter from a validated config. It records no metrics; use
// NewComponent with a metrics registry for that.
func New(cfg Config, logger *slog.Logger) *Splitter {
	return newSplitter(cfg, logger, nil)
}

func newSplitter(cfg Config, logger *slog.Logger, metrics *splitterMetrics) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Splitter{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
	s.setActive(cfg.ActivePorts)
	return s
}

// Meta returns component metadata
func (s *Splitter) Meta() component.Metadata {
	return component.Metadata{
		Name:        ComponentName,
		Type:        string(types.ComponentTypeProcessor),
		Description: ComponentDescription,
		Author:      ComponentAuthor,
		Version:     ComponentVersion,
	}
}

// InputPorts returns the single input port, which accepts every element type.
func (s *Splitter) InputPorts() []component.Port {
	return []component.Port{
		component.NewInputPort(InputPortName, "Stream to duplicate"),
	}
}

// OutputPorts returns output1..outputN.
func (s *Splitter) OutputPorts() []component.Port {
	ports := make([]component.Port, s.config.NumOutputs)
	for i := range ports {
		ports[i] = component.NewOutputPort(outputPortName(i), fmt.Sprintf("Copy %d of the input", i+1))
	}
	return ports
}

func outputPortName(i int) string {
	return fmt.Sprintf("output%d", i+1)
}

// ConfigSchema returns the configuration schema
func (s *Splitter) ConfigSchema() component.ConfigSchema {
	return splitterSchema
}

// Config returns the construction-time configuration with the current
// activeports value.
func (s *Splitter) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// CalculateOutputTypes gives every output the input's element type.
func (s *Splitter) CalculateOutputTypes(inputTypes map[string]types.DataType) (map[string]types.DataType, error) {
	dt, ok := inputTypes[InputPortName]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: no type for %s", errors.ErrTypeMismatch, InputPortName),
			"Splitter", "CalculateOutputTypes", "input type lookup")
	}
	if !dt.Valid() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnsupportedDataType, dt),
			"Splitter", "CalculateOutputTypes", "input type validation")
	}

	out := make(map[string]types.DataType, s.config.NumOutputs)
	for i := 0; i < s.config.NumOutputs; i++ {
		out[outputPortName(i)] = dt
	}
	return out, nil
}

// Initialize prepares the splitter; it may be called once.
func (s *Splitter) Initialize() error {
	if !s.Transition(component.StateCreated, component.StateInitialized) {
		return errors.WrapInvalid(errors.ErrAlreadyInitialized, "Splitter", "Initialize", "state transition")
	}
	s.logger.Debug("Splitter initialized",
		"outputs", s.config.NumOutputs,
		"active_ports", s.ActivePorts())
	return nil
}

// Process routes one input DataSet to the active outputs.
func (s *Splitter) Process(inputs, outputs []buffer.Handle) error {
	if !s.Ready() {
		return errors.WrapFatal(errors.ErrNotInitialized, "Splitter", "Process", "state check")
	}
	if len(inputs) != 1 || len(outputs) != s.config.NumOutputs {
		return errors.WrapFatal(
			fmt.Errorf("%w: got %d inputs and %d outputs, want 1 and %d",
				errors.ErrPortMismatch, len(inputs), len(outputs), s.config.NumOutputs),
			"Splitter", "Process", "port count check")
	}

	active := s.ActivePorts()
	in := inputs[0]

	known, samples, err := dispatch(in, outputs, active)
	if err != nil {
		return err
	}
	if !known {
		s.logger.Debug("Ignoring input with unknown element type", "type", in.DataType())
		return nil
	}
	s.metrics.recordRouted(in.DataType().String(), samples, len(active))
	return nil
}

// ActivePorts returns a snapshot of the zero-based active output indices.
func (s *Splitter) ActivePorts() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.active)
}

// SetActivePorts replaces the active output set.
func (s *Splitter) SetActivePorts(cfg string) {
	s.setActive(cfg)
	s.logger.Info("Active ports updated", "activeports", cfg, "ports", s.ActivePorts())
}

func (s *Splitter) setActive(cfg string) {
	ports := ParseActivePorts(cfg, s.config.NumOutputs)
	s.mu.Lock()
	s.config.ActivePorts = cfg
	s.active = ports
	s.mu.Unlock()
	s.metrics.setActive(len(ports))
}

// ValidateConfigUpdate checks proposed runtime changes. Only activeports may
// change; numoutputs is accepted when it repeats the current value.
func (s *Splitter) ValidateConfigUpdate(changes map[string]any) error {
	_, err := s.decodeUpdate(changes)
	return err
}

// ApplyConfigUpdate applies validated changes.
func (s *Splitter) ApplyConfigUpdate(changes map[string]any) error {
	cfg, err := s.decodeUpdate(changes)
	if err != nil {
		return err
	}
	if _, ok := changes["activeports"]; ok {
		s.SetActivePorts(cfg.ActivePorts)
	}
	return nil
}

func (s *Splitter) decodeUpdate(changes map[string]any) (Config, error) {
	cfg := s.Config()
	if err := component.DecodeConfigUpdate(changes, &cfg); err != nil {
		return cfg, errors.Wrap(err, "Splitter", "ValidateConfigUpdate", "decode changes")
	}
	if cfg.NumOutputs != s.config.NumOutputs {
		return cfg, errors.WrapInvalid(
			fmt.Errorf("%w: numoutputs cannot change after creation", errors.ErrInvalidConfig),
			"Splitter", "ValidateConfigUpdate", "numoutputs check")
	}
	return cfg, nil
}

// GetRuntimeConfig returns the current runtime parameters.
func (s *Splitter) GetRuntimeConfig() map[string]any {
	cfg := s.Config()
	return map[string]any{
		"numoutputs":  cfg.NumOutputs,
		"activeports": cfg.ActivePorts,
	}
}
