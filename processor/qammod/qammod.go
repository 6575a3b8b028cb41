package qammod

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/modulation"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Component metadata
const (
	ComponentName        = "qammodulatorphycomponent"
	ComponentDescription = "Maps bytes onto BPSK, QPSK or 16-QAM symbols"
	ComponentAuthor      = "phystreams"
	ComponentVersion     = "0.1"
)

// Port names
const (
	InputPortName  = "input1"
	OutputPortName = "output1"
)

var (
	_ component.PhyComponent        = (*Component)(nil)
	_ component.RuntimeConfigurable = (*Component)(nil)
	_ component.Stateful            = (*Component)(nil)
)

// Component turns each uint8 DataSet into one complex64 DataSet of exactly
// the required number of symbols.
type Component struct {
	component.Lifecycle

	modulator *modulation.Modulator
	logger    *slog.Logger
	depth     atomic.Int32
}

// NewComponent is the factory used by the component registry.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.PhyComponent, error) {
	cfg, err := parseConfig(rawConfig)
	if err != nil {
		return nil, errors.Wrap(err, "QAMModulator", "NewComponent", "config parsing")
	}

	logger := deps.GetLoggerWithComponent(ComponentName)
	options := []modulation.Option{modulation.WithLogger(logger)}
	if deps.MetricsRegistry != nil {
		options = append(options, modulation.WithMetrics(deps.MetricsRegistry, deps.MetricLabel(ComponentName)))
	}

	modulator, err := modulation.NewModulator(options...)
	if err != nil {
		return nil, errors.Wrap(err, "QAMModulator", "NewComponent", "modulator creation")
	}
	return New(cfg, modulator, logger), nil
}

// New creates a QAM modulator component from a validated config. A nil
// modulator is replaced by one without metrics that logs through logger.
func New(cfg Config, modulator *modulation.Modulator, logger *slog.Logger) *Component {
	if logger == nil {
		logger = slog.Default()
	}
	if modulator == nil {
		modulator = modulation.New(logger)
	}
	c := &Component{modulator: modulator, logger: logger}
	c.depth.Store(int32(cfg.ModulationDepth))
	return c
}

// Meta returns component metadata
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        ComponentName,
		Type:        string(types.ComponentTypeModulator),
		Description: ComponentDescription,
		Author:      ComponentAuthor,
		Version:     ComponentVersion,
	}
}

// InputPorts returns the byte input.
func (c *Component) InputPorts() []component.Port {
	return []component.Port{component.NewInputPort(InputPortName, "Bytes to modulate", types.Uint8)}
}

// OutputPorts returns the symbol output.
func (c *Component) OutputPorts() []component.Port {
	return []component.Port{component.NewOutputPort(OutputPortName, "Modulated symbols", types.Complex64)}
}

// ConfigSchema returns the configuration schema
func (c *Component) ConfigSchema() component.ConfigSchema {
	return qamSchema
}

// Depth returns the current modulation depth.
func (c *Component) Depth() modulation.Depth {
	return modulation.Depth(c.depth.Load())
}

// CalculateOutputTypes requires a uint8 input and produces complex64.
func (c *Component) CalculateOutputTypes(inputTypes map[string]types.DataType) (map[string]types.DataType, error) {
	dt, ok := inputTypes[InputPortName]
	if !ok || dt != types.Uint8 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s must be uint8", errors.ErrTypeMismatch, InputPortName),
			"QAMModulator", "CalculateOutputTypes", "input type check")
	}
	return map[string]types.DataType{OutputPortName: types.Complex64}, nil
}

// Initialize prepares the modulator; it may be called once.
func (c *Component) Initialize() error {
	if !c.Transition(component.StateCreated, component.StateInitialized) {
		return errors.WrapInvalid(errors.ErrAlreadyInitialized, "QAMModulator", "Initialize", "state transition")
	}
	c.logger.Debug("QAM modulator initialized", "depth", c.Depth().String())
	return nil
}

// Process modulates one input DataSet.
func (c *Component) Process(inputs, outputs []buffer.Handle) (err error) {
	if !c.Ready() {
		return errors.WrapFatal(errors.ErrNotInitialized, "QAMModulator", "Process", "state check")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return errors.WrapFatal(
			fmt.Errorf("%w: got %d inputs and %d outputs, want 1 and 1",
				errors.ErrPortMismatch, len(inputs), len(outputs)),
			"QAMModulator", "Process", "port count check")
	}

	reader, ok := inputs[0].(buffer.ReadBuffer[uint8])
	if !ok {
		return errors.WrapFatal(
			fmt.Errorf("%w: input is %s", errors.ErrTypeMismatch, inputs[0].DataType()),
			"QAMModulator", "Process", "input type assertion")
	}
	writer, ok := outputs[0].(buffer.WriteBuffer[complex64])
	if !ok {
		return errors.WrapFatal(
			fmt.Errorf("%w: output is %s", errors.ErrTypeMismatch, outputs[0].DataType()),
			"QAMModulator", "Process", "output type assertion")
	}

	src, err := reader.AcquireRead()
	if err != nil {
		return errors.Wrap(err, "QAMModulator", "Process", "acquire input")
	}
	defer func() {
		if relErr := reader.ReleaseRead(src); relErr != nil && err == nil {
			err = errors.Wrap(relErr, "QAMModulator", "Process", "release input")
		}
	}()

	depth := int(c.depth.Load())
	dst, err := writer.AcquireWrite(modulation.RequiredSymbols(len(src.Data), depth))
	if err != nil {
		return errors.Wrap(err, "QAMModulator", "Process", "acquire output")
	}

	n, modErr := c.modulator.Modulate(src.Data, dst.Data, depth)
	dst.Data = dst.Data[:n]
	dst.SampleRate = src.SampleRate
	dst.Timestamp = src.Timestamp
	if err := writer.ReleaseWrite(dst); err != nil {
		return errors.Wrap(err, "QAMModulator", "Process", "release output")
	}
	if modErr != nil {
		return errors.Wrap(modErr, "QAMModulator", "Process", "modulate")
	}
	return nil
}

// ValidateConfigUpdate checks proposed runtime changes.
func (c *Component) ValidateConfigUpdate(changes map[string]any) error {
	_, err := c.decodeUpdate(changes)
	return err
}

// ApplyConfigUpdate validates and applies changes.
func (c *Component) ApplyConfigUpdate(changes map[string]any) error {
	cfg, err := c.decodeUpdate(changes)
	if err != nil {
		return err
	}
	if _, ok := changes["modulationdepth"]; ok {
		c.depth.Store(int32(cfg.ModulationDepth))
		c.logger.Info("Modulation depth updated", "depth", modulation.Depth(cfg.ModulationDepth).String())
	}
	return nil
}

func (c *Component) decodeUpdate(changes map[string]any) (Config, error) {
	cfg := Config{ModulationDepth: int(c.depth.Load())}
	if err := component.DecodeConfigUpdate(changes, &cfg); err != nil {
		return cfg, errors.Wrap(err, "QAMModulator", "ValidateConfigUpdate", "decode changes")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetRuntimeConfig returns the current runtime parameters.
func (c *Component) GetRuntimeConfig() map[string]any {
	return map[string]any{"modulationdepth": int(c.depth.Load())}
}
