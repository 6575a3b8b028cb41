// Package componentregistry registers the PHY components shipped with
// phystreams.
package componentregistry

import (
	"errors"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	pkgerrors "github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/processor/qammod"
	"github.com/andrepuschmann/iris-modules-ospecorr/processor/splitter"
)

// Register registers all built-in components with the provided registry:
//
// Processors:
//   - Splitter (fans one stream out to N outputs)
//
// Modulators:
//   - QAM modulator (bytes to BPSK, QPSK or 16-QAM symbols)
func Register(registry *component.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := splitter.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "splitter component registration")
	}

	if err := qammod.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "QAM modulator component registration")
	}

	return nil
}

// NewRegistry returns a registry with every built-in component registered.
func NewRegistry() (*component.Registry, error) {
	registry := component.NewRegistry()
	if err := Register(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
