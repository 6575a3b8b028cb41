package qammod

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/modulation"
)

// Config holds configuration for the QAM modulator
type Config struct {
	ModulationDepth int `json:"modulationdepth" schema:"runtime,type:int,description:Bits per symbol (1 BPSK / 2 QPSK / 4 16-QAM),min:1,max:4,default:1,category:basic"`
}

// DefaultConfig returns the default configuration (BPSK)
func DefaultConfig() Config {
	return Config{ModulationDepth: int(modulation.BPSK)}
}

// Validate rejects depths other than 1, 2 and 4
func (c Config) Validate() error {
	if !modulation.Depth(c.ModulationDepth).Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: modulationdepth %d not one of 1, 2, 4", errors.ErrInvalidConfig, c.ModulationDepth),
			"QAMModulator", "Validate", "modulationdepth check")
	}
	return nil
}

func parseConfig(rawConfig json.RawMessage) (Config, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return cfg, errors.WrapInvalid(err, "QAMModulator", "parseConfig", "config unmarshal")
		}
	}
	return cfg, cfg.Validate()
}

var qamSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Schema returns the configuration schema for the QAM modulator
func Schema() component.ConfigSchema {
	return qamSchema
}
