package splitter

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// Output count bounds
const (
	MinOutputs = 1
	MaxOutputs = 10
)

// AllPorts is the activeports value that enables every output.
const AllPorts = "all"

// Config holds configuration for the splitter
type Config struct {
	NumOutputs  int    `json:"numoutputs"  schema:"type:int,description:Number of outputs to split across,min:1,max:10,default:2,category:basic"`
	ActivePorts string `json:"activeports" schema:"runtime,type:string,description:Comma separated list of active ports,default:all,category:basic"`
}

// DefaultConfig returns the default configuration for the splitter
func DefaultConfig() Config {
	return Config{
		NumOutputs:  2,
		ActivePorts: AllPorts,
	}
}

// Validate checks the output count bounds
func (c Config) Validate() error {
	if c.NumOutputs < MinOutputs || c.NumOutputs > MaxOutputs {
		return errors.WrapInvalid(
			fmt.Errorf("%w: numoutputs %d outside [%d,%d]", errors.ErrInvalidConfig, c.NumOutputs, MinOutputs, MaxOutputs),
			"Splitter", "Validate", "numoutputs range check")
	}
	return nil
}

// parseConfig overlays raw JSON onto the defaults
func parseConfig(rawConfig json.RawMessage) (Config, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return cfg, errors.WrapInvalid(err, "Splitter", "parseConfig", "config unmarshal")
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitterSchema defines the configuration schema for the splitter
var splitterSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Schema returns the configuration schema for the splitter
func Schema() component.ConfigSchema {
	return splitterSchema
}
