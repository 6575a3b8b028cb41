package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// Format is the encoding of a flow document.
type Format string

// Supported flow formats
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Environment variables that override engine settings.
const (
	EnvBufferDepth      = "PHYSTREAMS_BUFFER_DEPTH"
	EnvOpenOutputPolicy = "PHYSTREAMS_OPEN_OUTPUT_POLICY"
	EnvMaxRetries       = "PHYSTREAMS_MAX_RETRIES"
	EnvRetryBackoff     = "PHYSTREAMS_RETRY_BACKOFF"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: unsupported flow file extension %q", errors.ErrInvalidConfig, filepath.Ext(path)),
			"Config", "DetectFormat", "extension check")
	}
}

// Loader reads flow documents, applies environment overrides and validates.
type Loader struct {
	validate  bool
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that validates and reads overrides from the
// process environment.
func NewLoader() *Loader {
	return &Loader{
		validate:  true,
		lookupEnv: os.LookupEnv,
	}
}

// EnableValidation enables or disables structural validation
func (l *Loader) EnableValidation(enable bool) {
	l.validate = enable
}

// LoadFile loads a flow from a YAML or JSON file.
func (l *Loader) LoadFile(path string) (*FlowConfig, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := readFlowFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadFile", "read "+path)
	}
	return l.Parse(data, format)
}

// Parse decodes a flow document, then applies defaults, environment
// overrides and validation in that order.
func (l *Loader) Parse(data []byte, format Format) (*FlowConfig, error) {
	var flow FlowConfig
	switch format {
	case FormatJSON:
		if err := checkNesting(data); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Parse", "JSON nesting check")
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&flow); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "Parse", "JSON decode")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&flow); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "Parse", "YAML decode")
		}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: format %q", errors.ErrInvalidConfig, format), "Loader", "Parse", "format check")
	}

	flow.Engine = flow.Engine.WithDefaults()
	if err := l.applyEnvOverrides(&flow); err != nil {
		return nil, err
	}

	if l.validate {
		if err := flow.Validate(); err != nil {
			return nil, errors.Wrap(err, "Loader", "Parse", "flow validation")
		}
	}
	return &flow, nil
}

// applyEnvOverrides applies PHYSTREAMS_* engine overrides.
func (l *Loader) applyEnvOverrides(flow *FlowConfig) error {
	if l.lookupEnv == nil {
		return nil
	}

	get := func(key string) (string, bool, error) {
		value, ok := l.lookupEnv(key)
		if !ok || value == "" {
			return "", false, nil
		}
		if err := checkEnvValue(key, value); err != nil {
			return "", false, errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "validate "+key)
		}
		return value, true, nil
	}
	atoi := func(key, value string) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, errors.WrapInvalid(
				fmt.Errorf("%w: %s=%q", errors.ErrInvalidConfig, key, value),
				"Loader", "applyEnvOverrides", "parse "+key)
		}
		return n, nil
	}

	if v, ok, err := get(EnvBufferDepth); err != nil {
		return err
	} else if ok {
		n, err := atoi(EnvBufferDepth, v)
		if err != nil {
			return err
		}
		flow.Engine.BufferDepth = n
	}
	if v, ok, err := get(EnvMaxRetries); err != nil {
		return err
	} else if ok {
		n, err := atoi(EnvMaxRetries, v)
		if err != nil {
			return err
		}
		flow.Engine.MaxRetries = n
	}
	if v, ok, err := get(EnvOpenOutputPolicy); err != nil {
		return err
	} else if ok {
		flow.Engine.OpenOutputPolicy = v
	}
	if v, ok, err := get(EnvRetryBackoff); err != nil {
		return err
	} else if ok {
		flow.Engine.RetryBackoff = v
	}
	return nil
}

// LoadFlow loads and validates a flow file using the process environment.
func LoadFlow(path string) (*FlowConfig, error) {
	return NewLoader().LoadFile(path)
}

// ParseFlow decodes and validates a flow document using the process environment.
func ParseFlow(data []byte, format Format) (*FlowConfig, error) {
	return NewLoader().Parse(data, format)
}
