package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// Limits for flow documents. A flow names a handful of components and links,
// so anything near these sizes is not a flow file.
const (
	maxFlowFileSize = 1 << 20
	maxJSONDepth    = 32
	maxEnvValueLen  = 256
	maxPathLen      = 4096
)

func checkFlowPath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty flow path", errors.ErrInvalidConfig)
	case len(path) > maxPathLen:
		return fmt.Errorf("%w: flow path has %d bytes, limit %d", errors.ErrInvalidConfig, len(path), maxPathLen)
	case slices.Contains(strings.Split(filepath.ToSlash(path), "/"), ".."):
		return fmt.Errorf("%w: flow path %s leaves its directory", errors.ErrInvalidConfig, path)
	}
	_, err := DetectFormat(path)
	return err
}

// readFlowFile reads a regular flow file no larger than maxFlowFileSize.
func readFlowFile(path string) ([]byte, error) {
	if err := checkFlowPath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", errors.ErrInvalidConfig, path)
	}
	if info.Size() > maxFlowFileSize {
		return nil, fmt.Errorf("%w: %s has %d bytes, limit %d",
			errors.ErrInvalidConfig, path, info.Size(), maxFlowFileSize)
	}
	return os.ReadFile(path)
}

func writeFlowFile(path string, data []byte) error {
	if err := checkFlowPath(path); err != nil {
		return errors.WrapInvalid(err, "FlowConfig", "SaveToFile", "path check")
	}
	if len(data) > maxFlowFileSize {
		return errors.WrapInvalid(
			fmt.Errorf("%w: encoded flow has %d bytes, limit %d", errors.ErrInvalidConfig, len(data), maxFlowFileSize),
			"FlowConfig", "SaveToFile", "size check")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapTransient(err, "FlowConfig", "SaveToFile", "write "+path)
	}
	return nil
}

func checkEnvValue(key, value string) error {
	if len(value) > maxEnvValueLen {
		return fmt.Errorf("%w: %s has %d bytes, limit %d", errors.ErrInvalidConfig, key, len(value), maxEnvValueLen)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%w: %s contains a NUL byte", errors.ErrInvalidConfig, key)
	}
	return nil
}

// checkNesting walks the JSON token stream and fails on syntax errors or when
// objects and arrays nest deeper than maxJSONDepth.
func checkNesting(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		switch delim {
		case '{', '[':
			depth++
			if depth > maxJSONDepth {
				return fmt.Errorf("%w: JSON nests deeper than %d", errors.ErrParsingFailed, maxJSONDepth)
			}
		case '}', ']':
			depth--
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unexpected end of JSON", errors.ErrParsingFailed)
	}
	return nil
}
