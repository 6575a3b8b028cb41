package component

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// DecodeConfigUpdate decodes runtime parameter changes onto target, a pointer
// to a component config struct, matching keys against its json tags. Unknown
// keys, mistyped values and fractional numbers for integer fields fail with
// ErrInvalidConfig. Fields not named in changes keep their value.
func DecodeConfigUpdate(changes map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		DecodeHook:  mapstructure.DecodeHookFuncType(integralFloat),
		Result:      target,
	})
	if err != nil {
		return errors.WrapFatal(err, "Component", "DecodeConfigUpdate", "decoder setup")
	}
	if err := decoder.Decode(changes); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Component", "DecodeConfigUpdate", "decode changes")
	}
	return nil
}

// integralFloat lets JSON numbers (always float64) land in int fields when
// they hold whole values.
func integralFloat(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	return int(f), nil
}
