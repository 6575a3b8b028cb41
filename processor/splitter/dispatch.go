package splitter

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// dispatch selects the route instantiation for the input's element type.
// Unknown tags produce nothing and report known as false.
func dispatch(in buffer.Handle, outs []buffer.Handle, active []int) (known bool, samples int, err error) {
	switch in.DataType() {
	case types.Uint8:
		samples, err = route[uint8](in, outs, active)
	case types.Uint16:
		samples, err = route[uint16](in, outs, active)
	case types.Uint32:
		samples, err = route[uint32](in, outs, active)
	case types.Uint64:
		samples, err = route[uint64](in, outs, active)
	case types.Int8:
		samples, err = route[int8](in, outs, active)
	case types.Int16:
		samples, err = route[int16](in, outs, active)
	case types.Int32:
		samples, err = route[int32](in, outs, active)
	case types.Int64:
		samples, err = route[int64](in, outs, active)
	case types.Float32:
		samples, err = route[float32](in, outs, active)
	case types.Float64:
		samples, err = route[float64](in, outs, active)
	case types.LongDoubleType:
		samples, err = route[types.LongDouble](in, outs, active)
	case types.Complex64:
		samples, err = route[complex64](in, outs, active)
	case types.Complex128:
		samples, err = route[complex128](in, outs, active)
	case types.ComplexLongDoubleType:
		samples, err = route[types.ComplexLongDouble](in, outs, active)
	default:
		return false, 0, nil
	}
	return true, samples, err
}
