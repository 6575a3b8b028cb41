package testutil

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// DataLengths are the DataSet sizes exercised by table tests.
var DataLengths = []int{0, 1, 10000}

// Ramp returns n samples whose value is derived from their index. Complex
// samples carry the index in both parts, with the imaginary part negated.
func Ramp[T types.Element](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = Sample[T](i)
	}
	return out
}

// Sample converts an index into a value of T.
func Sample[T types.Element](i int) T {
	var v any
	switch any(*new(T)).(type) {
	case uint8:
		v = uint8(i)
	case uint16:
		v = uint16(i)
	case uint32:
		v = uint32(i)
	case uint64:
		v = uint64(i)
	case int8:
		v = int8(i)
	case int16:
		v = int16(i)
	case int32:
		v = int32(i)
	case int64:
		v = int64(i)
	case float32:
		v = float32(i) * 0.5
	case float64:
		v = float64(i) * 0.25
	case types.LongDouble:
		v = types.LongDouble(float64(i) * 0.125)
	case complex64:
		v = complex(float32(i), -float32(i))
	case complex128:
		v = complex(float64(i), -float64(i))
	case types.ComplexLongDouble:
		v = types.ComplexLongDouble(complex(float64(i), -float64(i)))
	}
	return v.(T)
}
