package types

import (
	"fmt"
	"strings"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// DataType is the element type tag carried by every stream. The set is closed:
// the integer codes below are the only valid tags.
type DataType int

// Element type tags in code order
const (
	Uint8 DataType = iota
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	LongDoubleType
	Complex64
	Complex128
	ComplexLongDoubleType
)

// LongDouble carries extended-precision samples. Go has no extended float, so
// values are stored as float64 but keep their own tag and instantiation.
type LongDouble float64

// ComplexLongDouble is the complex counterpart of LongDouble.
type ComplexLongDouble complex128

// Element constrains generic stream code to the closed set of element types.
type Element interface {
	uint8 | uint16 | uint32 | uint64 |
		int8 | int16 | int32 | int64 |
		float32 | float64 | LongDouble |
		complex64 | complex128 | ComplexLongDouble
}

var dataTypeNames = [...]string{
	Uint8:                 "uint8",
	Uint16:                "uint16",
	Uint32:                "uint32",
	Uint64:                "uint64",
	Int8:                  "int8",
	Int16:                 "int16",
	Int32:                 "int32",
	Int64:                 "int64",
	Float32:               "float32",
	Float64:               "float64",
	LongDoubleType:        "longdouble",
	Complex64:             "complex64",
	Complex128:            "complex128",
	ComplexLongDoubleType: "complexlongdouble",
}

var dataTypeSizes = [...]int{1, 2, 4, 8, 1, 2, 4, 8, 4, 8, 8, 8, 16, 16}

// AllDataTypes returns every valid tag in code order
func AllDataTypes() []DataType {
	all := make([]DataType, len(dataTypeNames))
	for i := range all {
		all[i] = DataType(i)
	}
	return all
}

// Valid reports whether d belongs to the closed tag set
func (d DataType) Valid() bool {
	return d >= Uint8 && d <= ComplexLongDoubleType
}

// String returns the configuration name of the tag
func (d DataType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("unknown(%d)", int(d))
	}
	return dataTypeNames[d]
}

// Size returns the storage size of one element in bytes, 0 for unknown tags
func (d DataType) Size() int {
	if !d.Valid() {
		return 0
	}
	return dataTypeSizes[d]
}

// MarshalText implements encoding.TextMarshaler
func (d DataType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.WrapInvalid(errors.ErrUnsupportedDataType, "DataType", "MarshalText",
			fmt.Sprintf("tag %d", int(d)))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDataType converts a configuration name into a tag
func ParseDataType(name string) (DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range dataTypeNames {
		if candidate == name {
			return DataType(i), nil
		}
	}
	return 0, errors.WrapInvalid(errors.ErrUnsupportedDataType, "DataType", "ParseDataType",
		fmt.Sprintf("name %q", name))
}

// TypeOf returns the tag for the element type T
func TypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	case LongDouble:
		return LongDoubleType
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		return ComplexLongDoubleType
	}
}
