package component

import (
	"slices"

	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port describes one stream a component reads from or writes to
type Port struct {
	Name        string           `json:"name"`
	Direction   Direction        `json:"direction"`
	Required    bool             `json:"required"`
	Description string           `json:"description"`
	DataTypes   []types.DataType `json:"data_types"` // Element types the port can carry
}

// NewInputPort creates a required input port. With no data types the port
// accepts every element type.
func NewInputPort(name, description string, dataTypes ...types.DataType) Port {
	return newPort(name, DirectionInput, description, dataTypes)
}

// NewOutputPort creates a required output port. With no data types the port
// can carry every element type.
func NewOutputPort(name, description string, dataTypes ...types.DataType) Port {
	return newPort(name, DirectionOutput, description, dataTypes)
}

func newPort(name string, dir Direction, description string, dataTypes []types.DataType) Port {
	if len(dataTypes) == 0 {
		dataTypes = types.AllDataTypes()
	}
	return Port{
		Name:        name,
		Direction:   dir,
		Required:    true,
		Description: description,
		DataTypes:   slices.Clone(dataTypes),
	}
}

// Accepts reports whether the port can carry elements of type dt.
func (p Port) Accepts(dt types.DataType) bool {
	return slices.Contains(p.DataTypes, dt)
}

// PortNames returns the names of ports in order.
func PortNames(ports []Port) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return names
}
