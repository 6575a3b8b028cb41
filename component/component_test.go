package component

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	assert.Equal(t, StateCreated, l.State())
	assert.False(t, l.Ready())

	assert.True(t, l.Transition(StateCreated, StateInitialized))
	assert.True(t, l.Ready())
	assert.False(t, l.Transition(StateCreated, StateInitialized))

	l.SetState(StateFailed)
	assert.Equal(t, StateFailed, l.State())
}

func TestPorts(t *testing.T) {
	in := NewInputPort("input1", "any element type")
	assert.Equal(t, DirectionInput, in.Direction)
	assert.True(t, in.Required)
	assert.Len(t, in.DataTypes, len(types.AllDataTypes()))
	for _, dt := range types.AllDataTypes() {
		assert.True(t, in.Accepts(dt), dt.String())
	}

	out := NewOutputPort("output1", "symbols", types.Complex64)
	assert.Equal(t, DirectionOutput, out.Direction)
	assert.True(t, out.Accepts(types.Complex64))
	assert.False(t, out.Accepts(types.Uint8))

	assert.Equal(t, []string{"input1", "output1"}, PortNames([]Port{in, out}))
}

func TestPortJSON(t *testing.T) {
	p := NewOutputPort("output1", "symbols", types.Complex64, types.ComplexLongDoubleType)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data_types":["complex64","complexlongdouble"]`)

	var back Port
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestDependenciesLogger(t *testing.T) {
	var deps Dependencies
	assert.NotNil(t, deps.GetLogger())
	assert.NotNil(t, deps.GetLoggerWithComponent("splitter"))
}

func testSchema() ConfigSchema {
	return ConfigSchema{
		Properties: map[string]PropertySchema{
			"numoutputs": {
				Type:     "int",
				Default:  2,
				Minimum:  IntPtr(1),
				Maximum:  IntPtr(10),
				Category: "basic",
			},
			"activeports": {
				Type:     "string",
				Default:  "all",
				Category: "basic",
				Runtime:  true,
			},
			"mode": {
				Type: "enum",
				Enum: []string{"fast", "slow"},
			},
			"enabled": {
				Type: "bool",
			},
			"gain": {
				Type: "float",
			},
		},
		Required: []string{"numoutputs"},
	}
}

func TestValidateConfig(t *testing.T) {
	schema := testSchema()

	tests := []struct {
		name   string
		config map[string]any
		field  string
		code   string
	}{
		{"valid", map[string]any{"numoutputs": 3, "activeports": "1,2"}, "", ""},
		{"valid json number", map[string]any{"numoutputs": 3.0}, "", ""},
		{"unknown fields allowed", map[string]any{"numoutputs": 3, "extra": "x"}, "", ""},
		{"missing required", map[string]any{"activeports": "all"}, "numoutputs", "required"},
		{"below minimum", map[string]any{"numoutputs": 0}, "numoutputs", "min"},
		{"above maximum", map[string]any{"numoutputs": 11}, "numoutputs", "max"},
		{"wrong type", map[string]any{"numoutputs": "two"}, "numoutputs", "type"},
		{"bad enum", map[string]any{"numoutputs": 2, "mode": "medium"}, "mode", "enum"},
		{"bool type", map[string]any{"numoutputs": 2, "enabled": "yes"}, "enabled", "type"},
		{"float type", map[string]any{"numoutputs": 2, "gain": "loud"}, "gain", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verrs := ValidateConfig(tt.config, schema)
			if tt.code == "" {
				assert.Empty(t, verrs)
				return
			}
			require.NotEmpty(t, verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
			assert.Equal(t, tt.code, verrs[0].Code)
			assert.NotEmpty(t, verrs[0].Message)
		})
	}
}

func TestValidateRawConfig(t *testing.T) {
	schema := testSchema()

	require.NoError(t, ValidateRawConfig(json.RawMessage(`{"numoutputs": 4}`), schema))

	err := ValidateRawConfig(json.RawMessage(`{"numoutputs": 40}`), schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.True(t, errors.IsInvalid(err))

	err = ValidateRawConfig(json.RawMessage(`{not json`), schema)
	assert.True(t, errors.IsInvalid(err))

	// Empty config only fails on required fields.
	err = ValidateRawConfig(nil, schema)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	require.NoError(t, ValidateRawConfig(nil, ConfigSchema{}))
}

func TestSchemaHelpers(t *testing.T) {
	schema := testSchema()

	assert.Equal(t, []string{"activeports"}, RuntimeProperties(schema))
	assert.Equal(t,
		[]string{"activeports", "numoutputs", "enabled", "gain", "mode"},
		SortedPropertyNames(schema))

	v, ok := GetPropertyValue(map[string]any{"a": 1}, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = GetPropertyValue(nil, "a")
	assert.False(t, ok)

	doc := schema.JSONSchema()
	props := doc["properties"].(map[string]any)
	assert.Equal(t, "integer", props["numoutputs"].(map[string]any)["type"])
	assert.Equal(t, []string{"numoutputs"}, doc["required"])
}
