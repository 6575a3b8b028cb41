package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/processor/splitter"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

func TestValidateSchemas(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, splitter.Register(registry))

	flow := &FlowConfig{
		Name: "check",
		Components: ComponentConfigs{
			"good": {Type: types.ComponentTypeProcessor, Name: "splitter",
				Config: map[string]any{"numoutputs": 3}},
			"bad": {Type: types.ComponentTypeProcessor, Name: "splitter",
				Config: map[string]any{"numoutputs": 12, "activeports": 5}},
			"off": {Type: types.ComponentTypeProcessor, Name: "splitter", Disabled: true,
				Config: map[string]any{"numoutputs": 99}},
			"ghost": {Type: types.ComponentTypeProcessor, Name: "nosuch"},
		},
	}

	errs := ValidateSchemas(flow, registry, nil)
	require.Len(t, errs, 3)

	assert.Equal(t, "bad", errs[0].Instance)
	assert.Equal(t, "activeports", errs[0].Field)
	assert.Equal(t, "type", errs[0].Code)
	assert.Equal(t, "bad", errs[1].Instance)
	assert.Equal(t, "numoutputs", errs[1].Field)
	assert.Equal(t, "max", errs[1].Code)
	assert.Equal(t, "ghost", errs[2].Instance)
	assert.Equal(t, "unknown", errs[2].Code)

	assert.Nil(t, ValidateSchemas(flow, nil, nil))
}
