package qammod

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
	"github.com/andrepuschmann/iris-modules-ospecorr/modulation"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	tu "github.com/andrepuschmann/iris-modules-ospecorr/testutil"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

func newReady(t *testing.T, depth int) *Component {
	t.Helper()
	c := New(Config{ModulationDepth: depth}, nil, nil)
	require.NoError(t, c.Initialize())
	return c
}

func TestProcess_Depths(t *testing.T) {
	a := float32(1 / math.Sqrt2)
	tests := []struct {
		name  string
		depth int
		in    []uint8
		want  []complex64
	}{
		{"bpsk", 1, []uint8{0x80}, []complex64{-1, 1, 1, 1, 1, 1, 1, 1}},
		{"qpsk", 2, []uint8{0b10110100}, []complex64{
			complex(a, -a), complex(a, a), complex(-a, a), complex(-a, -a),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newReady(t, tt.depth)
			in := tu.NewMockBuffer[uint8]("qam.input1", 2)
			out := tu.NewMockBuffer[complex64]("qam.output1", 2)

			require.NoError(t, in.Push(tt.in, 2e6, 7))
			require.NoError(t, c.Process([]buffer.Handle{in}, []buffer.Handle{out}))

			ds, err := out.Pop()
			require.NoError(t, err)
			assert.Equal(t, 2e6, ds.SampleRate)
			assert.Equal(t, 7.0, ds.Timestamp)
			require.Len(t, ds.Data, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, real(tt.want[i]), real(ds.Data[i]), 1e-6, "symbol %d", i)
				assert.InDelta(t, imag(tt.want[i]), imag(ds.Data[i]), 1e-6, "symbol %d", i)
			}
			assert.Equal(t, tu.Counts{ReadAcquires: 1, ReadReleases: 1}, in.Counts())
			assert.Equal(t, tu.Counts{WriteAcquires: 1, WriteReleases: 1}, out.Counts())
		})
	}
}

func TestProcess_ExactOutputSize(t *testing.T) {
	for _, depth := range []int{1, 2, 4} {
		c := newReady(t, depth)
		in := tu.NewMockBuffer[uint8]("qam.input1", 2)
		out := tu.NewMockBuffer[complex64]("qam.output1", 2)

		require.NoError(t, in.Push(tu.Ramp[uint8](10), 0, 0))
		require.NoError(t, c.Process([]buffer.Handle{in}, []buffer.Handle{out}))

		ds, err := out.Pop()
		require.NoError(t, err)
		assert.Len(t, ds.Data, 80/depth)
	}
}

func TestProcess_NoSurplusWarning(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	modulator, err := modulation.NewModulator(modulation.WithLogger(logger))
	require.NoError(t, err)

	c := New(Config{ModulationDepth: 4}, modulator, logger)
	require.NoError(t, c.Initialize())

	in := tu.NewMockBuffer[uint8]("qam.input1", 2)
	out := tu.NewMockBuffer[complex64]("qam.output1", 2)
	require.NoError(t, in.Push([]uint8{1, 2, 3}, 0, 0))
	require.NoError(t, c.Process([]buffer.Handle{in}, []buffer.Handle{out}))
	assert.Empty(t, logs.String())
}

func TestNew_NilModulatorUsesLogger(t *testing.T) {
	var logs bytes.Buffer
	c := New(Config{ModulationDepth: 2}, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, c.Initialize())

	in := tu.NewMockBuffer[uint8]("qam.input1", 2)
	out := tu.NewMockBuffer[complex64]("qam.output1", 2)
	require.NoError(t, in.Push([]uint8{0xB4}, 0, 0))
	require.NoError(t, c.Process([]buffer.Handle{in}, []buffer.Handle{out}))

	ds, err := out.Pop()
	require.NoError(t, err)
	assert.Len(t, ds.Data, 4)
	assert.Empty(t, logs.String())
}

func TestProcess_Errors(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		c := New(DefaultConfig(), nil, nil)
		err := c.Process(nil, nil)
		assert.ErrorIs(t, err, errors.ErrNotInitialized)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("port mismatch", func(t *testing.T) {
		c := newReady(t, 1)
		in := tu.NewMockBuffer[uint8]("qam.input1", 2)
		err := c.Process([]buffer.Handle{in}, nil)
		assert.ErrorIs(t, err, errors.ErrPortMismatch)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("wrong input type", func(t *testing.T) {
		c := newReady(t, 1)
		in := tu.NewMockBuffer[int8]("qam.input1", 2)
		out := tu.NewMockBuffer[complex64]("qam.output1", 2)
		err := c.Process([]buffer.Handle{in}, []buffer.Handle{out})
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	})

	t.Run("wrong output type", func(t *testing.T) {
		c := newReady(t, 1)
		in := tu.NewMockBuffer[uint8]("qam.input1", 2)
		out := tu.NewMockBuffer[complex128]("qam.output1", 2)
		require.NoError(t, in.Push([]uint8{1}, 0, 0))
		err := c.Process([]buffer.Handle{in}, []buffer.Handle{out})
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
		assert.Equal(t, tu.Counts{}, in.Counts(), "types are checked before acquiring")
	})

	t.Run("output failure releases input", func(t *testing.T) {
		c := newReady(t, 1)
		in := tu.NewMockBuffer[uint8]("qam.input1", 2)
		out := tu.NewMockBuffer[complex64]("qam.output1", 2)
		out.AcquireWriteErr = tu.ErrMockFailed
		require.NoError(t, in.Push([]uint8{1}, 0, 0))

		err := c.Process([]buffer.Handle{in}, []buffer.Handle{out})
		assert.ErrorIs(t, err, tu.ErrMockFailed)
		assert.Zero(t, in.Counts().OutstandingReads())
		assert.False(t, in.HasData())
	})

	t.Run("empty input", func(t *testing.T) {
		c := newReady(t, 1)
		in := tu.NewMockBuffer[uint8]("qam.input1", 2)
		out := tu.NewMockBuffer[complex64]("qam.output1", 2)
		err := c.Process([]buffer.Handle{in}, []buffer.Handle{out})
		assert.True(t, errors.IsTransient(err))
	})
}

func TestCalculateOutputTypes(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)

	got, err := c.CalculateOutputTypes(map[string]types.DataType{"input1": types.Uint8})
	require.NoError(t, err)
	assert.Equal(t, map[string]types.DataType{"output1": types.Complex64}, got)

	_, err = c.CalculateOutputTypes(map[string]types.DataType{"input1": types.Float32})
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	assert.True(t, errors.IsInvalid(err))
}

func TestRuntimeConfig(t *testing.T) {
	c := newReady(t, 1)
	assert.Equal(t, modulation.BPSK, c.Depth())

	require.NoError(t, c.ApplyConfigUpdate(map[string]any{"modulationdepth": float64(4)}))
	assert.Equal(t, modulation.QAM16, c.Depth())
	assert.Equal(t, map[string]any{"modulationdepth": 4}, c.GetRuntimeConfig())

	for _, changes := range []map[string]any{
		{"modulationdepth": 3},
		{"modulationdepth": "2"},
		{"modulationdepth": 2.5},
		{"depth": 2},
	} {
		err := c.ApplyConfigUpdate(changes)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig, "changes %v", changes)
	}
	assert.Equal(t, modulation.QAM16, c.Depth())
}

func TestLifecycleAndMeta(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	assert.Equal(t, component.StateCreated, c.State())
	require.NoError(t, c.Initialize())
	assert.True(t, errors.IsInvalid(c.Initialize()))

	assert.Equal(t, "modulator", c.Meta().Type)
	assert.True(t, c.InputPorts()[0].Accepts(types.Uint8))
	assert.False(t, c.InputPorts()[0].Accepts(types.Int8))
	assert.True(t, c.OutputPorts()[0].Accepts(types.Complex64))
	assert.Equal(t, []string{"modulationdepth"}, component.RuntimeProperties(c.ConfigSchema()))
}

func TestRegisterAndCreate(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))
	metrics := metric.NewMetricsRegistry()

	comp, err := registry.CreateComponent("qam", types.ComponentConfig{
		Type:   types.ComponentTypeModulator,
		Name:   FactoryName,
		Config: map[string]any{"modulationdepth": 2},
	}, component.Dependencies{MetricsRegistry: metrics})
	require.NoError(t, err)
	require.NoError(t, comp.Initialize())

	in := tu.NewMockBuffer[uint8]("qam.input1", 2)
	out := tu.NewMockBuffer[complex64]("qam.output1", 2)
	require.NoError(t, in.Push([]uint8{0xFF, 0x00}, 0, 0))
	require.NoError(t, comp.Process([]buffer.Handle{in}, []buffer.Handle{out}))

	families, err := metrics.PrometheusRegistry().Gather()
	require.NoError(t, err)
	var symbols float64
	for _, mf := range families {
		if mf.GetName() == "phystreams_modulation_symbols_total" {
			for _, m := range mf.GetMetric() {
				symbols += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 8.0, symbols)

	_, err = registry.CreateComponent("qam-bad", types.ComponentConfig{
		Type:   types.ComponentTypeModulator,
		Name:   FactoryName,
		Config: map[string]any{"modulationdepth": 3},
	}, component.Dependencies{})
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = registry.CreateComponent("qam-wrongtype", types.ComponentConfig{
		Type: types.ComponentTypeProcessor,
		Name: FactoryName,
	}, component.Dependencies{})
	assert.True(t, errors.IsInvalid(err))
}
