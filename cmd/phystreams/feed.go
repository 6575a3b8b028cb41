package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"

	"golang.org/x/time/rate"

	flowengine "github.com/andrepuschmann/iris-modules-ospecorr/engine"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// portCount accumulates what one open output produced.
type portCount struct {
	Datasets int
	Samples  int
}

// pacer returns a limiter releasing one block per BlockSize/SampleRate
// seconds, or nil when the flow runs as fast as it can.
func pacer(cfg *CLIConfig) *rate.Limiter {
	if !cfg.Realtime || cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.SampleRate/float64(cfg.BlockSize)), 1)
}

// runFlow feeds every open input with pseudo-random blocks, steps the engine
// until the flow is idle and empties the open outputs after each iteration.
func runFlow(ctx context.Context, eng *flowengine.Engine, cfg *CLIConfig, logger *slog.Logger) (map[string]portCount, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	limiter := pacer(cfg)

	inputs := eng.OpenInputs()
	inputNames := sortedNames(inputs)
	outputNames := sortedNames(eng.OpenOutputs())
	counts := make(map[string]portCount, len(outputNames))

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return counts, err
			}
		}

		timestamp := float64(i*cfg.BlockSize) / cfg.SampleRate
		for _, endpoint := range inputNames {
			if err := injectRandom(eng, endpoint, inputs[endpoint], rng, cfg.BlockSize, cfg.SampleRate, timestamp); err != nil {
				return counts, err
			}
		}

		for {
			processed, err := eng.Step(ctx)
			if err != nil {
				return counts, err
			}
			if processed == 0 {
				break
			}
		}

		for _, endpoint := range outputNames {
			datasets, samples, err := eng.DiscardOutput(endpoint)
			if err != nil {
				return counts, err
			}
			c := counts[endpoint]
			c.Datasets += datasets
			c.Samples += samples
			counts[endpoint] = c
		}
		logger.Debug("Iteration complete", "iteration", i)
	}
	return counts, nil
}

func sortedNames(m map[string]types.DataType) []string {
	return slices.Sorted(maps.Keys(m))
}

// injectRandom writes one block of pseudo-random samples of type dt.
func injectRandom(
	eng *flowengine.Engine, endpoint string, dt types.DataType,
	rng *rand.Rand, n int, sampleRate, timestamp float64,
) error {
	switch dt {
	case types.Uint8:
		return flowengine.Inject(eng, endpoint, randomBlock[uint8](rng, n), sampleRate, timestamp)
	case types.Uint16:
		return flowengine.Inject(eng, endpoint, randomBlock[uint16](rng, n), sampleRate, timestamp)
	case types.Uint32:
		return flowengine.Inject(eng, endpoint, randomBlock[uint32](rng, n), sampleRate, timestamp)
	case types.Uint64:
		return flowengine.Inject(eng, endpoint, randomBlock[uint64](rng, n), sampleRate, timestamp)
	case types.Int8:
		return flowengine.Inject(eng, endpoint, randomBlock[int8](rng, n), sampleRate, timestamp)
	case types.Int16:
		return flowengine.Inject(eng, endpoint, randomBlock[int16](rng, n), sampleRate, timestamp)
	case types.Int32:
		return flowengine.Inject(eng, endpoint, randomBlock[int32](rng, n), sampleRate, timestamp)
	case types.Int64:
		return flowengine.Inject(eng, endpoint, randomBlock[int64](rng, n), sampleRate, timestamp)
	case types.Float32:
		return flowengine.Inject(eng, endpoint, randomBlock[float32](rng, n), sampleRate, timestamp)
	case types.Float64:
		return flowengine.Inject(eng, endpoint, randomBlock[float64](rng, n), sampleRate, timestamp)
	case types.LongDoubleType:
		return flowengine.Inject(eng, endpoint, randomBlock[types.LongDouble](rng, n), sampleRate, timestamp)
	case types.Complex64:
		return flowengine.Inject(eng, endpoint, randomBlock[complex64](rng, n), sampleRate, timestamp)
	case types.Complex128:
		return flowengine.Inject(eng, endpoint, randomBlock[complex128](rng, n), sampleRate, timestamp)
	case types.ComplexLongDoubleType:
		return flowengine.Inject(eng, endpoint, randomBlock[types.ComplexLongDouble](rng, n), sampleRate, timestamp)
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnsupportedDataType, dt),
			"main", "injectRandom", "generate "+endpoint)
	}
}

// randomBlock returns n samples: integers over their full range, real and
// imaginary parts uniform in [-1, 1).
func randomBlock[T types.Element](rng *rand.Rand, n int) []T {
	out := make([]T, n)
	unit := func() float64 { return rng.Float64()*2 - 1 }

	switch s := any(out).(type) {
	case []uint8:
		for i := range s {
			s[i] = uint8(rng.Uint32())
		}
	case []uint16:
		for i := range s {
			s[i] = uint16(rng.Uint32())
		}
	case []uint32:
		for i := range s {
			s[i] = rng.Uint32()
		}
	case []uint64:
		for i := range s {
			s[i] = rng.Uint64()
		}
	case []int8:
		for i := range s {
			s[i] = int8(rng.Uint32())
		}
	case []int16:
		for i := range s {
			s[i] = int16(rng.Uint32())
		}
	case []int32:
		for i := range s {
			s[i] = int32(rng.Uint32())
		}
	case []int64:
		for i := range s {
			s[i] = int64(rng.Uint64())
		}
	case []float32:
		for i := range s {
			s[i] = float32(unit())
		}
	case []float64:
		for i := range s {
			s[i] = unit()
		}
	case []types.LongDouble:
		for i := range s {
			s[i] = types.LongDouble(unit())
		}
	case []complex64:
		for i := range s {
			s[i] = complex(float32(unit()), float32(unit()))
		}
	case []complex128:
		for i := range s {
			s[i] = complex(unit(), unit())
		}
	case []types.ComplexLongDouble:
		for i := range s {
			s[i] = types.ComplexLongDouble(complex(unit(), unit()))
		}
	}
	return out
}
