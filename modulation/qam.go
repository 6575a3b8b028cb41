package modulation

import (
	"fmt"
	"log/slog"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// Modulator maps packed bytes to constellation symbols. It holds no signal
// state, so one Modulator may be shared by any number of goroutines.
type Modulator struct {
	logger  *slog.Logger
	metrics *modulatorMetrics
}

// Option configures a Modulator.
type Option func(*modulatorOptions)

type modulatorOptions struct {
	logger     *slog.Logger
	registry   *metric.MetricsRegistry
	metricName string
}

// WithLogger sets the logger used for capacity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *modulatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exports symbol and capacity counters labelled with name.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(o *modulatorOptions) {
		o.registry = registry
		o.metricName = name
	}
}

// New returns a Modulator that logs through logger and records no metrics.
// A nil logger means slog.Default.
func New(logger *slog.Logger) *Modulator {
	return &Modulator{logger: logger}
}

// NewModulator creates a Modulator. It fails only when metrics cannot be
// registered.
func NewModulator(options ...Option) (*Modulator, error) {
	opts := &modulatorOptions{logger: slog.Default(), metricName: "default"}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	m := New(opts.logger)
	if opts.registry != nil {
		metrics, err := newModulatorMetrics(opts.registry, opts.metricName)
		if err != nil {
			return nil, errors.Wrap(err, "Modulator", "NewModulator", "metrics registration")
		}
		m.metrics = metrics
	}
	return m, nil
}

var defaultModulator = &Modulator{}

// Modulate maps in to symbols using the default logger and no metrics.
func Modulate(in []byte, out []complex64, depth int) (int, error) {
	return defaultModulator.Modulate(in, out, depth)
}

// RequiredSymbols returns how many symbols n bytes produce at depth. The depth
// is normalized first.
func RequiredSymbols(n int, depth int) int {
	return n * 8 / int(NormalizeDepth(depth))
}

// Modulate writes len(in)*8/depth symbols to out and returns how many were
// written. Bits are consumed most significant first. Depths other than 1, 2
// and 4 are treated as 1.
//
// If out is too small nothing is written and an invalid-class error wrapping
// errors.ErrInsufficientCapacity is returned. If out is larger than needed a
// warning is logged and the surplus is left untouched.
func (m *Modulator) Modulate(in []byte, out []complex64, depth int) (int, error) {
	d := NormalizeDepth(depth)
	required := len(in) * 8 / int(d)

	if len(out) < required {
		m.metrics.recordShortfall(d)
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: have %d symbols, need %d", errors.ErrInsufficientCapacity, len(out), required),
			"Modulator", "Modulate", "capacity check")
	}
	if len(out) > required {
		m.metrics.recordSurplus(d)
		m.log().Warn("Output size larger than required for modulate",
			"capacity", len(out),
			"required", required,
			"depth", int(d))
	}

	points := Constellation(d).points
	k := 0
	switch d {
	case QPSK:
		for _, b := range in {
			for j := 3; j >= 0; j-- {
				out[k] = points[(b>>(j*2))&0x3]
				k++
			}
		}
	case QAM16:
		for _, b := range in {
			out[k] = points[b>>4]
			out[k+1] = points[b&0xF]
			k += 2
		}
	default:
		for _, b := range in {
			for j := 7; j >= 0; j-- {
				out[k] = points[(b>>j)&0x1]
				k++
			}
		}
	}

	m.metrics.recordSymbols(d, k)
	return k, nil
}

func (m *Modulator) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}
