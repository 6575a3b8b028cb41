package buffer

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// Option configures buffer behavior using the functional options pattern.
type Option func(*bufferOptions)

// bufferOptions holds internal configuration for buffer instances.
// Statistics are always collected and are not an option.
type bufferOptions struct {
	overflowPolicy OverflowPolicy
	metricsReg     *metric.MetricsRegistry
}

// WithOverflowPolicy sets the overflow behavior for the buffer.
// Defaults to Block if not specified.
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return func(opts *bufferOptions) {
		opts.overflowPolicy = policy
	}
}

// WithMetrics exports buffer statistics as Prometheus metrics labelled with
// the buffer name. A nil registry is ignored.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(opts *bufferOptions) {
		if registry != nil {
			opts.metricsReg = registry
		}
	}
}

func applyOptions(options ...Option) *bufferOptions {
	opts := &bufferOptions{overflowPolicy: Block}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
