package modulation

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// modulatorMetrics holds Prometheus metrics for one Modulator. All methods are
// nil-safe.
type modulatorMetrics struct {
	symbols  *prometheus.CounterVec
	capacity *prometheus.CounterVec
	name     string
}

func newModulatorMetrics(registry *metric.MetricsRegistry, name string) (*modulatorMetrics, error) {
	symbols, err := registry.SharedCounterVec("modulation", "symbols", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "modulation",
		Name:      "symbols_total",
		Help:      "Total number of symbols produced",
	}, []string{"modulator", "scheme"})
	if err != nil {
		return nil, err
	}

	capacity, err := registry.SharedCounterVec("modulation", "capacity_mismatch", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "modulation",
		Name:      "capacity_mismatch_total",
		Help:      "Calls whose output capacity differed from the required symbol count",
	}, []string{"modulator", "scheme", "kind"})
	if err != nil {
		return nil, err
	}

	return &modulatorMetrics{symbols: symbols, capacity: capacity, name: name}, nil
}

func (m *modulatorMetrics) recordSymbols(d Depth, n int) {
	if m == nil {
		return
	}
	m.symbols.WithLabelValues(m.name, d.String()).Add(float64(n))
}

func (m *modulatorMetrics) recordSurplus(d Depth) {
	if m == nil {
		return
	}
	m.capacity.WithLabelValues(m.name, d.String(), "surplus").Inc()
}

func (m *modulatorMetrics) recordShortfall(d Depth) {
	if m == nil {
		return
	}
	m.capacity.WithLabelValues(m.name, d.String(), "shortfall").Inc()
}
