package splitter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// splitterMetrics holds Prometheus metrics for one splitter instance.
type splitterMetrics struct {
	datasets    *prometheus.CounterVec
	samples     *prometheus.CounterVec
	activePorts *prometheus.GaugeVec
	instance    string
}

func newSplitterMetrics(registry *metric.MetricsRegistry, instance string) (*splitterMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	datasets, err := registry.SharedCounterVec("splitter", "datasets", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "splitter",
		Name:      "datasets_total",
		Help:      "Total number of input DataSets routed",
	}, []string{"instance", "type"})
	if err != nil {
		return nil, err
	}

	samples, err := registry.SharedCounterVec("splitter", "samples", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "splitter",
		Name:      "samples_written_total",
		Help:      "Total number of samples written across all outputs",
	}, []string{"instance"})
	if err != nil {
		return nil, err
	}

	activePorts, err := registry.SharedGaugeVec("splitter", "active_ports", prometheus.GaugeOpts{
		Namespace: "phystreams",
		Subsystem: "splitter",
		Name:      "active_ports",
		Help:      "Number of outputs currently receiving copies",
	}, []string{"instance"})
	if err != nil {
		return nil, err
	}

	return &splitterMetrics{
		datasets:    datasets,
		samples:     samples,
		activePorts: activePorts,
		instance:    instance,
	}, nil
}

func (m *splitterMetrics) recordRouted(dataType string, samples, copies int) {
	if m == nil {
		return
	}
	m.datasets.WithLabelValues(m.instance, dataType).Inc()
	m.samples.WithLabelValues(m.instance).Add(float64(samples * copies))
}

func (m *splitterMetrics) setActive(n int) {
	if m == nil {
		return
	}
	m.activePorts.WithLabelValues(m.instance).Set(float64(n))
}
