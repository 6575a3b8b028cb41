package buffer

import (
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// bufferMetrics holds Prometheus metrics for one stream buffer. The vectors
// are shared by every buffer on the registry and curried with the buffer name.
type bufferMetrics struct {
	datasets  prometheus.Counter
	samples   prometheus.Counter
	overflows prometheus.Counter
	drops     prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

// newBufferMetrics creates or reuses buffer metric vectors on the registry.
func newBufferMetrics(registry *metric.MetricsRegistry, name string) (*bufferMetrics, error) {
	labels := []string{"buffer"}

	datasets, err := registry.SharedCounterVec("buffer", "datasets", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "datasets_total",
		Help:      "Total number of DataSets published to the buffer",
	}, labels)
	if err != nil {
		return nil, err
	}
	samples, err := registry.SharedCounterVec("buffer", "samples", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "samples_total",
		Help:      "Total number of samples published to the buffer",
	}, labels)
	if err != nil {
		return nil, err
	}
	overflows, err := registry.SharedCounterVec("buffer", "overflows", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "overflows_total",
		Help:      "Total number of write attempts against a full buffer",
	}, labels)
	if err != nil {
		return nil, err
	}
	drops, err := registry.SharedCounterVec("buffer", "drops", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "drops_total",
		Help:      "Total number of DataSets dropped due to overflow",
	}, labels)
	if err != nil {
		return nil, err
	}
	size, err := registry.SharedGaugeVec("buffer", "size", prometheus.GaugeOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "size",
		Help:      "Current number of DataSets queued",
	}, labels)
	if err != nil {
		return nil, err
	}
	utilization, err := registry.SharedGaugeVec("buffer", "utilization", prometheus.GaugeOpts{
		Namespace: "phystreams",
		Subsystem: "buffer",
		Name:      "utilization",
		Help:      "Buffer utilization as a fraction of its depth (0.0 to 1.0)",
	}, labels)
	if err != nil {
		return nil, err
	}

	return &bufferMetrics{
		datasets:    datasets.WithLabelValues(name),
		samples:     samples.WithLabelValues(name),
		overflows:   overflows.WithLabelValues(name),
		drops:       drops.WithLabelValues(name),
		size:        size.WithLabelValues(name),
		utilization: utilization.WithLabelValues(name),
	}, nil
}

// recordPublish counts a released DataSet and updates size/utilization.
func (m *bufferMetrics) recordPublish(samples, size, capacity int) {
	if m == nil {
		return
	}
	m.datasets.Inc()
	m.samples.Add(float64(samples))
	m.updateSize(size, capacity)
}

// recordOverflow increments the overflow counter.
func (m *bufferMetrics) recordOverflow() {
	if m == nil {
		return
	}
	m.overflows.Inc()
}

// recordDrop increments the drop counter.
func (m *bufferMetrics) recordDrop() {
	if m == nil {
		return
	}
	m.drops.Inc()
}

// updateSize sets the current buffer size and utilization.
func (m *bufferMetrics) updateSize(size, capacity int) {
	if m == nil {
		return
	}
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
