package flowengine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// engineMetrics holds Prometheus metrics for flow engine operations.
type engineMetrics struct {
	builds        *prometheus.CounterVec   // By flow and status (success/failure)
	buildDuration *prometheus.HistogramVec // By flow
	steps         *prometheus.CounterVec   // By flow and status
	stepDuration  *prometheus.HistogramVec // By flow
	components    *prometheus.GaugeVec     // By flow

	core *metric.Metrics
}

// newEngineMetrics creates or reuses the flow engine metrics in the registry.
func newEngineMetrics(registry *metric.MetricsRegistry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{core: registry.CoreMetrics()}
	var err error

	if m.builds, err = registry.SharedCounterVec("flow", "builds", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "flow",
		Name:      "builds_total",
		Help:      "Total number of flow build operations",
	}, []string{"flow", "status"}); err != nil {
		return nil, err
	}

	if m.buildDuration, err = registry.SharedHistogramVec("flow", "build_duration", prometheus.HistogramOpts{
		Namespace: "phystreams",
		Subsystem: "flow",
		Name:      "build_duration_seconds",
		Help:      "Flow build duration in seconds",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
	}, []string{"flow"}); err != nil {
		return nil, err
	}

	if m.steps, err = registry.SharedCounterVec("flow", "steps", prometheus.CounterOpts{
		Namespace: "phystreams",
		Subsystem: "flow",
		Name:      "steps_total",
		Help:      "Total number of engine steps",
	}, []string{"flow", "status"}); err != nil {
		return nil, err
	}

	if m.stepDuration, err = registry.SharedHistogramVec("flow", "step_duration", prometheus.HistogramOpts{
		Namespace: "phystreams",
		Subsystem: "flow",
		Name:      "step_duration_seconds",
		Help:      "Engine step duration in seconds",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	}, []string{"flow"}); err != nil {
		return nil, err
	}

	if m.components, err = registry.SharedGaugeVec("flow", "components", prometheus.GaugeOpts{
		Namespace: "phystreams",
		Subsystem: "flow",
		Name:      "components",
		Help:      "Number of components in the flow",
	}, []string{"flow"}); err != nil {
		return nil, err
	}

	return m, nil
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// recordBuild records a flow build.
func (m *engineMetrics) recordBuild(flow string, success bool, duration float64, components int) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(flow, status(success)).Inc()
	m.buildDuration.WithLabelValues(flow).Observe(duration)
	if success {
		m.components.WithLabelValues(flow).Set(float64(components))
	}
}

// recordStep records one engine step.
func (m *engineMetrics) recordStep(flow string, success bool, duration float64) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(flow, status(success)).Inc()
	m.stepDuration.WithLabelValues(flow).Observe(duration)
}

func (m *engineMetrics) coreMetrics() *metric.Metrics {
	if m == nil {
		return nil
	}
	return m.core
}
