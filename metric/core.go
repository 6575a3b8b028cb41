package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the flow-level metrics shared by every component
type Metrics struct {
	ComponentState     *prometheus.GaugeVec
	ProcessInvocations *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	Retries            *prometheus.CounterVec
}

// NewMetrics creates the flow-level metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "phystreams",
				Subsystem: "component",
				Name:      "state",
				Help:      "Component lifecycle state (0=created, 1=initialized, 2=failed)",
			},
			[]string{"component"},
		),

		ProcessInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "phystreams",
				Subsystem: "component",
				Name:      "process_total",
				Help:      "Total number of process invocations",
			},
			[]string{"component", "status"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "phystreams",
				Subsystem: "component",
				Name:      "process_duration_seconds",
				Help:      "Duration of one process invocation in seconds",
				Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"component"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "phystreams",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by classification",
			},
			[]string{"component", "class"},
		),

		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "phystreams",
				Subsystem: "engine",
				Name:      "retries_total",
				Help:      "Total number of retried process invocations",
			},
			[]string{"component"},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.ComponentState,
		c.ProcessInvocations,
		c.ProcessingDuration,
		c.ErrorsTotal,
		c.Retries,
	}
}

// RecordComponentState updates the lifecycle state of a component
func (c *Metrics) RecordComponentState(component string, state int) {
	c.ComponentState.WithLabelValues(component).Set(float64(state))
}

// RecordProcess records one process invocation and its duration
func (c *Metrics) RecordProcess(component string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.ProcessInvocations.WithLabelValues(component, status).Inc()
	c.ProcessingDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordError increments the error counter for the error class
func (c *Metrics) RecordError(component, class string) {
	c.ErrorsTotal.WithLabelValues(component, class).Inc()
}

// RecordRetry increments the retry counter
func (c *Metrics) RecordRetry(component string) {
	c.Retries.WithLabelValues(component).Inc()
}
