package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// MetricsRegistry owns the Prometheus registry of a process. Collectors are
// tracked under an owner and a name ("splitter", "datasets") so that several
// component instances can share one vector and separate their series by label.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

// NewMetricsRegistry creates a registry holding the core flow metrics and the
// Go runtime and process collectors.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
		collectors:         make(map[string]prometheus.Collector),
	}
	r.prometheusRegistry.MustRegister(r.Metrics.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying registry for gathering.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the flow-level metrics.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

func key(owner, name string) string {
	return owner + "." + name
}

// Register adds a collector under owner and name. A key in use, or a
// collector Prometheus already knows, is an invalid registration.
func (r *MetricsRegistry) Register(owner, name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(owner, name)
	if _, exists := r.collectors[k]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: metric %s registered twice", errors.ErrInvalidConfig, k),
			"MetricsRegistry", "Register", "duplicate check")
	}
	if err := r.prometheusRegistry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			return errors.WrapInvalid(err, "MetricsRegistry", "Register", "prometheus registration of "+k)
		}
		return errors.WrapFatal(err, "MetricsRegistry", "Register", "prometheus registration of "+k)
	}
	r.collectors[k] = c
	return nil
}

// Unregister removes the collector under owner and name.
func (r *MetricsRegistry) Unregister(owner, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(owner, name)
	c, exists := r.collectors[k]
	if !exists || !r.prometheusRegistry.Unregister(c) {
		return false
	}
	delete(r.collectors, k)
	return true
}

// sharedVec returns the vector registered under owner and name, creating it
// with create on first use.
func sharedVec[V prometheus.Collector](r *MetricsRegistry, owner, name string, create func() V) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero V
	k := key(owner, name)
	c, ok := r.collectors[k]
	if !ok {
		c = create()
		if err := r.prometheusRegistry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !stderrors.As(err, &are) {
				return zero, errors.WrapFatal(err, "MetricsRegistry", "sharedVec", "prometheus registration of "+k)
			}
			c = are.ExistingCollector
		}
		r.collectors[k] = c
	}
	vec, ok := c.(V)
	if !ok {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: metric %s is a %T", errors.ErrTypeMismatch, k, c),
			"MetricsRegistry", "sharedVec", "collector kind check")
	}
	return vec, nil
}

// SharedCounterVec returns the counter vector registered under owner and
// name, creating it on first use.
func (r *MetricsRegistry) SharedCounterVec(
	owner, name string, opts prometheus.CounterOpts, labels []string,
) (*prometheus.CounterVec, error) {
	return sharedVec(r, owner, name, func() *prometheus.CounterVec { return prometheus.NewCounterVec(opts, labels) })
}

// SharedGaugeVec is the gauge form of SharedCounterVec.
func (r *MetricsRegistry) SharedGaugeVec(
	owner, name string, opts prometheus.GaugeOpts, labels []string,
) (*prometheus.GaugeVec, error) {
	return sharedVec(r, owner, name, func() *prometheus.GaugeVec { return prometheus.NewGaugeVec(opts, labels) })
}

// SharedHistogramVec is the histogram form of SharedCounterVec.
func (r *MetricsRegistry) SharedHistogramVec(
	owner, name string, opts prometheus.HistogramOpts, labels []string,
) (*prometheus.HistogramVec, error) {
	return sharedVec(r, owner, name, func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(opts, labels)
	})
}
