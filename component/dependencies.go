package component

import (
	"log/slog"

	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// Dependencies provides all external dependencies needed by components.
type Dependencies struct {
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	InstanceName    string                  // Set by Registry.CreateComponent
}

// MetricLabel returns the instance name used to label metric series.
func (d *Dependencies) MetricLabel(fallback string) string {
	if d.InstanceName != "" {
		return d.InstanceName
	}
	return fallback
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
