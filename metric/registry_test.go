package metric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/health"
)

func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})
	require.NoError(t, registry.Register("splitter", "test_counter", counter))
	counter.Inc()

	assert.True(t, gatheredNames(t, registry)["test_counter"])
}

func TestMetricsRegistry_RegisterGaugeAndHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "A test gauge"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_histogram", Help: "A test histogram"})
	require.NoError(t, registry.Register("splitter", "test_gauge", gauge))
	require.NoError(t, registry.Register("splitter", "test_histogram", histogram))
	gauge.Set(42)
	histogram.Observe(0.5)

	names := gatheredNames(t, registry)
	assert.True(t, names["test_gauge"])
	assert.True(t, names["test_histogram"])
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "dup_total", Help: "dup"}, []string{"a"})
	second := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "dup_total", Help: "dup"}, []string{"a"})

	require.NoError(t, registry.Register("splitter", "dup", first))

	err := registry.Register("splitter", "dup", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	// Same prometheus name under another key conflicts inside prometheus.
	err = registry.Register("other", "dup", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_SharedVectors(t *testing.T) {
	registry := NewMetricsRegistry()
	opts := prometheus.CounterOpts{Name: "shared_total", Help: "shared"}

	first, err := registry.SharedCounterVec("splitter", "shared", opts, []string{"component"})
	require.NoError(t, err)
	second, err := registry.SharedCounterVec("splitter", "shared", opts, []string{"component"})
	require.NoError(t, err)
	assert.Same(t, first, second)

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("b").Add(2)
	assert.Equal(t, 1.0, testutil.ToFloat64(first.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(first.WithLabelValues("b")))

	_, err = registry.SharedGaugeVec("splitter", "shared", prometheus.GaugeOpts{Name: "x", Help: "x"}, nil)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)

	hist, err := registry.SharedHistogramVec("splitter", "latency",
		prometheus.HistogramOpts{Name: "latency_seconds", Help: "latency"}, []string{"component"})
	require.NoError(t, err)
	hist.WithLabelValues("a").Observe(0.1)

	gauge, err := registry.SharedGaugeVec("splitter", "depth",
		prometheus.GaugeOpts{Name: "depth", Help: "depth"}, []string{"component"})
	require.NoError(t, err)
	gauge.WithLabelValues("a").Set(3)
}

func TestMetricsRegistry_SharedVectorsConcurrent(t *testing.T) {
	registry := NewMetricsRegistry()
	opts := prometheus.CounterOpts{Name: "concurrent_total", Help: "concurrent"}

	var wg sync.WaitGroup
	vecs := make([]*prometheus.CounterVec, 8)
	for i := range vecs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := registry.SharedCounterVec("splitter", "concurrent", opts, []string{"component"})
			assert.NoError(t, err)
			vecs[i] = vec
		}(i)
	}
	wg.Wait()

	for _, vec := range vecs[1:] {
		assert.Same(t, vecs[0], vec)
	}
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gone_total", Help: "gone"})
	require.NoError(t, registry.Register("splitter", "gone", counter))

	assert.True(t, registry.Unregister("splitter", "gone"))
	assert.False(t, registry.Unregister("splitter", "gone"))
	assert.False(t, gatheredNames(t, registry)["gone_total"])
}

func TestCoreMetrics_Record(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordProcess("split", nil, time.Millisecond)
	core.RecordProcess("split", errors.ErrBufferFull, time.Millisecond)
	core.RecordError("split", "transient")
	core.RecordRetry("split")
	core.RecordComponentState("split", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(core.ProcessInvocations.WithLabelValues("split", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.ProcessInvocations.WithLabelValues("split", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.ErrorsTotal.WithLabelValues("split", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.Retries.WithLabelValues("split")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.ComponentState.WithLabelValues("split")))
}

func TestServer_Handler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordRetry("split")
	server := NewServer(0, "", registry)

	assert.Equal(t, "http://localhost:9090/metrics", server.Address())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "phystreams_engine_retries_total"))

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	server := NewServer(39517, "/metrics", NewMetricsRegistry())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(server.Address())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	assert.Error(t, server.Serve(ctx), "second Serve while running")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_ServeWithoutRegistry(t *testing.T) {
	err := NewServer(0, "", nil).Serve(context.Background())
	assert.True(t, errors.IsFatal(err))
}

func TestServer_HealthCheck(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry())

	current := health.NewHealthy("flow", "All components are healthy")
	server.SetHealthCheck(func() health.Status { return current })

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "flow", got.Component)
	assert.True(t, got.IsHealthy())

	current = health.NewUnhealthy("flow", "1 component is unhealthy")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
