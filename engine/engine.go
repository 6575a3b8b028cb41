package flowengine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/component/flowgraph"
	"github.com/andrepuschmann/iris-modules-ospecorr/config"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/health"
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/retry"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	registry   *metric.MetricsRegistry
	initialize bool
}

// WithLogger sets the logger used by the engine and passed to components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables engine, component and buffer metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// node is one component instance with the stream handles wired to its ports,
// in port declaration order.
type node struct {
	name    string
	comp    component.PhyComponent
	inputs  []buffer.Handle
	outputs []buffer.Handle
}

type hasData interface{ HasData() bool }

// ready reports whether every input has a DataSet queued.
func (n *node) ready() bool {
	for _, h := range n.inputs {
		if d, ok := h.(hasData); !ok || !d.HasData() {
			return false
		}
	}
	return true
}

type readCounter interface{ Stats() *buffer.Statistics }

// readReleases returns how many DataSets each input has handed out so far.
// Inputs without statistics report -1.
func (n *node) readReleases() []int64 {
	counts := make([]int64, len(n.inputs))
	for i, h := range n.inputs {
		counts[i] = -1
		if rc, ok := h.(readCounter); ok {
			counts[i] = rc.Stats().ReadReleases()
		}
	}
	return counts
}

// consumedSince reports whether any input released a DataSet after before
// was taken.
func (n *node) consumedSince(before []int64) bool {
	return !slices.Equal(before, n.readReleases())
}

// Engine runs a flow: it creates the components through the registry, wires
// them with typed stream buffers and invokes them serially in dependency
// order.
type Engine struct {
	name     string
	runID    string
	flow     *config.FlowConfig
	registry *component.Registry
	graph    *flowgraph.FlowGraph
	order    []string
	nodes    map[string]*node
	created  []string

	portTypes   map[string]types.DataType // "component.port" for every port
	openInputs  map[string]buffer.Handle
	openOutputs map[string]buffer.Handle
	streams     map[string]buffer.Handle

	retry   errors.RetryConfig
	logger  *slog.Logger
	metrics *engineMetrics
	health  *health.Monitor

	mu     sync.Mutex
	closed bool
}

// New builds and initializes the flow. Components are created through the
// registry and registered under their instance names until Close.
func New(flow *config.FlowConfig, registry *component.Registry, opts ...Option) (*Engine, error) {
	o := &options{logger: slog.Default(), initialize: true}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return build(flow, registry, o)
}

func build(flow *config.FlowConfig, registry *component.Registry, o *options) (*Engine, error) {
	if flow == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Engine", "New", "flow check")
	}
	if registry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Engine", "New", "registry check")
	}

	metrics, err := newEngineMetrics(o.registry)
	if err != nil {
		o.logger.Error("Failed to initialize flow engine metrics", "error", err)
		metrics = nil
	}

	runID := uuid.NewString()
	e := &Engine{
		name:        flow.Name,
		runID:       runID,
		flow:        flow.Clone(),
		registry:    registry,
		graph:       flowgraph.NewFlowGraph(),
		nodes:       make(map[string]*node),
		portTypes:   make(map[string]types.DataType),
		openInputs:  make(map[string]buffer.Handle),
		openOutputs: make(map[string]buffer.Handle),
		streams:     make(map[string]buffer.Handle),
		logger:      o.logger.With("flow", flow.Name, "run_id", runID),
		metrics:     metrics,
		health:      health.NewMonitor(),
	}
	e.flow.Engine = e.flow.Engine.WithDefaults()
	e.retry = e.flow.Engine.RetryConfig()

	start := time.Now()
	err = e.assemble(o)
	e.metrics.recordBuild(e.name, err == nil, time.Since(start).Seconds(), len(e.nodes))
	if err != nil {
		e.release()
		return nil, err
	}

	e.logger.Info("Flow built",
		"components", len(e.order),
		"order", e.order,
		"open_inputs", len(e.openInputs),
		"open_outputs", len(e.openOutputs))
	return e, nil
}

// assemble runs the build stages in order.
func (e *Engine) assemble(o *options) error {
	if err := e.flow.Validate(); err != nil {
		return errors.Wrap(err, "Engine", "New", "flow validation")
	}
	if err := e.createComponents(o.registry); err != nil {
		return err
	}
	if err := e.connect(); err != nil {
		return err
	}

	order, err := e.graph.TopologicalOrder()
	if err != nil {
		return errors.Wrap(err, "Engine", "New", "ordering")
	}
	e.order = order

	if err := e.negotiateTypes(); err != nil {
		return err
	}
	if err := e.createStreams(o.registry); err != nil {
		return err
	}
	if o.initialize {
		return e.initialize()
	}
	return nil
}

func (e *Engine) createComponents(metricsRegistry *metric.MetricsRegistry) error {
	components := e.flow.EnabledComponents()
	names := slices.Sorted(maps.Keys(components))

	for _, name := range names {
		deps := component.Dependencies{
			MetricsRegistry: metricsRegistry,
			Logger:          e.logger,
		}
		comp, err := e.registry.CreateComponent(name, components[name], deps)
		if err != nil {
			return errors.Wrap(err, "Engine", "New", "create "+name)
		}
		e.created = append(e.created, name)
		if err := e.graph.AddComponentNode(name, comp); err != nil {
			return errors.Wrap(err, "Engine", "New", "add "+name)
		}
		e.nodes[name] = &node{name: name, comp: comp}
		e.health.SetState(name, health.StateCreated)
	}
	return nil
}

func (e *Engine) connect() error {
	for _, link := range e.flow.Links {
		from, err := config.ParseEndpoint(link.From)
		if err != nil {
			return errors.Wrap(err, "Engine", "New", "link "+link.String())
		}
		to, err := config.ParseEndpoint(link.To)
		if err != nil {
			return errors.Wrap(err, "Engine", "New", "link "+link.String())
		}
		if err := e.graph.Connect(portRef(from), portRef(to)); err != nil {
			return errors.Wrap(err, "Engine", "New", "link "+link.String())
		}
	}
	return nil
}

func portRef(ep config.Endpoint) flowgraph.ComponentPortRef {
	return flowgraph.ComponentPortRef{ComponentName: ep.Component, PortName: ep.Port}
}

// negotiateTypes walks the components in order, feeding each the types of its
// inputs (from upstream outputs or the flow's declared inputs) and recording
// the output types it reports.
func (e *Engine) negotiateTypes() error {
	declared := make(map[string]bool, len(e.flow.Inputs))
	nodes := e.graph.GetNodes()

	for _, name := range e.order {
		gn := nodes[name]
		inputTypes := make(map[string]types.DataType, len(gn.InputPorts))

		for _, port := range gn.InputPorts {
			ref := flowgraph.ComponentPortRef{ComponentName: name, PortName: port.Name}
			var dt types.DataType
			if up, linked := e.graph.Upstream(ref); linked {
				dt = e.portTypes[up.String()]
			} else {
				var ok bool
				dt, ok = e.flow.Inputs[ref.String()]
				if !ok {
					return errors.WrapInvalid(
						fmt.Errorf("%w: open input %s has no declared element type", errors.ErrMissingConfig, ref),
						"Engine", "New", "type negotiation")
				}
				declared[ref.String()] = true
			}
			if !slices.Contains(port.DataTypes, dt) {
				return errors.WrapInvalid(
					fmt.Errorf("%w: %s does not accept %s", errors.ErrTypeMismatch, ref, dt),
					"Engine", "New", "type negotiation")
			}
			inputTypes[port.Name] = dt
			e.portTypes[ref.String()] = dt
		}

		outputTypes, err := gn.Component.CalculateOutputTypes(inputTypes)
		if err != nil {
			return errors.Wrap(err, "Engine", "New", "output types of "+name)
		}
		for _, port := range gn.OutputPorts {
			ref := flowgraph.ComponentPortRef{ComponentName: name, PortName: port.Name}
			dt, ok := outputTypes[port.Name]
			if !ok || !slices.Contains(port.DataTypes, dt) {
				return errors.WrapInvalid(
					fmt.Errorf("%w: %s reported no usable type for %s", errors.ErrTypeMismatch, name, ref),
					"Engine", "New", "type negotiation")
			}
			e.portTypes[ref.String()] = dt
		}
	}

	for endpoint := range e.flow.Inputs {
		if !declared[endpoint] {
			return errors.WrapInvalid(
				fmt.Errorf("%w: declared input %s is not an open input port", errors.ErrPortMismatch, endpoint),
				"Engine", "New", "input check")
		}
	}
	return nil
}

// createStreams makes one buffer per link, per open input and per open output.
// Links and open inputs reject when full, since the engine drains them every
// step. Open outputs use the configured policy.
func (e *Engine) createStreams(metricsRegistry *metric.MetricsRegistry) error {
	depth := e.flow.Engine.BufferDepth
	openPolicy, err := buffer.ParseOverflowPolicy(e.flow.Engine.OpenOutputPolicy)
	if err != nil {
		return errors.Wrap(err, "Engine", "New", "open output policy")
	}

	newStream := func(ref flowgraph.ComponentPortRef, policy buffer.OverflowPolicy) (buffer.Handle, error) {
		h, err := buffer.NewHandle(e.portTypes[ref.String()], ref.String(), depth,
			buffer.WithOverflowPolicy(policy), buffer.WithMetrics(metricsRegistry))
		if err != nil {
			return nil, errors.Wrap(err, "Engine", "New", "stream "+ref.String())
		}
		e.streams[ref.String()] = h
		return h, nil
	}

	nodes := e.graph.GetNodes()
	linked := make(map[flowgraph.ComponentPortRef]buffer.Handle)

	for _, name := range e.order {
		for _, port := range nodes[name].OutputPorts {
			ref := flowgraph.ComponentPortRef{ComponentName: name, PortName: port.Name}
			down, isLinked := e.graph.Downstream(ref)
			policy := buffer.Reject
			if !isLinked {
				policy = openPolicy
			}
			h, err := newStream(ref, policy)
			if err != nil {
				return err
			}
			if isLinked {
				linked[down] = h
			} else {
				e.openOutputs[ref.String()] = h
			}
			e.nodes[name].outputs = append(e.nodes[name].outputs, h)
		}
	}

	for _, name := range e.order {
		for _, port := range nodes[name].InputPorts {
			ref := flowgraph.ComponentPortRef{ComponentName: name, PortName: port.Name}
			h, isLinked := linked[ref]
			if !isLinked {
				if h, err = newStream(ref, buffer.Reject); err != nil {
					return err
				}
				e.openInputs[ref.String()] = h
			}
			e.nodes[name].inputs = append(e.nodes[name].inputs, h)
		}
	}
	return nil
}

func (e *Engine) initialize() error {
	core := e.metrics.coreMetrics()
	for _, name := range e.order {
		comp := e.nodes[name].comp
		if err := comp.Initialize(); err != nil {
			e.health.SetState(name, health.StateFailed)
			if core != nil {
				core.RecordComponentState(name, int(component.StateFailed))
			}
			return errors.Wrap(err, "Engine", "New", "initialize "+name)
		}
		e.health.SetState(name, health.StateInitialized)
		if core != nil {
			core.RecordComponentState(name, int(component.StateInitialized))
		}
		e.logger.Debug("Component initialized", "component", name, "type", comp.Meta().Name)
	}
	return nil
}

// Step invokes, in dependency order, every component whose inputs all hold a
// DataSet. Transient failures are retried with backoff while the component
// still has input; other failures stop the step. It returns the number of
// successful Process calls.
func (e *Engine) Step(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.WrapFatal(errors.ErrNotInitialized, "Engine", "Step", "engine closed")
	}

	start := time.Now()
	processed := 0
	for _, name := range e.order {
		n := e.nodes[name]
		if !n.ready() {
			continue
		}
		if err := e.process(ctx, n); err != nil {
			e.metrics.recordStep(e.name, false, time.Since(start).Seconds())
			return processed, errors.Wrap(err, "Engine", "Step", "process "+name)
		}
		processed++
	}
	e.metrics.recordStep(e.name, true, time.Since(start).Seconds())
	return processed, nil
}

func (e *Engine) process(ctx context.Context, n *node) error {
	core := e.metrics.coreMetrics()
	attempts := 0
	var lastErr error
	before := n.readReleases()

	err := retry.DoAttempt(ctx, e.retry.ToRetryConfig(), func(attempt int) error {
		attempts = attempt
		if attempt > 1 {
			// A retry must see the same DataSet the failed attempt saw.
			if n.consumedSince(before) || !n.ready() {
				return retry.NonRetryable(lastErr)
			}
			if core != nil {
				core.RecordRetry(n.name)
			}
			e.logger.Debug("Retrying process", "component", n.name, "attempt", attempt, "error", lastErr)
		}

		began := time.Now()
		err := n.comp.Process(n.inputs, n.outputs)
		if core != nil {
			core.RecordProcess(n.name, err, time.Since(began))
		}
		if err == nil {
			e.health.RecordSuccess(n.name)
			return nil
		}

		lastErr = err
		e.health.RecordFailure(n.name, err, errors.IsFatal(err))
		if core != nil {
			core.RecordError(n.name, errors.Classify(err).String())
		}
		if !e.retry.ShouldRetry(err, attempt-1) {
			return retry.NonRetryable(err)
		}
		return err
	})
	err = retry.Unmark(err)

	if err != nil {
		level := slog.LevelWarn
		if errors.IsFatal(err) {
			level = slog.LevelError
			e.health.SetState(n.name, health.StateFailed)
			if core != nil {
				core.RecordComponentState(n.name, int(component.StateFailed))
			}
		}
		e.logger.Log(ctx, level, "Process failed", "component", n.name, "attempts", attempts, "error", err)
	}
	return err
}

// Reconfigure applies runtime parameter changes to a component between
// Process calls.
func (e *Engine) Reconfigure(name string, changes map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.nodes[name]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s", errors.ErrUnknownComponent, name),
			"Engine", "Reconfigure", "component lookup")
	}
	rc, ok := n.comp.(component.RuntimeConfigurable)
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s is not runtime configurable", errors.ErrInvalidConfig, name),
			"Engine", "Reconfigure", "capability check")
	}
	if err := rc.ApplyConfigUpdate(changes); err != nil {
		return errors.Wrap(err, "Engine", "Reconfigure", "apply to "+name)
	}
	e.logger.Info("Component reconfigured", "component", name, "changes", changes)
	return nil
}

// Close closes every stream and unregisters the component instances.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.release()
	e.logger.Info("Flow closed")
	return nil
}

// release closes streams and unregisters created instances.
func (e *Engine) release() {
	for _, h := range e.streams {
		if c, ok := h.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	for _, name := range e.created {
		e.registry.UnregisterInstance(name)
	}
	e.created = nil
}

// Name returns the flow name.
func (e *Engine) Name() string { return e.name }

// RunID identifies this engine instance in logs.
func (e *Engine) RunID() string { return e.runID }

// Order returns the component invocation order.
func (e *Engine) Order() []string { return slices.Clone(e.order) }

// Component returns a component instance by name.
func (e *Engine) Component(name string) (component.PhyComponent, bool) {
	n, ok := e.nodes[name]
	if !ok {
		return nil, false
	}
	return n.comp, true
}

// PortType returns the negotiated element type of "component.port".
func (e *Engine) PortType(endpoint string) (types.DataType, bool) {
	dt, ok := e.portTypes[endpoint]
	return dt, ok
}

// OpenInputs returns the host-fed input ports and their element types.
func (e *Engine) OpenInputs() map[string]types.DataType {
	return e.typesOf(e.openInputs)
}

// OpenOutputs returns the host-drained output ports and their element types.
func (e *Engine) OpenOutputs() map[string]types.DataType {
	return e.typesOf(e.openOutputs)
}

func (e *Engine) typesOf(handles map[string]buffer.Handle) map[string]types.DataType {
	out := make(map[string]types.DataType, len(handles))
	for name, h := range handles {
		out[name] = h.DataType()
	}
	return out
}

// Analysis returns the connectivity analysis of the flow graph.
func (e *Engine) Analysis() *flowgraph.FlowAnalysisResult {
	return e.graph.AnalyzeConnectivity()
}

// Health returns the flow status with one sub-status per component.
func (e *Engine) Health() health.Status {
	return e.health.AggregateHealth(e.name)
}

// Stats returns per-stream statistics keyed by stream name.
func (e *Engine) Stats() map[string]buffer.StatsSummary {
	out := make(map[string]buffer.StatsSummary, len(e.streams))
	for name, h := range e.streams {
		if s, ok := h.(interface{ Stats() *buffer.Statistics }); ok {
			out[name] = s.Stats().Summary()
		}
	}
	return out
}

// StreamNames returns the names of all streams, sorted.
func (e *Engine) StreamNames() []string {
	names := make([]string, 0, len(e.streams))
	for name := range e.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
