// Package flowgraph checks how component ports are linked and orders
// components for processing.
package flowgraph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Orphaned port issues
const (
	IssueOpenInput  = "open_input"  // fed by the host rather than a link
	IssueOpenOutput = "open_output" // drained by the host rather than a link
)

// Analysis statuses
const (
	StatusHealthy  = "healthy"
	StatusWarnings = "warnings"
)

// ComponentPortRef names one port of one component.
type ComponentPortRef struct {
	ComponentName string `json:"component_name"`
	PortName      string `json:"port_name"`
}

func (r ComponentPortRef) String() string {
	return r.ComponentName + "." + r.PortName
}

// FlowEdge is a stream from an output port to an input port.
type FlowEdge struct {
	From ComponentPortRef `json:"from"`
	To   ComponentPortRef `json:"to"`
}

// PortInfo is the part of a component.Port the graph needs.
type PortInfo struct {
	Name      string
	Direction component.Direction
	Required  bool
	DataTypes []types.DataType
}

// ComponentNode is a component and its declared ports.
type ComponentNode struct {
	ComponentName string
	Component     component.PhyComponent
	InputPorts    []PortInfo
	OutputPorts   []PortInfo
}

func (n *ComponentNode) clone() *ComponentNode {
	c := *n
	c.InputPorts = slices.Clone(n.InputPorts)
	c.OutputPorts = slices.Clone(n.OutputPorts)
	return &c
}

// FlowGraph holds components and the one-to-one links between their ports.
// Every input has at most one upstream output and every output at most one
// downstream input; the splitter is the only way to fan a stream out.
type FlowGraph struct {
	nodes      map[string]*ComponentNode
	edges      []FlowEdge
	upstream   map[ComponentPortRef]ComponentPortRef
	downstream map[ComponentPortRef]ComponentPortRef
}

// NewFlowGraph creates an empty graph.
func NewFlowGraph() *FlowGraph {
	return &FlowGraph{
		nodes:      make(map[string]*ComponentNode),
		upstream:   make(map[ComponentPortRef]ComponentPortRef),
		downstream: make(map[ComponentPortRef]ComponentPortRef),
	}
}

// GetNodes returns copies of the nodes.
func (g *FlowGraph) GetNodes() map[string]*ComponentNode {
	result := make(map[string]*ComponentNode, len(g.nodes))
	for name, node := range g.nodes {
		result[name] = node.clone()
	}
	return result
}

// GetEdges returns the links in the order they were connected.
func (g *FlowGraph) GetEdges() []FlowEdge {
	return slices.Clone(g.edges)
}

// AddComponentNode adds a component under a unique name.
func (g *FlowGraph) AddComponentNode(name string, comp component.PhyComponent) error {
	if name == "" || comp == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: node needs a name and a component", errors.ErrInvalidConfig),
			"FlowGraph", "AddComponentNode", "argument check")
	}
	if _, exists := g.nodes[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s added twice", errors.ErrInvalidConfig, name),
			"FlowGraph", "AddComponentNode", "duplicate check")
	}
	g.nodes[name] = &ComponentNode{
		ComponentName: name,
		Component:     comp,
		InputPorts:    portInfo(comp.InputPorts()),
		OutputPorts:   portInfo(comp.OutputPorts()),
	}
	return nil
}

func portInfo(ports []component.Port) []PortInfo {
	result := make([]PortInfo, len(ports))
	for i, p := range ports {
		result[i] = PortInfo{Name: p.Name, Direction: p.Direction, Required: p.Required, DataTypes: slices.Clone(p.DataTypes)}
	}
	return result
}

// Connect links an output port to an input port. Both must exist and
// neither may already be linked.
func (g *FlowGraph) Connect(from, to ComponentPortRef) error {
	if err := g.checkPort(from, component.DirectionOutput); err != nil {
		return err
	}
	if err := g.checkPort(to, component.DirectionInput); err != nil {
		return err
	}
	if prev, ok := g.upstream[to]; ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s already fed by %s", errors.ErrInvalidConfig, to, prev),
			"FlowGraph", "Connect", "fan-in check")
	}
	if prev, ok := g.downstream[from]; ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s already feeds %s", errors.ErrInvalidConfig, from, prev),
			"FlowGraph", "Connect", "fan-out check")
	}
	g.edges = append(g.edges, FlowEdge{From: from, To: to})
	g.upstream[to] = from
	g.downstream[from] = to
	return nil
}

func (g *FlowGraph) checkPort(ref ComponentPortRef, dir component.Direction) error {
	node, ok := g.nodes[ref.ComponentName]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: component %s", errors.ErrConfigNotFound, ref.ComponentName),
			"FlowGraph", "Connect", "component lookup")
	}
	ports := node.OutputPorts
	if dir == component.DirectionInput {
		ports = node.InputPorts
	}
	if !slices.ContainsFunc(ports, func(p PortInfo) bool { return p.Name == ref.PortName }) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s has no %s port %s", errors.ErrPortMismatch, ref.ComponentName, dir, ref.PortName),
			"FlowGraph", "Connect", "port lookup")
	}
	return nil
}

// Upstream returns the output port feeding an input port, if any.
func (g *FlowGraph) Upstream(to ComponentPortRef) (ComponentPortRef, bool) {
	from, ok := g.upstream[to]
	return from, ok
}

// Downstream returns the input port an output port feeds, if any.
func (g *FlowGraph) Downstream(from ComponentPortRef) (ComponentPortRef, bool) {
	to, ok := g.downstream[from]
	return to, ok
}

func (g *FlowGraph) sortedNames() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// TopologicalOrder returns component names so that every component comes
// after the components feeding it. Among components that are ready at the
// same time the smallest name goes first. A cycle is an invalid configuration.
func (g *FlowGraph) TopologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		pending[e.To.ComponentName]++
	}

	var ready []string
	for _, name := range g.sortedNames() {
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, e := range g.edges {
			if e.From.ComponentName != name {
				continue
			}
			if pending[e.To.ComponentName]--; pending[e.To.ComponentName] == 0 {
				ready = append(ready, e.To.ComponentName)
			}
		}
		slices.Sort(ready)
	}

	if len(order) < len(g.nodes) {
		var stuck []string
		for _, name := range g.sortedNames() {
			if pending[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: cycle through %v", errors.ErrInvalidConfig, stuck),
			"FlowGraph", "TopologicalOrder", "cycle check")
	}
	return order, nil
}

// FlowAnalysisResult reports the shape of a flow.
type FlowAnalysisResult struct {
	ConnectedComponents [][]string         `json:"connected_components"`
	ConnectedEdges      []FlowEdge         `json:"connected_edges"`
	DisconnectedNodes   []DisconnectedNode `json:"disconnected_nodes"`
	OrphanedPorts       []OrphanedPort     `json:"orphaned_ports"`
	ValidationStatus    string             `json:"validation_status"`
}

// DisconnectedNode is a component without any link in a flow of several
// components.
type DisconnectedNode struct {
	ComponentName string   `json:"component_name"`
	Issue         string   `json:"issue"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// OrphanedPort is a port without a link. In a stream flow these are the
// host's injection and drain points.
type OrphanedPort struct {
	ComponentName string              `json:"component_name"`
	PortName      string              `json:"port_name"`
	Direction     component.Direction `json:"direction"`
	Issue         string              `json:"issue"`
	Required      bool                `json:"required"`
}

// AnalyzeConnectivity groups components into linked clusters and lists open
// ports. A component with no link is a warning unless it is the whole flow.
func (g *FlowGraph) AnalyzeConnectivity() *FlowAnalysisResult {
	result := &FlowAnalysisResult{
		ConnectedComponents: g.clusters(),
		ConnectedEdges:      g.GetEdges(),
		DisconnectedNodes:   []DisconnectedNode{},
		OrphanedPorts:       g.openPorts(),
		ValidationStatus:    StatusHealthy,
	}

	if len(g.nodes) > 1 {
		linked := make(map[string]bool, len(g.nodes))
		for _, e := range g.edges {
			linked[e.From.ComponentName] = true
			linked[e.To.ComponentName] = true
		}
		for _, name := range g.sortedNames() {
			if !linked[name] {
				result.DisconnectedNodes = append(result.DisconnectedNodes, DisconnectedNode{
					ComponentName: name,
					Issue:         "Component has no connections",
					Suggestions:   []string{"Link it to another component", "Move it to its own flow"},
				})
			}
		}
	}
	if len(result.DisconnectedNodes) > 0 {
		result.ValidationStatus = StatusWarnings
	}
	return result
}

// clusters returns the weakly connected components, each sorted, ordered by
// their first name.
func (g *FlowGraph) clusters() [][]string {
	parent := make(map[string]string, len(g.nodes))
	var find func(string) string
	find = func(n string) string {
		if p, ok := parent[n]; ok && p != n {
			root := find(p)
			parent[n] = root
			return root
		}
		return n
	}
	for _, e := range g.edges {
		a, b := find(e.From.ComponentName), find(e.To.ComponentName)
		if a != b {
			parent[max(a, b)] = min(a, b)
		}
	}

	byRoot := make(map[string][]string)
	var roots []string
	for _, name := range g.sortedNames() {
		root := find(name)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], name)
	}
	result := make([][]string, 0, len(roots))
	for _, root := range roots {
		result = append(result, byRoot[root])
	}
	return result
}

// openPorts lists unlinked ports by component name, inputs before outputs,
// each in declaration order.
func (g *FlowGraph) openPorts() []OrphanedPort {
	result := []OrphanedPort{}
	for _, name := range g.sortedNames() {
		node := g.nodes[name]
		for _, p := range node.InputPorts {
			if _, ok := g.upstream[ComponentPortRef{name, p.Name}]; !ok {
				result = append(result, OrphanedPort{name, p.Name, p.Direction, IssueOpenInput, p.Required})
			}
		}
		for _, p := range node.OutputPorts {
			if _, ok := g.downstream[ComponentPortRef{name, p.Name}]; !ok {
				result = append(result, OrphanedPort{name, p.Name, p.Direction, IssueOpenOutput, p.Required})
			}
		}
	}
	return result
}
