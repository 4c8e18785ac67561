// Package graph implements the service dependency graph: a DAG over
// service names with cycle detection and a deterministic topological order.
package graph

import (
	"fmt"
	"strings"
)

// Graph is a directed acyclic graph of service names. The zero value is not
// usable; construct with New. Insertion order of nodes is remembered and
// used to break ties when ordering independent nodes.
type Graph struct {
	nodes map[string]*node
	order []string // node names in insertion (declaration) order
}

type node struct {
	name       string
	deps       map[string]*node // predecessors: must start before this node
	dependents map[string]*node // successors: start after this node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = &node{
		name:       name,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, name)
}

// AddEdge records that to depends on from (from must start first). Both
// nodes must already exist; a dangling reference is an error rather than an
// implicit node, so that a typo in a dependency name is caught instead of
// silently creating an unstartable phantom service.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%q depends on itself", from)
	}
	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown service %q", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown service %q", to)
	}
	toNode.deps[from] = fromNode
	fromNode.dependents[to] = toNode
	return nil
}

// Deps returns the names of the direct dependencies of name.
func (g *Graph) Deps(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return g.sorted(n.deps)
}

// Dependents returns the names of the nodes that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return g.sorted(n.dependents)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Toposort returns all nodes in topological order: every node appears after
// all of its dependencies. Nodes that are mutually unordered appear in
// insertion order. Returns a *CycleError if the graph has a cycle.
func (g *Graph) Toposort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for name, n := range g.nodes {
		indegree[name] = len(n.deps)
	}

	out := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	// Kahn's algorithm, but instead of a queue we rescan the insertion
	// order for the first ready node. Quadratic, which is fine at the
	// scale of a service descriptor, and it makes ties deterministic.
	for len(out) < len(g.nodes) {
		progressed := false
		for _, name := range g.order {
			if emitted[name] || indegree[name] != 0 {
				continue
			}
			emitted[name] = true
			out = append(out, name)
			for dep := range g.nodes[name].dependents {
				indegree[dep]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, &CycleError{Members: g.remaining(emitted)}
		}
	}
	return out, nil
}

// CycleError reports a dependency cycle. Members holds the nodes that could
// not be ordered (the cycle plus anything downstream of it).
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %s", strings.Join(e.Members, ", "))
}

// remaining returns un-emitted nodes in insertion order.
func (g *Graph) remaining(emitted map[string]bool) []string {
	var out []string
	for _, name := range g.order {
		if !emitted[name] {
			out = append(out, name)
		}
	}
	return out
}

// sorted returns the keys of m in graph insertion order.
func (g *Graph) sorted(m map[string]*node) []string {
	out := make([]string, 0, len(m))
	for _, name := range g.order {
		if _, ok := m[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
