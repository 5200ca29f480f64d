package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownNode is returned when an ordering root is not in the graph.
var ErrUnknownNode = errors.New("unknown node")

// Graph is a directed dependency graph. An edge from a to b means a
// depends on b.
type Graph struct {
	edges map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]string)}
}

// AddNode adds a node with no edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.edges[name]; !ok {
		g.edges[name] = []string{}
	}
}

// AddEdge records that from depends on to, adding both nodes.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if !slices.Contains(g.edges[from], to) {
		g.edges[from] = append(g.edges[from], to)
	}
}

// Has reports whether name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.edges[name]
	return ok
}

// Nodes returns the nodes in lexical order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.edges))
	for n := range g.edges {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// Dependencies returns the direct dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	return slices.Clone(g.edges[name])
}

// Cycle is a strongly connected component that loops: either more than one
// node, or a single node depending on itself.
type Cycle struct {
	// Members are the component's nodes in lexical order.
	Members []string
	// Path walks the cycle and ends where it starts: ["a", "b", "a"].
	Path []string
}

// String renders the cycle path.
func (c Cycle) String() string {
	return strings.Join(c.Path, " -> ")
}

// CycleError is returned by Order when a reachable node sits on a cycle.
type CycleError struct {
	Cycle Cycle
}

func (e *CycleError) Error() string {
	return "circular dependency: " + e.Cycle.String()
}

// Cycles returns every looping component, ordered by their first member.
func (g *Graph) Cycles() []Cycle {
	var cycles []Cycle
	for _, scc := range g.components() {
		if c, ok := g.cycle(scc); ok {
			cycles = append(cycles, c)
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int {
		return strings.Compare(a.Members[0], b.Members[0])
	})
	return cycles
}

// Order returns the nodes reachable from roots with every node placed
// after all of its dependencies. Unrelated nodes keep a deterministic
// order. A cycle among the reachable nodes fails with *CycleError.
func (g *Graph) Order(roots ...string) ([]string, error) {
	reach := make(map[string]bool)
	var visit func(string)
	visit = func(n string) {
		if reach[n] {
			return
		}
		reach[n] = true
		for _, dep := range g.edges[n] {
			visit(dep)
		}
	}
	for _, r := range roots {
		if !g.Has(r) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, r)
		}
		visit(r)
	}

	var order []string
	for _, scc := range g.components() {
		if !reach[scc[0]] {
			continue
		}
		if c, ok := g.cycle(scc); ok {
			return nil, &CycleError{Cycle: c}
		}
		order = append(order, scc[0])
	}
	return order, nil
}

func (g *Graph) cycle(scc []string) (Cycle, bool) {
	if len(scc) == 1 && !slices.Contains(g.edges[scc[0]], scc[0]) {
		return Cycle{}, false
	}
	members := slices.Clone(scc)
	slices.Sort(members)
	return Cycle{Members: members, Path: g.cyclePath(members)}, true
}

// components finds strongly connected components with Tarjan's algorithm.
// Components come out dependencies first: a component is emitted only
// after every component it can reach.
func (g *Graph) components() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.Nodes() {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath finds the shortest walk inside the component from its first
// member back to itself.
func (g *Graph) cyclePath(members []string) []string {
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}

	start := members[0]
	parent := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range g.edges[current] {
			if n == start {
				path := []string{start}
				for at := current; at != start; at = parent[at] {
					path = append(path, at)
				}
				slices.Reverse(path)
				return append([]string{start}, path...)
			}
			if _, seen := parent[n]; seen || !in[n] {
				continue
			}
			parent[n] = current
			queue = append(queue, n)
		}
	}
	return []string{start}
}
