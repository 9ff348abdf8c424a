package graph

import (
	"cmp"
	"errors"
	"slices"
)

var (
	// ErrUnknownNode is returned by [Graph.SetParent] when either the child
	// or the parent is not present in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrParentCycle is returned by [Graph.SetParent] when the new parent is
	// the child itself or one of its descendants.
	ErrParentCycle = errors.New("parent would create a cycle")
)

// EdgeKey identifies a directed edge by its endpoint names. A graph holds at
// most one edge per ordered pair of endpoints.
type EdgeKey struct {
	V string // Source node name
	W string // Destination node name
}

type nodeEntry[N any] struct {
	value N
	seq   uint64
}

type edgeEntry[E any] struct {
	value E
	seq   uint64
}

// Graph is a directed compound graph keyed by node name. Nodes carry a label
// of type N, edges a label of type E. Compound nodes group other nodes through
// [Graph.SetParent]; the grouping is independent of the edges.
//
// Enumeration methods return names in insertion order, so two graphs built
// by the same sequence of calls enumerate identically. Replacing the label
// of an existing node or edge keeps its original position.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph[N, E any] struct {
	name     string
	seq      uint64
	nodes    map[string]*nodeEntry[N]
	edges    map[EdgeKey]*edgeEntry[E]
	out      map[string][]string // node -> successors, insertion order
	in       map[string][]string // node -> predecessors, insertion order
	parent   map[string]string
	children map[string][]string
}

// New creates an empty graph. The name is informational and is used by
// renderers as a graph title.
func New[N, E any](name string) *Graph[N, E] {
	return &Graph[N, E]{
		name:     name,
		nodes:    make(map[string]*nodeEntry[N]),
		edges:    make(map[EdgeKey]*edgeEntry[E]),
		out:      make(map[string][]string),
		in:       make(map[string][]string),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
}

// Name returns the name the graph was created with.
func (g *Graph[N, E]) Name() string { return g.name }

func (g *Graph[N, E]) next() uint64 {
	g.seq++
	return g.seq
}

// SetNode adds a node or replaces the label of an existing one.
// Existing edges and compound relations of the node are preserved.
func (g *Graph[N, E]) SetNode(name string, value N) {
	if e, ok := g.nodes[name]; ok {
		e.value = value
		return
	}
	g.nodes[name] = &nodeEntry[N]{value: value, seq: g.next()}
}

// Node returns the label of the named node and whether the node exists.
func (g *Graph[N, E]) Node(name string) (N, bool) {
	if e, ok := g.nodes[name]; ok {
		return e.value, true
	}
	var zero N
	return zero, false
}

// HasNode reports whether the named node exists.
func (g *Graph[N, E]) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// RemoveNode deletes a node together with every edge incident to it.
// Children of a removed compound node are moved to the top level.
// Removing a node that does not exist is a no-op.
func (g *Graph[N, E]) RemoveNode(name string) {
	if _, ok := g.nodes[name]; !ok {
		return
	}
	for _, w := range slices.Clone(g.out[name]) {
		g.RemoveEdge(name, w)
	}
	for _, v := range slices.Clone(g.in[name]) {
		g.RemoveEdge(v, name)
	}
	for _, c := range g.children[name] {
		delete(g.parent, c)
	}
	delete(g.children, name)
	if p, ok := g.parent[name]; ok {
		g.children[p] = slices.DeleteFunc(g.children[p], func(c string) bool { return c == name })
		delete(g.parent, name)
	}
	delete(g.out, name)
	delete(g.in, name)
	delete(g.nodes, name)
}

// Nodes returns all node names in insertion order.
func (g *Graph[N, E]) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(g.nodes[a].seq, g.nodes[b].seq)
	})
	return names
}

// NodeCount returns the number of nodes.
func (g *Graph[N, E]) NodeCount() int { return len(g.nodes) }

// SetEdge adds the edge v→w or replaces its label. Missing endpoints are
// created with a zero label, so callers that care about labels should add
// both endpoints first.
func (g *Graph[N, E]) SetEdge(v, w string, value E) {
	key := EdgeKey{V: v, W: w}
	if e, ok := g.edges[key]; ok {
		e.value = value
		return
	}
	var zero N
	if !g.HasNode(v) {
		g.SetNode(v, zero)
	}
	if !g.HasNode(w) {
		g.SetNode(w, zero)
	}
	g.edges[key] = &edgeEntry[E]{value: value, seq: g.next()}
	g.out[v] = append(g.out[v], w)
	g.in[w] = append(g.in[w], v)
}

// Edge returns the label of the edge v→w and whether the edge exists.
func (g *Graph[N, E]) Edge(v, w string) (E, bool) {
	if e, ok := g.edges[EdgeKey{V: v, W: w}]; ok {
		return e.value, true
	}
	var zero E
	return zero, false
}

// HasEdge reports whether the edge v→w exists.
func (g *Graph[N, E]) HasEdge(v, w string) bool {
	_, ok := g.edges[EdgeKey{V: v, W: w}]
	return ok
}

// RemoveEdge deletes the edge v→w. Removing a missing edge is a no-op.
func (g *Graph[N, E]) RemoveEdge(v, w string) {
	key := EdgeKey{V: v, W: w}
	if _, ok := g.edges[key]; !ok {
		return
	}
	delete(g.edges, key)
	g.out[v] = slices.DeleteFunc(g.out[v], func(s string) bool { return s == w })
	g.in[w] = slices.DeleteFunc(g.in[w], func(s string) bool { return s == v })
}

// Edges returns all edge keys in insertion order.
func (g *Graph[N, E]) Edges() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b EdgeKey) int {
		return cmp.Compare(g.edges[a].seq, g.edges[b].seq)
	})
	return keys
}

// EdgeCount returns the number of edges.
func (g *Graph[N, E]) EdgeCount() int { return len(g.edges) }

// Predecessors returns the sources of edges entering name.
// It returns nil if the node does not exist.
func (g *Graph[N, E]) Predecessors(name string) []string {
	if !g.HasNode(name) {
		return nil
	}
	return slices.Clone(g.in[name])
}

// Successors returns the destinations of edges leaving name.
// It returns nil if the node does not exist.
func (g *Graph[N, E]) Successors(name string) []string {
	if !g.HasNode(name) {
		return nil
	}
	return slices.Clone(g.out[name])
}

// Neighbors returns the union of predecessors and successors of name,
// predecessors first, without duplicates.
func (g *Graph[N, E]) Neighbors(name string) []string {
	if !g.HasNode(name) {
		return nil
	}
	seen := make(map[string]bool, len(g.in[name])+len(g.out[name]))
	var result []string
	for _, n := range g.in[name] {
		if !seen[n] {
			seen[n] = true
			result = append(result, n)
		}
	}
	for _, n := range g.out[name] {
		if !seen[n] {
			seen[n] = true
			result = append(result, n)
		}
	}
	return result
}

// InEdges returns the keys of edges entering name.
func (g *Graph[N, E]) InEdges(name string) []EdgeKey {
	var keys []EdgeKey
	for _, v := range g.in[name] {
		keys = append(keys, EdgeKey{V: v, W: name})
	}
	return keys
}

// OutEdges returns the keys of edges leaving name.
func (g *Graph[N, E]) OutEdges(name string) []EdgeKey {
	var keys []EdgeKey
	for _, w := range g.out[name] {
		keys = append(keys, EdgeKey{V: name, W: w})
	}
	return keys
}

// SetParent makes child a member of the compound node parent. An empty
// parent moves the child back to the top level.
func (g *Graph[N, E]) SetParent(child, parent string) error {
	if !g.HasNode(child) {
		return ErrUnknownNode
	}
	if parent != "" {
		if !g.HasNode(parent) {
			return ErrUnknownNode
		}
		for p := parent; p != ""; p = g.parent[p] {
			if p == child {
				return ErrParentCycle
			}
		}
	}
	if old, ok := g.parent[child]; ok {
		g.children[old] = slices.DeleteFunc(g.children[old], func(c string) bool { return c == child })
		delete(g.parent, child)
	}
	if parent == "" {
		return nil
	}
	g.parent[child] = parent
	g.children[parent] = append(g.children[parent], child)
	return nil
}

// Parent returns the compound parent of name, or "" at the top level.
func (g *Graph[N, E]) Parent(name string) string { return g.parent[name] }

// Children returns the members of the compound node name in the order they
// were attached. With an empty name it returns the top-level nodes.
func (g *Graph[N, E]) Children(name string) []string {
	if name != "" {
		return slices.Clone(g.children[name])
	}
	var top []string
	for _, n := range g.Nodes() {
		if _, ok := g.parent[n]; !ok {
			top = append(top, n)
		}
	}
	return top
}
