package hierarchy

import (
	"errors"
	"slices"
	"sort"

	"github.com/matzehuels/scopeview/pkg/graph"
)

var (
	// ErrInvalidNodeName is returned by [Build] when an op has an empty name.
	ErrInvalidNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Build] when two ops share a name.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrNoSharedAncestor is returned by [Build] when an edge connects a node
	// to one of its own ancestors, which no metagraph can hold.
	ErrNoSharedAncestor = errors.New("edge endpoints share no ancestor")

	// ErrInvalidParams is returned by [Build] when an embedding pattern does
	// not compile.
	ErrInvalidParams = errors.New("invalid build params")
)

// Edges splits the metaedges touching a node into those carrying data and
// those made of control dependencies only.
type Edges struct {
	Regular []*Metaedge
	Control []*Metaedge
}

// LibraryFunction is a function template found in the graph's library
// together with the ops calling it.
type LibraryFunction struct {
	Name   string
	Node   *Node
	Usages []*Node
}

// Hierarchy is the tree of scopes built from a flat op graph. Every node is
// reachable by name through [Hierarchy.Node]; edges live in the metagraph of
// the lowest scope containing both endpoints.
//
// Hierarchy is not safe for concurrent use. The render engine mutates it
// when it splices cloned function bodies into call sites.
type Hierarchy struct {
	root             *Node
	index            map[string]*Node
	libraryFunctions map[string]*LibraryFunction
	devices          []string
	xlaClusters      []string
	orderings        map[string]map[string]int
	maxMetaedgeSize  int64
	hasShapeInfo     bool
}

// New creates a hierarchy holding only the root scope.
func New() *Hierarchy {
	root := NewMetanode(RootName)
	return &Hierarchy{
		root:             root,
		index:            map[string]*Node{RootName: root},
		libraryFunctions: make(map[string]*LibraryFunction),
		orderings:        make(map[string]map[string]int),
		maxMetaedgeSize:  1,
	}
}

// Root returns the root scope.
func (h *Hierarchy) Root() *Node { return h.root }

// Node returns the named node, or nil.
func (h *Hierarchy) Node(name string) *Node { return h.index[name] }

// SetNode registers node under name, replacing any previous entry.
func (h *Hierarchy) SetNode(name string, node *Node) { h.index[name] = node }

// NodeNames returns every registered name in lexical order.
func (h *Hierarchy) NodeNames() []string {
	names := make([]string, 0, len(h.index))
	for name := range h.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered nodes, including the root.
func (h *Hierarchy) Len() int { return len(h.index) }

// Devices returns the devices discovered on ops, in discovery order.
func (h *Hierarchy) Devices() []string { return h.devices }

// XLAClusters returns the XLA clusters discovered on ops, in discovery order.
func (h *Hierarchy) XLAClusters() []string { return h.xlaClusters }

// MaxMetaedgeSize returns the largest total tensor size of any metaedge.
// It is at least 1.
func (h *Hierarchy) MaxMetaedgeSize() int64 { return h.maxMetaedgeSize }

// HasShapeInfo reports whether any edge size was computed from real shapes.
func (h *Hierarchy) HasShapeInfo() bool { return h.hasShapeInfo }

// LibraryFunctions returns the function templates keyed by function name.
func (h *Hierarchy) LibraryFunctions() map[string]*LibraryFunction { return h.libraryFunctions }

// LibraryFunction returns the template called by ops of type op, or nil.
func (h *Hierarchy) LibraryFunction(op string) *LibraryFunction { return h.libraryFunctions[op] }

// Bridgegraph returns the metaedges crossing the boundary of the named group,
// keyed by (other, child) for inbound and (child, other) for outbound edges.
// It is computed from the parent's metagraph and bridgegraph on first use
// and cached. It returns nil for unknown names and non-group nodes.
func (h *Hierarchy) Bridgegraph(name string) *Metagraph {
	node := h.index[name]
	if node == nil || !node.IsGroup() {
		return nil
	}
	if node.Group.bridgegraph != nil {
		return node.Group.bridgegraph
	}
	bg := graph.New[*Node, *Metaedge]("BRIDGEGRAPH")
	node.Group.bridgegraph = bg

	parent := node.Parent
	if parent == nil || !parent.IsGroup() {
		return bg
	}
	for _, pg := range []*Metagraph{parent.Group.Metagraph, h.Bridgegraph(parent.Name)} {
		if pg == nil {
			continue
		}
		for _, key := range pg.Edges() {
			if key.V != name && key.W != name {
				continue
			}
			inbound := key.W == name
			pm, _ := pg.Edge(key.V, key.W)
			if pm == nil {
				continue
			}
			for _, be := range pm.BaseEdges {
				descendant, other := be.V, key.W
				if inbound {
					descendant, other = be.W, key.V
				}
				child, ok := h.ChildName(name, descendant)
				if !ok {
					continue
				}
				v, w := child, other
				if inbound {
					v, w = other, child
				}
				bm, _ := bg.Edge(v, w)
				if bm == nil {
					bm = NewMetaedge(v, w)
					bm.Inbound = inbound
					bg.SetEdge(v, w, bm)
				}
				bm.AddBaseEdge(be, h)
			}
		}
	}
	return bg
}

// ChildName returns the immediate child of scope that contains descendant.
func (h *Hierarchy) ChildName(scope, descendant string) (string, bool) {
	for cur := h.index[descendant]; cur != nil; cur = cur.Parent {
		if cur.Parent != nil && cur.Parent.Name == scope {
			return cur.Name, true
		}
	}
	return "", false
}

// Predecessors returns the metaedges entering the named node, from both the
// parent's metagraph and bridgegraph. For ops, edges from in-embeddings are
// added as regular metaedges. Unknown names yield empty Edges.
func (h *Hierarchy) Predecessors(name string) Edges {
	node := h.index[name]
	if node == nil {
		return Edges{}
	}
	edges := h.oneWayEdges(node, true)
	if node.IsOp() {
		for _, emb := range node.Op.InEmbeddings {
			for _, in := range node.Op.Inputs {
				if in.Name != emb.Name {
					continue
				}
				m := NewMetaedge(emb.Name, name)
				m.AddBaseEdge(&BaseEdge{
					V:                   emb.Name,
					W:                   name,
					OutputTensorKey:     in.OutputTensorKey,
					IsControlDependency: in.IsControlDependency,
				}, h)
				edges.Regular = append(edges.Regular, m)
			}
		}
	}
	return edges
}

// Successors returns the metaedges leaving the named node. It mirrors
// [Hierarchy.Predecessors], adding edges into out-embeddings for ops.
func (h *Hierarchy) Successors(name string) Edges {
	node := h.index[name]
	if node == nil {
		return Edges{}
	}
	edges := h.oneWayEdges(node, false)
	if node.IsOp() {
		for _, emb := range node.Op.OutEmbeddings {
			if !emb.IsOp() {
				continue
			}
			for _, in := range emb.Op.Inputs {
				if in.Name != name {
					continue
				}
				m := NewMetaedge(name, emb.Name)
				m.AddBaseEdge(&BaseEdge{
					V:                   name,
					W:                   emb.Name,
					OutputTensorKey:     in.OutputTensorKey,
					IsControlDependency: in.IsControlDependency,
				}, h)
				edges.Regular = append(edges.Regular, m)
			}
		}
	}
	return edges
}

func (h *Hierarchy) oneWayEdges(node *Node, inbound bool) Edges {
	var edges Edges
	parent := node.Parent
	if parent == nil || !parent.IsGroup() {
		return edges
	}
	for _, g := range []*Metagraph{parent.Group.Metagraph, h.Bridgegraph(parent.Name)} {
		if g == nil {
			continue
		}
		keys := g.OutEdges(node.Name)
		if inbound {
			keys = g.InEdges(node.Name)
		}
		for _, key := range keys {
			m, _ := g.Edge(key.V, key.W)
			if m == nil {
				continue
			}
			if m.NumRegularEdges > 0 {
				edges.Regular = append(edges.Regular, m)
			} else {
				edges.Control = append(edges.Control, m)
			}
		}
	}
	return edges
}

// TopologicalOrdering returns an ordering of the children of the named group
// such that a data path from a to b implies ordering[a] < ordering[b].
// Control-only metaedges are ignored. Numbers need not be contiguous.
// The result is cached; it is nil for unknown names and non-group nodes.
func (h *Hierarchy) TopologicalOrdering(name string) map[string]int {
	node := h.index[name]
	if node == nil || !node.IsGroup() {
		return nil
	}
	if ordering, ok := h.orderings[name]; ok {
		return ordering
	}

	mg := node.Group.Metagraph
	successors := make(map[string][]string)
	var sources []string
	destinations := make(map[string]bool)
	for _, key := range mg.Edges() {
		m, _ := mg.Edge(key.V, key.W)
		if m == nil || m.NumRegularEdges == 0 {
			continue
		}
		if _, ok := successors[key.V]; !ok {
			sources = append(sources, key.V)
		}
		successors[key.V] = append(successors[key.V], key.W)
		destinations[key.W] = true
	}

	queue := slices.DeleteFunc(sources, func(s string) bool { return destinations[s] })
	ordering := make(map[string]int)
	h.orderings[name] = ordering
	index := 0
	for len(queue) > 0 {
		child := queue[0]
		queue = queue[1:]
		ordering[child] = index
		index++
		queue = append(queue, successors[child]...)
		// Dropping the entry keeps cycles from looping forever.
		delete(successors, child)
	}
	return ordering
}
