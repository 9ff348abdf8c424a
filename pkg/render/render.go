package render

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// Hierarchy is the view of a scope tree the render engine needs.
// [*hierarchy.Hierarchy] implements it.
//
// The engine writes back through SetNode when it splices cloned function
// bodies into call sites, and mutates node fields (parents, inclusion,
// inputs) in place.
type Hierarchy interface {
	Root() *hierarchy.Node
	Node(name string) *hierarchy.Node
	SetNode(name string, node *hierarchy.Node)
	Bridgegraph(name string) *hierarchy.Metagraph
	Predecessors(name string) hierarchy.Edges
	Successors(name string) hierarchy.Edges
	TopologicalOrdering(name string) map[string]int
	LibraryFunctions() map[string]*hierarchy.LibraryFunction
	Devices() []string
	XLAClusters() []string
	MaxMetaedgeSize() int64
	HasShapeInfo() bool
}

var _ Hierarchy = (*hierarchy.Hierarchy)(nil)

// Option configures a [GraphInfo].
type Option func(*GraphInfo)

// WithParams replaces [DefaultParams].
func WithParams(p Params) Option {
	return func(g *GraphInfo) { g.params = p }
}

// WithLogger routes diagnostics to l. By default they go to [log.Default].
func WithLogger(l *log.Logger) Option {
	return func(g *GraphInfo) { g.logger = l }
}

// WithDisplayingStats fades out nodes that have no displayable run-time
// stats.
func WithDisplayingStats(on bool) Option {
	return func(g *GraphInfo) { g.displayingStats = on }
}

// GraphInfo turns a [hierarchy.Hierarchy] into render graphs, one scope at a
// time. Scopes are built lazily by [GraphInfo.BuildSubhierarchy]; the root is
// built and expanded on construction.
//
// GraphInfo is not safe for concurrent use.
type GraphInfo struct {
	h               Hierarchy
	params          Params
	logger          *log.Logger
	displayingStats bool

	scales scales
	root   *NodeInfo

	index           map[string]*NodeInfo
	hasSubhierarchy map[string]bool
	renderedOpNames []string
}

// New builds the root scope of h and returns the engine holding it.
func New(h Hierarchy, opts ...Option) *GraphInfo {
	g := &GraphInfo{
		h:               h,
		params:          DefaultParams(),
		index:           make(map[string]*NodeInfo),
		hasSubhierarchy: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.Default()
	}

	g.scales = computeScales(h, g.params)

	root := h.Root()
	g.root = newNodeInfo(root, g.params.MaxAnnotations)
	g.index[root.Name] = g.root
	g.renderedOpNames = append(g.renderedOpNames, root.Name)
	g.BuildSubhierarchy(root.Name)
	g.root.Expanded = true
	return g
}

// Root returns the render record of the root scope.
func (g *GraphInfo) Root() *NodeInfo { return g.root }

// Hierarchy returns the hierarchy being rendered.
func (g *GraphInfo) Hierarchy() Hierarchy { return g.h }

// Params returns the tuning in effect.
func (g *GraphInfo) Params() Params { return g.params }

// Node returns the hierarchy node called name, or nil.
func (g *GraphInfo) Node(name string) *hierarchy.Node { return g.h.Node(name) }

// NodeInfo returns the render record for name if one has been created.
func (g *GraphInfo) NodeInfo(name string) *NodeInfo { return g.index[name] }

// RenderedOpNames returns every name a render record was created for, in
// creation order.
func (g *GraphInfo) RenderedOpNames() []string { return slices.Clone(g.renderedOpNames) }

// IsBuilt reports whether BuildSubhierarchy has run for name.
func (g *GraphInfo) IsBuilt(name string) bool { return g.hasSubhierarchy[name] }

// Scope builds the scope called name if needed and returns its render
// record. An empty name selects the root. ok is false when name is not a
// metanode or series node.
func (g *GraphInfo) Scope(name string) (info *NodeInfo, ok bool) {
	if name == "" {
		name = g.root.Node.Name
	}
	if n := g.h.Node(name); n == nil || !n.IsGroup() {
		return nil, false
	}
	g.BuildSubhierarchy(name)
	info = g.index[name]
	return info, info != nil && info.Group != nil
}

// NodeInfoOrCreate returns the render record for name, creating it on first
// use. It returns nil for "" and for names the hierarchy does not know.
func (g *GraphInfo) NodeInfoOrCreate(name string) *NodeInfo {
	if name == "" {
		return nil
	}
	if info, ok := g.index[name]; ok {
		return info
	}
	node := g.h.Node(name)
	if node == nil {
		return nil
	}

	info := newNodeInfo(node, g.params.MaxAnnotations)
	g.index[name] = info
	g.renderedOpNames = append(g.renderedOpNames, name)

	if node.Stats != nil {
		info.MemoryColor = g.scales.memory.color(float64(node.Stats.TotalBytes))
		micros, _ := node.Stats.TotalMicros()
		info.ComputeTimeColor = g.scales.computeTime.color(float64(micros))
	}
	info.IsFadedOut = g.displayingStats && !node.Stats.Displayable()

	var (
		devices, clusters map[string]int
		compat            = -1.0
	)
	switch {
	case node.IsGroup():
		devices = node.Group.DeviceHistogram
		clusters = node.Group.XLAClusterHistogram
		c := node.Group.Compatibility
		if c.Compatible != 0 || c.Incompatible != 0 {
			compat = float64(c.Compatible) / float64(c.Compatible+c.Incompatible)
		}
	case node.IsOp():
		if d := node.Op.Device; d != "" {
			devices = map[string]int{d: 1}
		}
		if c := node.Op.XLACluster; c != "" {
			clusters = map[string]int{c: 1}
		}
		compat = 0
		if node.Op.Compatible {
			compat = 1
		}
	}
	info.DeviceColors = colorHistogram(devices, g.scales.device)
	info.XLAClusterColors = colorHistogram(clusters, g.scales.xlaCluster)
	if compat >= 0 {
		info.CompatibilityColors = []ColorProportion{
			{Color: compatibleColor, Proportion: compat},
			{Color: incompatibleColor, Proportion: 1 - compat},
		}
	}
	return info
}

const (
	compatibleColor   = "#0f9d58"
	incompatibleColor = "#db4437"
)

// colorHistogram turns counts into proportional color bands, ordered by key.
func colorHistogram(counts map[string]int, scale *ordinalScale) []ColorProportion {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}
	out := make([]ColorProportion, 0, len(counts))
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, ColorProportion{
			Color:      scale.color(key),
			Proportion: float64(counts[key]) / float64(total),
		})
	}
	return out
}

// NearestVisibleAncestor returns the outermost node on name's path that is
// currently drawn: the first collapsed ancestor, or name's annotation entry
// when its parent is collapsed but lists it as an annotation.
func (g *GraphInfo) NearestVisibleAncestor(name string) string {
	path := hierarchy.HierarchicalPath(name)
	nodeName := name
	var info *NodeInfo
	i := 0
	for ; i < len(path); i++ {
		nodeName = path[i]
		info = g.index[nodeName]
		if info == nil || !info.Expanded {
			break
		}
	}
	if info != nil && i == len(path)-2 {
		next := path[i+1]
		if info.InAnnotations.Has(next) || info.OutAnnotations.Has(next) {
			return next
		}
	}
	return nodeName
}

// IsNodeAuxiliary reports whether info was pulled out of its parent's core
// graph into one of the isolated extract columns.
func (g *GraphInfo) IsNodeAuxiliary(info *NodeInfo) bool {
	parent := g.index[info.Node.ParentName()]
	if parent == nil || parent.Group == nil {
		return false
	}
	name := info.Node.Name
	has := func(list []*NodeInfo) bool {
		return slices.ContainsFunc(list, func(n *NodeInfo) bool { return n.Node.Name == name })
	}
	return has(parent.Group.IsolatedInExtract) || has(parent.Group.IsolatedOutExtract)
}

// SetDepth expands every group up to depth levels below the root and
// collapses everything deeper. Expanded groups are built first.
func (g *GraphInfo) SetDepth(depth int) {
	g.setGroupDepth(g.root, depth)
}

func (g *GraphInfo) setGroupDepth(info *NodeInfo, depth int) {
	if info.Group == nil {
		return
	}
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil {
			continue
		}
		child.Expanded = depth > 1
		if depth <= 0 || child.Group == nil {
			continue
		}
		if child.Expanded {
			g.BuildSubhierarchy(name)
		}
		g.setGroupDepth(child, depth-1)
	}
}

var tensorSlotRegexp = regexp.MustCompile(`(.*):\w+`)

// ExpandUntilNodeIsShown builds and expands every scope on the path to
// tensorName, which may carry an output slot suffix such as ":0". It returns
// the name of the deepest node reached, or "" if the path leaves the
// hierarchy at the top.
func (g *GraphInfo) ExpandUntilNodeIsShown(tensorName string) string {
	parts := strings.Split(tensorName, hierarchy.NamespaceDelim)
	last := len(parts) - 1
	if m := tensorSlotRegexp.FindStringSubmatch(parts[last]); m != nil {
		parts[last] = m[1]
	}

	nodeName := parts[0]
	info := g.NodeInfoOrCreate(nodeName)
	for i := 1; i < len(parts); i++ {
		if info == nil || info.Node.Type == hierarchy.NodeTypeOp {
			break
		}
		g.BuildSubhierarchy(nodeName)
		info.Expanded = true
		nodeName += hierarchy.NamespaceDelim + parts[i]
		info = g.NodeInfoOrCreate(nodeName)
	}
	if info == nil {
		return ""
	}
	return info.Node.Name
}

// EdgeWidth returns the stroke width for an edge. Edges without a metaedge
// count as size 1.
func (g *GraphInfo) EdgeWidth(e *MetaedgeInfo) float64 {
	size := 1.0
	if e != nil && e.Metaedge != nil {
		size = float64(e.Metaedge.TotalSize)
	}
	return g.scales.edgeWidth.width(size)
}

// EdgeLabel describes the tensors carried by m: a count when there are
// several, otherwise the shape of the single tensor. It returns "" when
// the shape is unknown.
func (g *GraphInfo) EdgeLabel(m *hierarchy.Metaedge) string {
	if m == nil || len(m.BaseEdges) == 0 {
		return ""
	}
	if len(m.BaseEdges) > 1 {
		return strconv.Itoa(len(m.BaseEdges)) + " tensors"
	}
	be := m.BaseEdges[0]
	src := g.h.Node(be.V)
	if src == nil || !src.IsOp() {
		return ""
	}
	idx, err := strconv.Atoi(be.OutputTensorKey)
	if err != nil || idx < 0 || idx >= len(src.Op.OutputShapes) {
		return ""
	}
	shape := src.Op.OutputShapes[idx]
	if shape == nil {
		return ""
	}
	return shapeLabel(shape)
}
