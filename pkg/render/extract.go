package render

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/scopeview/pkg/graph"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// extractHighDegrees declutters the core graph of a metanode. In order it
// extracts nodes the user excluded, nodes of the configured sink and source
// op types, degree outliers, and control edges of nodes with too many of
// them. Nodes left without core edges are then moved to the isolated
// columns.
func (g *GraphInfo) extractHighDegrees(info *NodeInfo) {
	g.extractSpecifiedNodes(info)
	if len(g.params.OutExtractTypes) > 0 {
		g.extractPredefinedSink(info)
	}
	if len(g.params.InExtractTypes) > 0 {
		g.extractPredefinedSource(info)
	}
	g.extractHighInOrOutDegree(info)
	if g.params.MaxControlDegree > 0 {
		g.removeControlEdges(info)
	}

	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil || child.Node.Include != hierarchy.InclusionUnspecified {
			continue
		}
		if len(core.Neighbors(name)) > 0 {
			continue
		}
		switch {
		case child.IsInExtract:
			info.Group.IsolatedInExtract = append(info.Group.IsolatedInExtract, child)
		case child.IsOutExtract:
			info.Group.IsolatedOutExtract = append(info.Group.IsolatedOutExtract, child)
		case g.params.ExtractIsolatedNodesWithAnnotationsOnOneSide &&
			child.OutAnnotations.Len() > 0 && child.InAnnotations.Len() == 0:
			child.IsInExtract = true
			info.Group.IsolatedInExtract = append(info.Group.IsolatedInExtract, child)
		case g.params.ExtractIsolatedNodesWithAnnotationsOnOneSide &&
			child.InAnnotations.Len() > 0 && child.OutAnnotations.Len() == 0:
			child.IsOutExtract = true
			info.Group.IsolatedOutExtract = append(info.Group.IsolatedOutExtract, child)
		default:
			continue
		}
		child.Node.Include = hierarchy.InclusionExclude
		core.RemoveNode(name)
	}
}

// extractSpecifiedNodes moves every excluded child to the side where it has
// fewer edges, detaching all of its edges.
func (g *GraphInfo) extractSpecifiedNodes(info *NodeInfo) {
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil || child.Node.Include != hierarchy.InclusionExclude ||
			strings.HasPrefix(name, hierarchy.FunctionLibraryPrefix) {
			continue
		}
		if len(core.OutEdges(name)) > len(core.InEdges(name)) {
			g.makeOutExtract(info, name, true)
		} else {
			g.makeInExtract(info, name, true)
		}
	}
}

func (g *GraphInfo) extractPredefinedSink(info *NodeInfo) {
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil || child.Node.Include != hierarchy.InclusionUnspecified {
			continue
		}
		if hasTypeIn(child.Node, g.params.OutExtractTypes) {
			g.makeOutExtract(info, name, false)
		}
	}
}

func (g *GraphInfo) extractPredefinedSource(info *NodeInfo) {
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil || child.Node.Include != hierarchy.InclusionUnspecified {
			continue
		}
		if hasTypeIn(child.Node, g.params.InExtractTypes) {
			g.makeInExtract(info, name, false)
		}
	}
}

// hasTypeIn matches an op by its type and a metanode by the type of the op
// sharing its name.
func hasTypeIn(node *hierarchy.Node, types []string) bool {
	switch node.Type {
	case hierarchy.NodeTypeOp:
		return node.Op != nil && slices.Contains(types, node.Op.Op)
	case hierarchy.NodeTypeMeta:
		if root := node.RootOp(); root != nil && root.Op != nil {
			return slices.Contains(types, root.Op.Op)
		}
	}
	return false
}

// regularDegree counts the neighbors joined by at least one data edge,
// falling back to all neighbors when none are.
func regularDegree(core *CoreGraph, name string, neighbors []string, inbound bool) int {
	n := 0
	for _, other := range neighbors {
		var e *MetaedgeInfo
		if inbound {
			e, _ = core.Edge(other, name)
		} else {
			e, _ = core.Edge(name, other)
		}
		if e != nil && e.Metaedge != nil && e.Metaedge.NumRegularEdges > 0 {
			n++
		}
	}
	if n == 0 {
		return len(neighbors)
	}
	return n
}

// extractHighInOrOutDegree extracts degree outliers among the unspecified
// children, using an interquartile fence over in-degrees and a wider one
// over out-degrees. Scopes with fewer than MinNodeCountForExtraction
// candidates are left alone.
func (g *GraphInfo) extractHighInOrOutDegree(info *NodeInfo) {
	core := info.Group.CoreGraph
	var (
		candidates []string
		inDegree   = make(map[string]int)
		outDegree  = make(map[string]int)
	)
	for _, name := range core.Nodes() {
		child, _ := core.Node(name)
		if child == nil || child.Node.Include != hierarchy.InclusionUnspecified {
			continue
		}
		inDegree[name] = regularDegree(core, name, core.Predecessors(name), true)
		outDegree[name] = regularDegree(core, name, core.Successors(name), false)
		candidates = append(candidates, name)
	}
	n := len(candidates)
	if n == 0 || n < g.params.MinNodeCountForExtraction {
		return
	}

	minUpper := g.params.MinDegreeForExtraction - 1
	q3 := int(math.Round(float64(n) * 0.75))
	q1 := int(math.Round(float64(n) * 0.25))

	byIn := slices.Clone(candidates)
	slices.SortStableFunc(byIn, func(a, b string) int { return cmp.Compare(inDegree[a], inDegree[b]) })
	inQ3, inQ1 := inDegree[byIn[q3]], inDegree[byIn[q1]]
	inBound := max(inQ3+inQ3-inQ1, minUpper)
	for i := n - 1; i >= 0 && inDegree[byIn[i]] > inBound; i-- {
		g.makeInExtract(info, byIn[i], false)
	}

	byOut := slices.Clone(candidates)
	slices.SortStableFunc(byOut, func(a, b string) int { return cmp.Compare(outDegree[a], outDegree[b]) })
	outQ3, outQ1 := outDegree[byOut[q3]], outDegree[byOut[q1]]
	outBound := max(outQ3+(outQ3-outQ1)*4, minUpper)
	for i := n - 1; i >= 0 && outDegree[byOut[i]] > outBound; i-- {
		child, _ := core.Node(byOut[i])
		if child == nil || child.IsInExtract {
			continue
		}
		g.makeOutExtract(info, byOut[i], false)
	}
}

// removeControlEdges turns every control-only edge of a node with more than
// MaxControlDegree of them into a shortcut.
func (g *GraphInfo) removeControlEdges(info *NodeInfo) {
	core := info.Group.CoreGraph
	var (
		order  []string
		byNode = make(map[string][]graph.EdgeKey)
	)
	add := func(name string, key graph.EdgeKey) {
		if _, ok := byNode[name]; !ok {
			order = append(order, name)
		}
		byNode[name] = append(byNode[name], key)
	}
	for _, key := range core.Edges() {
		e, _ := core.Edge(key.V, key.W)
		if e == nil || e.Metaedge == nil || e.Metaedge.NumRegularEdges > 0 {
			continue
		}
		add(key.V, key)
		add(key.W, key)
	}
	for _, name := range order {
		edges := byNode[name]
		if len(edges) <= g.params.MaxControlDegree {
			continue
		}
		for _, e := range edges {
			g.createShortcut(core, e.V, e.W)
		}
	}
}

// makeOutExtract moves a node to the out-extract column: incoming edges
// become shortcuts, and outgoing ones too when forced or when
// DetachAllEdgesForHighDegree is set. A node left without edges leaves the
// core graph.
func (g *GraphInfo) makeOutExtract(info *NodeInfo, name string, force bool) {
	core := info.Group.CoreGraph
	child, _ := core.Node(name)
	if child == nil {
		return
	}
	child.IsOutExtract = true

	for _, p := range core.Predecessors(name) {
		g.createShortcut(core, p, name)
	}
	if g.params.DetachAllEdgesForHighDegree || force {
		for _, s := range core.Successors(name) {
			g.createShortcut(core, name, s)
		}
	}

	if len(core.Neighbors(name)) == 0 {
		child.Node.Include = hierarchy.InclusionExclude
		info.Group.IsolatedOutExtract = append(info.Group.IsolatedOutExtract, child)
		core.RemoveNode(name)
	}
}

// makeInExtract is the mirror image of makeOutExtract.
func (g *GraphInfo) makeInExtract(info *NodeInfo, name string, force bool) {
	core := info.Group.CoreGraph
	child, _ := core.Node(name)
	if child == nil {
		return
	}
	child.IsInExtract = true

	for _, s := range core.Successors(name) {
		g.createShortcut(core, name, s)
	}
	if g.params.DetachAllEdgesForHighDegree || force {
		for _, p := range core.Predecessors(name) {
			g.createShortcut(core, p, name)
		}
	}

	if len(core.Neighbors(name)) == 0 {
		child.Node.Include = hierarchy.InclusionExclude
		info.Group.IsolatedInExtract = append(info.Group.IsolatedInExtract, child)
		core.RemoveNode(name)
	}
}

// createShortcut replaces the core edge v->w with an out-annotation on v
// and an in-annotation on w. Edges touching a node the user forced into the
// core are kept unless the other end is excluded.
func (g *GraphInfo) createShortcut(core *CoreGraph, v, w string) {
	src, _ := core.Node(v)
	sink, _ := core.Node(w)
	edge, ok := core.Edge(v, w)
	if src == nil || sink == nil || !ok {
		return
	}
	srcInc, sinkInc := src.Node.Include, sink.Node.Include
	if (srcInc == hierarchy.InclusionInclude || sinkInc == hierarchy.InclusionInclude) &&
		srcInc != hierarchy.InclusionExclude && sinkInc != hierarchy.InclusionExclude {
		return
	}

	src.OutAnnotations.Push(NewAnnotation(sink.Node, sink, edge, AnnotationShortcut, false))
	sink.InAnnotations.Push(NewAnnotation(src.Node, src, edge, AnnotationShortcut, true))
	core.RemoveEdge(v, w)
}
