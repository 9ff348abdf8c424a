package render

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// BuildSubhierarchy populates the core graph of the scope called name:
// library function calls are inlined, children get render records, edges
// are copied over, declutter extraction runs and edges crossing the scope
// boundary are resolved into bridge paths or annotations.
//
// It runs at most once per name; later calls return immediately. Unknown
// names and leaf nodes are ignored.
func (g *GraphInfo) BuildSubhierarchy(name string) {
	if g.hasSubhierarchy[name] {
		return
	}
	g.hasSubhierarchy[name] = true

	info := g.NodeInfoOrCreate(name)
	if info == nil {
		g.logger.Warn("cannot build unknown scope", "name", name)
		return
	}
	node := info.Node
	if !node.IsGroup() || info.Group == nil {
		return
	}
	mg := node.Group.Metagraph
	core := info.Group.CoreGraph

	libs := g.h.LibraryFunctions()
	if len(libs) > 0 {
		g.inlineFunctionCalls(mg)
	}

	for _, childName := range mg.Nodes() {
		child := g.NodeInfoOrCreate(childName)
		if child == nil {
			g.logger.Warn("metagraph child missing from hierarchy", "scope", name, "child", childName)
			continue
		}
		core.SetNode(childName, child)

		if !child.Node.IsOp() {
			continue
		}
		for _, emb := range child.Node.Op.InEmbeddings {
			ei := newNodeInfo(emb, g.params.MaxAnnotations)
			child.InAnnotations.Push(NewAnnotation(emb, ei, NewMetaedgeInfo(nil), AnnotationConstant, true))
			g.index[emb.Name] = ei
		}
		for _, emb := range child.Node.Op.OutEmbeddings {
			ei := newNodeInfo(emb, g.params.MaxAnnotations)
			child.OutAnnotations.Push(NewAnnotation(emb, ei, NewMetaedgeInfo(nil), AnnotationSummary, false))
			g.index[emb.Name] = ei
		}
	}

	for _, key := range mg.Edges() {
		m, _ := mg.Edge(key.V, key.W)
		v, _ := core.Node(key.V)
		w, _ := core.Node(key.W)
		if v == nil || w == nil {
			g.logger.Warn("skipping edge with unrendered endpoint", "scope", name, "v", key.V, "w", key.W)
			continue
		}
		ei := NewMetaedgeInfo(m)
		ei.IsFadedOut = v.IsFadedOut || w.IsFadedOut
		core.SetEdge(key.V, key.W, ei)
	}

	if g.params.EnableExtraction && node.Type == hierarchy.NodeTypeMeta {
		g.extractHighDegrees(info)
	}

	if len(libs) > 0 {
		g.buildSubhierarchiesForNeededFunctions(mg)
	}

	if name == hierarchy.RootName {
		for _, op := range slices.Sorted(maps.Keys(libs)) {
			fn := libs[op]
			fi := g.NodeInfoOrCreate(fn.Node.Name)
			if fi == nil {
				continue
			}
			fi.IsLibraryFunction = true
			fi.Node.Include = hierarchy.InclusionExclude
			info.Group.LibraryFunctionsExtract = append(info.Group.LibraryFunctionsExtract, fi)
			core.RemoveNode(fn.Node.Name)
		}
	}

	if node.Parent == nil {
		g.logger.Debug("built scope", "name", name, "nodes", core.NodeCount(), "edges", core.EdgeCount())
		return
	}
	g.resolveBridges(info)
	g.logger.Debug("built scope", "name", name, "nodes", core.NodeCount(), "edges", core.EdgeCount())
}

// buildSubhierarchiesForNeededFunctions builds the scopes enclosing any
// function call feeding an edge of mg, so the call's body is spliced in
// before its edges are drawn.
func (g *GraphInfo) buildSubhierarchiesForNeededFunctions(mg *hierarchy.Metagraph) {
	libs := g.h.LibraryFunctions()
	for _, key := range mg.Edges() {
		m, _ := mg.Edge(key.V, key.W)
		if m == nil {
			continue
		}
		for _, be := range m.BaseEdges {
			parts := strings.Split(be.V, hierarchy.NamespaceDelim)
			for i := len(parts); i >= 0; i-- {
				prefix := parts[:i]
				n := g.h.Node(strings.Join(prefix, hierarchy.NamespaceDelim))
				if n == nil {
					continue
				}
				if n.IsOp() && libs[n.Op.Op] != nil {
					for j := 1; j < len(prefix); j++ {
						scope := strings.Join(prefix[:j], hierarchy.NamespaceDelim)
						if scope != "" {
							g.BuildSubhierarchy(scope)
						}
					}
				}
				break
			}
		}
	}
}

// bridgeName joins parts and the direction marker, for example
// "scope~~IN" or "other~~scope~~OUT".
func bridgeName(inbound bool, parts ...string) string {
	dir := "OUT"
	if inbound {
		dir = "IN"
	}
	return strings.Join(append(parts, dir), "~~")
}

// resolveBridges draws the edges that cross the boundary of the scope held
// by info. Each one either becomes a bridge path continuing an edge already
// drawn in the parent scope, or an annotation on the inside child when no
// such edge exists or the outside endpoint is too busy.
func (g *GraphInfo) resolveBridges(info *NodeInfo) {
	node := info.Node
	name := node.Name
	parent := node.Parent
	if !g.hasSubhierarchy[parent.Name] {
		g.BuildSubhierarchy(parent.Name)
	}
	parentInfo := g.index[parent.Name]
	if parentInfo == nil || parentInfo.Group == nil {
		g.logger.Warn("parent scope has no core graph", "scope", name, "parent", parent.Name)
		return
	}

	bg := g.h.Bridgegraph(name)
	if bg == nil {
		return
	}
	mg := node.Group.Metagraph
	core := info.Group.CoreGraph

	// Count, per outside node, how many inside children it connects to.
	var (
		inCounts      = make(map[string]int)
		outCounts     = make(map[string]int)
		controlCounts = make(map[string]int)
	)
	for _, key := range bg.Edges() {
		m, _ := bg.Edge(key.V, key.W)
		inbound := mg.HasNode(key.W)
		other := key.W
		if inbound {
			other = key.V
		}
		switch {
		case m.NumRegularEdges == 0:
			controlCounts[other]++
		case inbound:
			outCounts[other]++
		default:
			inCounts[other]++
		}
	}

	for _, key := range bg.Edges() {
		m, _ := bg.Edge(key.V, key.W)
		inbound := mg.HasNode(key.W)
		childName, otherName := key.V, key.W
		if inbound {
			childName, otherName = key.W, key.V
		}

		child := g.index[childName]
		if child == nil {
			g.logger.Warn("bridge endpoint has no render record", "scope", name, "child", childName)
			continue
		}
		other := g.index[otherName]
		var otherNode *hierarchy.Node
		if other != nil {
			otherNode = other.Node
		} else {
			otherNode = g.h.Node(otherName)
		}

		highControl := m.NumRegularEdges == 0 && controlCounts[otherName] > g.params.MaxControlDegree
		otherDegree := inCounts[otherName]
		if inbound {
			otherDegree = outCounts[otherName]
		}
		highDegree := otherDegree > g.params.MaxBridgePathDegree

		var adjoining *MetaedgeInfo
		canDraw := g.params.EnableBridgegraph && !highDegree && !highControl && child.IsInCore()
		if canDraw {
			adjoining = g.adjoiningMetaedge(parentInfo, inbound, name, otherName)
			if adjoining == nil {
				adjoining = g.adjoiningMetaedge(parentInfo, inbound, name, bridgeName(inbound, otherName, parent.Name))
			}
			canDraw = adjoining != nil
		}

		// Control edges pointing against the enclosing order stay annotations.
		if canDraw && m.NumRegularEdges == 0 && g.isBackwards(parentInfo, adjoining) {
			canDraw = false
		}

		if !canDraw {
			if otherNode == nil {
				g.logger.Warn("cannot annotate unknown node", "scope", name, "other", otherName)
				continue
			}
			list := child.OutAnnotations
			if inbound {
				list = child.InAnnotations
			}
			list.Push(NewAnnotation(otherNode, other, NewMetaedgeInfo(m), AnnotationShortcut, inbound))
			continue
		}

		containerName := bridgeName(inbound, name)
		bridgeNodeName := bridgeName(inbound, otherName, name)
		bridge, _ := core.Node(bridgeNodeName)
		if bridge == nil {
			container, _ := core.Node(containerName)
			if container == nil {
				container = newNodeInfo(hierarchy.NewBridgeNode(containerName, inbound, 0), g.params.MaxAnnotations)
				g.index[containerName] = container
				core.SetNode(containerName, container)
			}
			bridge = newNodeInfo(hierarchy.NewBridgeNode(bridgeNodeName, inbound, 1), g.params.MaxAnnotations)
			g.index[bridgeNodeName] = bridge
			core.SetNode(bridgeNodeName, bridge)
			if err := core.SetParent(bridgeNodeName, containerName); err != nil {
				g.logger.Warn("cannot group bridge node", "bridge", bridgeNodeName, "err", err)
			}
			container.Node.Cardinality++
		}

		ei := NewMetaedgeInfo(m)
		ei.AdjoiningMetaedge = adjoining
		if inbound {
			core.SetEdge(bridgeNodeName, childName, ei)
		} else {
			core.SetEdge(childName, bridgeNodeName, ei)
		}
	}

	g.padStructuralEdges(info)
}

// adjoiningMetaedge looks up the edge between scope and target in the
// parent's core graph, in the direction of the bridge edge.
func (g *GraphInfo) adjoiningMetaedge(parent *NodeInfo, inbound bool, scope, target string) *MetaedgeInfo {
	var e *MetaedgeInfo
	if inbound {
		e, _ = parent.Group.CoreGraph.Edge(target, scope)
	} else {
		e, _ = parent.Group.CoreGraph.Edge(scope, target)
	}
	return e
}

// isBackwards follows a chain of adjoining edges up to the scope that holds
// the real metaedge and reports whether that metaedge points against the
// scope's topological order.
func (g *GraphInfo) isBackwards(parent *NodeInfo, adjoining *MetaedgeInfo) bool {
	top := adjoining
	topGroup := parent.Node
	for top.AdjoiningMetaedge != nil {
		top = top.AdjoiningMetaedge
		topGroup = topGroup.Parent
		if topGroup == nil {
			return false
		}
	}
	if top.Metaedge == nil {
		return false
	}
	ordering := g.h.TopologicalOrdering(topGroup.Name)
	v, okV := ordering[top.Metaedge.V]
	w, okW := ordering[top.Metaedge.W]
	return okV && okW && v > w
}

// padStructuralEdges gives every core node without a predecessor (or
// successor) an invisible edge from the inbound (or outbound) bridge
// container, so the layout places bridges at the scope's edges.
func (g *GraphInfo) padStructuralEdges(info *NodeInfo) {
	core := info.Group.CoreGraph
	name := info.Node.Name
	for _, inbound := range []bool{true, false} {
		containerName := bridgeName(inbound, name)
		container, _ := core.Node(containerName)
		if container == nil {
			continue
		}
		for _, childName := range core.Nodes() {
			child, _ := core.Node(childName)
			if child == nil || child.Node.Type == hierarchy.NodeTypeBridge {
				continue
			}
			var linked int
			if inbound {
				linked = len(core.Predecessors(childName))
			} else {
				linked = len(core.Successors(childName))
			}
			if linked > 0 {
				continue
			}

			structName := bridgeName(inbound, name, "STRUCTURAL_TARGET")
			structural, _ := core.Node(structName)
			if structural == nil {
				structural = newNodeInfo(hierarchy.NewBridgeNode(structName, inbound, 1), g.params.MaxAnnotations)
				structural.Structural = true
				g.index[structName] = structural
				container.Node.Cardinality++
				core.SetNode(structName, structural)
				if err := core.SetParent(structName, containerName); err != nil {
					g.logger.Warn("cannot group structural node", "node", structName, "err", err)
				}
			}

			ei := NewMetaedgeInfo(nil)
			ei.Structural = true
			ei.Weight--
			if inbound {
				core.SetEdge(structName, childName, ei)
			} else {
				core.SetEdge(childName, structName, ei)
			}
		}
	}
}
