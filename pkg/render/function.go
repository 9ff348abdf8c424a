package render

import (
	"maps"
	"strconv"
	"strings"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// inlineFunctionCalls replaces every call site in mg with a copy of the
// called function's body, so the call can be expanded like any scope.
// Templates under the library prefix are left alone.
func (g *GraphInfo) inlineFunctionCalls(mg *hierarchy.Metagraph) {
	type call struct {
		site  *hierarchy.Node
		clone *hierarchy.Node
	}
	var calls []call
	for _, name := range mg.Nodes() {
		site, _ := mg.Node(name)
		if site == nil || !site.IsOp() {
			continue
		}
		fn := g.h.LibraryFunctions()[site.Op.Op]
		if fn == nil || strings.HasPrefix(name, hierarchy.FunctionLibraryPrefix) {
			continue
		}
		clone := g.cloneFunctionLibraryMetanode(mg, site, fn.Node, fn.Node.Name, site.Name)
		calls = append(calls, call{site: site, clone: clone})
	}

	for _, c := range calls {
		c.clone.Parent = c.site.Parent
		mg.SetNode(c.site.Name, c.clone)
		g.h.SetNode(c.site.Name, c.clone)
	}
}

// cloneFunctionLibraryMetanode copies the template lib, renaming oldPrefix to
// newPrefix throughout, and rewires the call site's edges to the copy's
// input and output args.
func (g *GraphInfo) cloneFunctionLibraryMetanode(mg *hierarchy.Metagraph, site, lib *hierarchy.Node, oldPrefix, newPrefix string) *hierarchy.Node {
	outputs := make(map[string]*hierarchy.Node)
	clone := g.cloneFunctionLibraryMetanodeHelper(mg, site, lib, oldPrefix, newPrefix, outputs)
	if len(outputs) > 0 {
		g.patchEdgesFromFunctionOutputs(site, outputs)
	}
	return clone
}

func (g *GraphInfo) cloneFunctionLibraryMetanodeHelper(mg *hierarchy.Metagraph, site, lib *hierarchy.Node, oldPrefix, newPrefix string, outputs map[string]*hierarchy.Node) *hierarchy.Node {
	clone := hierarchy.NewMetanode(strings.Replace(lib.Name, oldPrefix, newPrefix, 1))
	clone.Cardinality = lib.Cardinality
	clone.Include = lib.Include
	clone.Attributes = hierarchy.CloneAttributes(lib.Attributes)

	src, dst := lib.Group, clone.Group
	dst.Depth = src.Depth
	dst.TemplateID = src.TemplateID
	dst.OpHistogram = maps.Clone(src.OpHistogram)
	dst.DeviceHistogram = maps.Clone(src.DeviceHistogram)
	dst.XLAClusterHistogram = maps.Clone(src.XLAClusterHistogram)
	dst.Compatibility = src.Compatibility
	dst.HasNonControlEdges = src.HasNonControlEdges
	dst.AssociatedFunction = src.AssociatedFunction

	for _, name := range src.Metagraph.Nodes() {
		child, _ := src.Metagraph.Node(name)
		switch {
		case child == nil:
			g.logger.Warn("function template child has no node", "template", lib.Name, "child", name)
		case child.Type == hierarchy.NodeTypeMeta:
			inner := g.cloneFunctionLibraryMetanodeHelper(mg, site, child, oldPrefix, newPrefix, outputs)
			inner.Parent = clone
			dst.Metagraph.SetNode(inner.Name, inner)
			g.h.SetNode(inner.Name, inner)
		case child.IsOp():
			op := g.cloneAndAddFunctionOpNode(clone, oldPrefix, child, newPrefix)
			if op.Op.IsFunctionInput() {
				g.patchEdgesIntoFunctionInputs(site, op)
			}
			if op.Op.IsFunctionOutput() {
				outputs[strconv.Itoa(op.Op.FunctionOutputIndex)] = op
			}
		default:
			g.logger.Warn("function template child is neither scope nor op", "template", lib.Name, "child", name, "type", child.Type)
		}
	}

	g.cloneLibraryMetanodeEdges(lib, clone, oldPrefix, newPrefix)
	return clone
}

// cloneAndAddFunctionOpNode copies a template op into parent under its
// renamed name. Embedded constants and summaries are copied the same way.
// An op already present under the new name is returned as is.
func (g *GraphInfo) cloneAndAddFunctionOpNode(parent *hierarchy.Node, libName string, node *hierarchy.Node, newPrefix string) *hierarchy.Node {
	mg := parent.Group.Metagraph
	name := strings.Replace(node.Name, libName, newPrefix, 1)
	if existing, _ := mg.Node(name); existing != nil {
		return existing
	}

	op := hierarchy.NewOpNode(name, node.Op.Op)
	op.Cardinality = node.Cardinality
	op.Include = node.Include
	op.Attributes = hierarchy.CloneAttributes(node.Attributes)
	op.Op.Device = node.Op.Device
	op.Op.XLACluster = node.Op.XLACluster
	op.Op.Compatible = node.Op.Compatible
	op.Op.OutputShapes = hierarchy.CloneShapes(node.Op.OutputShapes)
	op.Op.FunctionInputIndex = node.Op.FunctionInputIndex
	op.Op.FunctionOutputIndex = node.Op.FunctionOutputIndex

	op.Op.Inputs = make([]hierarchy.NormalizedInput, len(node.Op.Inputs))
	for i, in := range node.Op.Inputs {
		in.Name = strings.Replace(in.Name, libName, newPrefix, 1)
		op.Op.Inputs[i] = in
	}

	op.Parent = parent
	mg.SetNode(name, op)
	g.h.SetNode(name, op)

	for _, emb := range node.Op.InEmbeddings {
		op.Op.InEmbeddings = append(op.Op.InEmbeddings, g.cloneAndAddFunctionOpNode(parent, libName, emb, newPrefix))
	}
	for _, emb := range node.Op.OutEmbeddings {
		op.Op.OutEmbeddings = append(op.Op.OutEmbeddings, g.cloneAndAddFunctionOpNode(parent, libName, emb, newPrefix))
	}
	return op
}

// cloneLibraryMetanodeEdges copies the metaedges of lib into clone with
// renamed endpoints. Base edges are copied; the copies do not share state
// with the template.
func (g *GraphInfo) cloneLibraryMetanodeEdges(lib, clone *hierarchy.Node, oldPrefix, newPrefix string) {
	src, dst := lib.Group.Metagraph, clone.Group.Metagraph
	for _, key := range src.Edges() {
		e, _ := src.Edge(key.V, key.W)
		if e == nil {
			continue
		}
		v := strings.Replace(e.V, oldPrefix, newPrefix, 1)
		w := strings.Replace(e.W, oldPrefix, newPrefix, 1)

		m := hierarchy.NewMetaedge(v, w)
		m.Inbound = e.Inbound
		m.NumRegularEdges = e.NumRegularEdges
		m.NumControlEdges = e.NumControlEdges
		m.NumRefEdges = e.NumRefEdges
		m.TotalSize = e.TotalSize
		m.BaseEdges = make([]*hierarchy.BaseEdge, len(e.BaseEdges))
		for i, be := range e.BaseEdges {
			cp := *be
			cp.V = strings.Replace(be.V, oldPrefix, newPrefix, 1)
			cp.W = strings.Replace(be.W, oldPrefix, newPrefix, 1)
			m.BaseEdges[i] = &cp
		}

		if dst.HasNode(w) {
			dst.SetEdge(v, w, m)
		} else {
			dst.SetEdge(w, v, m)
		}
	}
}

// patchEdgesIntoFunctionInputs wires the call site's input for the arg op
// into the cloned body: the arg op gets the input, and the base edges that
// delivered it to the call site now end at the arg op.
func (g *GraphInfo) patchEdgesIntoFunctionInputs(site, arg *hierarchy.Node) {
	inputs := site.Op.Inputs
	if len(inputs) == 0 {
		g.logger.Warn("function call has no inputs", "call", site.Name, "arg", arg.Name)
		return
	}
	// Trailing duplicate inputs are collapsed, so clamp to the last one.
	idx := min(arg.Op.FunctionInputIndex, len(inputs)-1)
	for idx < len(inputs) && inputs[idx].IsControlDependency {
		idx++
	}
	if idx >= len(inputs) {
		g.logger.Warn("no data input left for function arg", "call", site.Name, "arg", arg.Name)
		return
	}
	arg.Op.Inputs = append(arg.Op.Inputs, inputs[idx])

	var original *hierarchy.Metaedge
	count := 0
	for _, m := range g.h.Predecessors(site.Name).Regular {
		count += m.NumRegularEdges
		if count > idx {
			original = m
			break
		}
	}
	if original == nil {
		return
	}
	for _, be := range original.BaseEdges {
		if be.W == site.Name {
			be.W = arg.Name
		}
		if be.V == site.Name {
			be.V = arg.Name
		}
	}
}

// patchEdgesFromFunctionOutputs makes the call site's consumers read from
// the cloned output args, keyed by output index.
func (g *GraphInfo) patchEdgesFromFunctionOutputs(site *hierarchy.Node, outputs map[string]*hierarchy.Node) {
	for _, m := range g.h.Successors(site.Name).Regular {
		for _, be := range m.BaseEdges {
			dst := g.h.Node(be.W)
			if dst == nil || !dst.IsOp() {
				continue
			}
			for i := range dst.Op.Inputs {
				in := &dst.Op.Inputs[i]
				if in.Name != site.Name {
					continue
				}
				out := outputs[in.OutputTensorKey]
				if out == nil {
					g.logger.Warn("call output has no matching arg", "call", site.Name, "key", in.OutputTensorKey)
					continue
				}
				in.Name = out.Name
				in.OutputTensorKey = be.OutputTensorKey
			}
		}

		for _, be := range m.BaseEdges {
			out := outputs[be.OutputTensorKey]
			if out == nil {
				continue
			}
			be.V = out.Name
			be.OutputTensorKey = "0"
		}
	}
}
