// Package render turns a scope hierarchy into drawable graphs, one scope at
// a time.
//
// # Overview
//
// A [hierarchy.Hierarchy] holds every op of a computation graph nested into
// named scopes. Drawing it whole is unreadable, so [GraphInfo] builds a
// small layout graph, the core graph, for each scope the user expands:
//
//	h, err := hierarchy.Build(def, hierarchy.DefaultBuildParams())
//	g := render.New(h)
//	g.BuildSubhierarchy("encoder")
//	core := g.NodeInfo("encoder").Group.CoreGraph
//
// Building is lazy and happens at most once per scope. The root is built
// and expanded by [New].
//
// # Extraction
//
// Large scopes are decluttered before drawing. Nodes with outlying in- or
// out-degree, sink and source op types listed in [Params], and nodes with
// too many control edges are pulled out of the core graph. Their edges
// become annotations: small labels on the side of the remaining endpoint.
// Each side shows at most [Params.MaxAnnotations] entries; the rest fold
// into a single "... N more" ellipsis.
//
// # Bridges
//
// An edge that crosses a scope boundary is drawn in both scopes. Inside the
// expanded scope it ends at a bridge node, grouped under an IN or OUT
// container, that continues the edge already drawn one level up. Busy
// outside endpoints, extracted children and control edges pointing against
// the data flow fall back to annotations instead. Structural edges pad the
// containers so they are laid out at the top and bottom of the scope.
//
// # Library functions
//
// Calls to functions from the graph's library are ops until their scope is
// built. Then each call is replaced by a renamed copy of the function body,
// with the call's inputs and consumers rewired to the copy's argument ops.
//
// Names of synthetic nodes follow the "~~" convention:
//
//	scope~~IN                       inbound bridge container
//	other~~scope~~IN                bridge node standing in for other
//	scope~~STRUCTURAL_TARGET~~IN    padding node
package render
