// Package nodelink draws one scope of a render graph as a node-link diagram.
//
// # Usage
//
// Build the scope, convert it to DOT, then render to SVG:
//
//	info, ok := g.Scope("encoder")
//	dot := nodelink.ToDOT(g, info, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # What Is Drawn
//
// The core graph of the scope, top to bottom. Metanodes are 3D boxes,
// series are folders and bridge nodes are dashed ellipses grouped in IN
// and OUT clusters. Control-only edges are dashed and stroke width follows
// the tensor size of the edge. Structural padding is emitted invisibly so
// Graphviz still ranks the bridge clusters at the top and bottom.
//
// With [Options.Annotations] each node's annotations become small labels
// joined by dotted edges. With [Options.Extracts] the isolated extract
// columns and the library functions are added as dotted clusters.
//
// # Colors
//
// [Options.ColorBy] picks the fill: the structure palette by default, or
// the dominant device or XLA cluster band, or the memory or compute-time
// ramp computed by the engine.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
