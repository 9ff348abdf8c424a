// Package pkg provides the core libraries for scopeview, a viewer for
// hierarchical computation graphs.
//
// # Overview
//
// Scopeview takes a flat graph of ops whose names encode nested scopes
// ("encoder/layer_0/MatMul") and draws one scope at a time. Edges leaving
// the scope end at bridge nodes, noisy nodes are extracted to the side and
// their edges shrink to annotations. The pkg directory is organized as:
//
//  1. [graph] - Generic directed multigraph used at every level
//  2. [hierarchy] - Scope tree, metagraphs and lifted metaedges
//  3. [render] - Per-scope render graphs (bridges, extraction, annotations)
//  4. [pipeline] - Orchestration (load → hierarchy → expand → render)
//  5. [io] - Graph import and scope export as JSON
//
// # Architecture
//
// The typical data flow through scopeview:
//
//	graph.json (+ step stats)
//	         ↓
//	    [io] package (decode op graph)
//	         ↓
//	    [hierarchy] package (group ops into scopes)
//	         ↓
//	    [render] package (build the requested scope)
//	         ↓
//	    [render/nodelink] package (Graphviz DOT and SVG)
//
// # Quick Start
//
//	def, _ := io.ImportJSON("graph.json")
//	h, _ := hierarchy.Build(def, hierarchy.DefaultBuildParams())
//	g := render.New(h)
//	info, _ := g.Scope("encoder")
//	dot := nodelink.ToDOT(g, info, nodelink.Options{Annotations: true})
//
// # Supporting Packages
//
// [cache] - File-backed artifact cache. SVG output is keyed by a hash of
// its DOT source.
//
// [observability] - Hook interfaces for pipeline stages and built scopes,
// no-ops unless a caller registers its own.
//
// [errors] - Coded errors with user-facing messages and exit codes.
//
// [buildinfo] - Version information set at link time.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/graph
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/hierarchy
// [render]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/scopeview/pkg/buildinfo
package pkg
