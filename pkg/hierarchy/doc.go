// Package hierarchy builds the tree of scopes that the render engine walks.
//
// A flat op graph ([GraphDef]) names its ops with "/"-separated scopes.
// [Build] turns those names into nested metanodes, each owning a metagraph
// of its direct children. Every op-to-op edge becomes a [BaseEdge] stored in
// a [Metaedge] of the lowest scope containing both endpoints, so a scope's
// metagraph shows how its children are connected without exposing what is
// inside them.
//
// # Bridgegraphs
//
// Edges leaving a scope are not part of its metagraph. [Hierarchy.Bridgegraph]
// derives them lazily from the parent's metagraph and bridgegraph, keyed by
// the immediate child on the inside and the node on the outside.
//
// # Embeddings
//
// Constants and summaries are folded into the op they feed or read from
// (in- and out-embeddings) so they never crowd the graph. They remain
// addressable by name and are rendered as annotations.
//
// # Library functions
//
// Functions of the graph library become root scopes named
// [FunctionLibraryPrefix] + function name. Ops calling a function keep their
// op type; the render engine clones the template into the call site when
// the caller's scope is expanded.
package hierarchy
