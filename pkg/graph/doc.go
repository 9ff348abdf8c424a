// Package graph provides the owned adjacency-map graph used throughout
// scopeview.
//
// A [Graph] is directed, keyed by node name and generic over its node and
// edge labels. It is also a compound graph: [Graph.SetParent] nests nodes
// inside other nodes without affecting edges, which is how bridge nodes are
// grouped into their IN/OUT containers.
//
// # Determinism
//
// Nodes, edges and adjacency lists enumerate in insertion order. Replacing a
// label in place keeps the original position. Algorithms built on top of the
// graph therefore produce the same result for the same sequence of calls,
// which the render engine relies on for idempotent builds.
//
// # Usage
//
//	g := graph.New[string, int]("example")
//	g.SetNode("a", "A")
//	g.SetNode("b", "B")
//	g.SetEdge("a", "b", 1)
//	g.Successors("a") // [b]
//
// # Concurrency
//
// Graph is not safe for concurrent use. Callers that share a graph across
// goroutines must serialize access.
package graph
