package graph

import (
	"errors"
	"slices"
	"testing"
)

func TestGraph_SetNodeKeepsPosition(t *testing.T) {
	g := New[string, int]("g")
	g.SetNode("a", "1")
	g.SetNode("b", "2")
	g.SetEdge("a", "b", 7)
	g.SetNode("a", "replaced")

	if got := g.Nodes(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Nodes() = %v, want [a b]", got)
	}
	if v, _ := g.Node("a"); v != "replaced" {
		t.Errorf("Node(a) = %q, want replaced", v)
	}
	if !g.HasEdge("a", "b") {
		t.Error("SetNode on existing node should keep its edges")
	}
}

func TestGraph_SetEdgeCreatesEndpoints(t *testing.T) {
	g := New[*int, string]("g")
	g.SetEdge("x", "y", "e")

	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if v, ok := g.Node("x"); !ok || v != nil {
		t.Errorf("Node(x) = %v, %v, want nil label and true", v, ok)
	}
}

func TestGraph_RemoveNode(t *testing.T) {
	g := New[int, int]("g")
	for i, n := range []string{"a", "b", "c"} {
		g.SetNode(n, i)
	}
	g.SetEdge("a", "b", 1)
	g.SetEdge("b", "c", 1)
	g.SetEdge("a", "c", 1)

	g.RemoveNode("b")

	if g.HasNode("b") {
		t.Error("b should be removed")
	}
	if got := g.Edges(); !slices.Equal(got, []EdgeKey{{V: "a", W: "c"}}) {
		t.Errorf("Edges() = %v, want [{a c}]", got)
	}
	if got := g.Successors("a"); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Successors(a) = %v, want [c]", got)
	}
	if got := g.Predecessors("c"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Predecessors(c) = %v, want [a]", got)
	}

	g.RemoveNode("missing")
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := New[int, int]("g")
	g.SetNode("a", 0)
	g.SetNode("b", 0)
	g.SetEdge("a", "b", 1)
	g.SetEdge("b", "a", 2)

	g.RemoveEdge("a", "b")

	if g.HasEdge("a", "b") {
		t.Error("a->b should be removed")
	}
	if !g.HasEdge("b", "a") {
		t.Error("b->a should be untouched")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestGraph_Neighbors(t *testing.T) {
	g := New[int, int]("g")
	for _, n := range []string{"a", "b", "c"} {
		g.SetNode(n, 0)
	}
	g.SetEdge("a", "b", 1)
	g.SetEdge("b", "a", 1)
	g.SetEdge("b", "c", 1)

	if got := g.Neighbors("b"); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Neighbors(b) = %v, want [a c]", got)
	}
	if got := g.Neighbors("missing"); got != nil {
		t.Errorf("Neighbors(missing) = %v, want nil", got)
	}
}

func TestGraph_InOutEdges(t *testing.T) {
	g := New[int, int]("g")
	for _, n := range []string{"a", "b", "c"} {
		g.SetNode(n, 0)
	}
	g.SetEdge("a", "c", 1)
	g.SetEdge("b", "c", 1)

	if got := len(g.InEdges("c")); got != 2 {
		t.Errorf("len(InEdges(c)) = %d, want 2", got)
	}
	if got := len(g.OutEdges("c")); got != 0 {
		t.Errorf("len(OutEdges(c)) = %d, want 0", got)
	}
}

func TestGraph_SetParent(t *testing.T) {
	tests := []struct {
		name    string
		child   string
		parent  string
		wantErr error
	}{
		{name: "Valid", child: "leaf", parent: "box"},
		{name: "UnknownChild", child: "nope", parent: "box", wantErr: ErrUnknownNode},
		{name: "UnknownParent", child: "leaf", parent: "nope", wantErr: ErrUnknownNode},
		{name: "Self", child: "box", parent: "box", wantErr: ErrParentCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New[int, int]("g")
			g.SetNode("box", 0)
			g.SetNode("leaf", 0)
			err := g.SetParent(tt.child, tt.parent)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetParent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGraph_RemoveCompoundNode(t *testing.T) {
	g := New[int, int]("g")
	g.SetNode("box", 0)
	g.SetNode("leaf", 0)
	if err := g.SetParent("leaf", "box"); err != nil {
		t.Fatal(err)
	}

	g.RemoveNode("box")

	if p := g.Parent("leaf"); p != "" {
		t.Errorf("Parent(leaf) = %q, want top level", p)
	}
	if got := g.Children(""); !slices.Equal(got, []string{"leaf"}) {
		t.Errorf("Children(\"\") = %v, want [leaf]", got)
	}
}

func TestGraph_EdgesInsertionOrder(t *testing.T) {
	g := New[int, int]("g")
	for _, n := range []string{"a", "b", "c"} {
		g.SetNode(n, 0)
	}
	g.SetEdge("c", "a", 1)
	g.SetEdge("a", "b", 1)
	g.SetEdge("b", "c", 1)
	g.SetEdge("c", "a", 5)

	want := []EdgeKey{{V: "c", W: "a"}, {V: "a", W: "b"}, {V: "b", W: "c"}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	if v, _ := g.Edge("c", "a"); v != 5 {
		t.Errorf("Edge(c, a) = %d, want 5", v)
	}
}
