package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
	"github.com/matzehuels/scopeview/pkg/render"
)

func chain(t *testing.T) *render.GraphInfo {
	t.Helper()
	h, err := hierarchy.Build(&hierarchy.GraphDef{Nodes: []hierarchy.OpDef{
		{Name: "z", Op: "Placeholder"},
		{Name: "a/b", Op: "Relu", Input: []string{"z"}},
		{Name: "a/c", Op: "Relu", Input: []string{"a/b", "^z"}},
		{Name: "y", Op: "Identity", Input: []string{"a/c"}},
	}}, hierarchy.DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return render.New(h)
}

func TestToDOT_Root(t *testing.T) {
	g := chain(t)
	dot := ToDOT(g, g.Root(), Options{})

	for _, want := range []string{
		`digraph "__root__"`,
		`"a" [label="a", shape=box3d`,
		`"z" [label="z"`,
		`"z" -> "a"`,
		`"a" -> "y"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "cluster_") {
		t.Error("ToDOT() of the root should have no bridge clusters")
	}
}

func TestToDOT_Bridges(t *testing.T) {
	g := chain(t)
	info, ok := g.Scope("a")
	if !ok {
		t.Fatal(`Scope("a") not found`)
	}
	dot := ToDOT(g, info, Options{})

	for _, want := range []string{
		`label="IN"`,
		`label="OUT"`,
		`"z~~a~~IN" [label="z~~a~~IN", shape=ellipse`,
		`"z~~a~~IN" -> "a/b"`,
		`"a/c" -> "y~~a~~OUT"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"a~~IN" [`) {
		t.Error("ToDOT() should draw containers as clusters, not nodes")
	}
}

func TestToDOT_Annotations(t *testing.T) {
	g := chain(t)
	info, _ := g.Scope("a")
	bi := g.NodeInfo("a/b")
	bi.OutAnnotations.Push(render.NewAnnotation(g.Node("y"), g.NodeInfo("y"), nil, render.AnnotationShortcut, false))

	dot := ToDOT(g, info, Options{Annotations: true})
	if !strings.Contains(dot, `"a/b::out::0" [label="y", shape=plaintext`) {
		t.Errorf("ToDOT() missing annotation label in:\n%s", dot)
	}
	if !strings.Contains(dot, `"a/b" -> "a/b::out::0" [style=dotted`) {
		t.Errorf("ToDOT() missing annotation edge in:\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	g := chain(t)
	if _, ok := g.Scope("a"); !ok {
		t.Fatal(`Scope("a") not found`)
	}
	b := g.NodeInfo("a/b")

	if got := fmtLabel(b, false); got != "b" {
		t.Errorf("fmtLabel() = %q, want %q", got, "b")
	}
	if got := fmtLabel(b, true); got != "b\nRelu" {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, "b\nRelu")
	}
	if got := fmtLabel(g.NodeInfo("a"), true); got != "a\n2 nodes" {
		t.Errorf("fmtLabel() detailed metanode = %q, want %q", got, "a\n2 nodes")
	}
}

func TestFmtAttrs_Structural(t *testing.T) {
	ni := &render.NodeInfo{Node: hierarchy.NewBridgeNode("x", true, 1), Structural: true}
	attrs := strings.Join(fmtAttrs(ni, Options{}), " ")
	if !strings.Contains(attrs, "style=invis") {
		t.Errorf("fmtAttrs() structural = %q, want invisible", attrs)
	}
}

func TestFillColor(t *testing.T) {
	ni := &render.NodeInfo{
		Node:         hierarchy.NewOpNode("x", "Relu"),
		DeviceColors: []render.ColorProportion{{Color: "#111111", Proportion: 0.25}, {Color: "#222222", Proportion: 0.75}},
		MemoryColor:  "#fb6a4a",
	}
	tests := []struct {
		by   ColorBy
		want string
	}{
		{ColorByStructure, opFill},
		{ColorByDevice, "#222222"},
		{ColorByXLACluster, ""},
		{ColorByMemory, "#fb6a4a"},
		{ColorByComputeTime, ""},
	}
	for _, tt := range tests {
		if got := fillColor(ni, tt.by); got != tt.want {
			t.Errorf("fillColor(%s) = %q, want %q", tt.by, got, tt.want)
		}
	}
}

func TestFmtEdgeAttrs(t *testing.T) {
	g := chain(t)

	control := render.NewMetaedgeInfo(&hierarchy.Metaedge{NumControlEdges: 1, TotalSize: 1})
	if got := strings.Join(fmtEdgeAttrs(g, control, Options{}), " "); !strings.Contains(got, "style=dashed") {
		t.Errorf("fmtEdgeAttrs() control = %q, want dashed", got)
	}

	structural := render.NewMetaedgeInfo(nil)
	structural.Structural = true
	structural.Weight = 0
	if got := strings.Join(fmtEdgeAttrs(g, structural, Options{}), " "); got != "style=invis weight=0" {
		t.Errorf("fmtEdgeAttrs() structural = %q, want %q", got, "style=invis weight=0")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	g := chain(t)
	info, _ := g.Scope("a")
	svg, err := RenderSVG(context.Background(), ToDOT(g, info, Options{Detailed: true, Annotations: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
