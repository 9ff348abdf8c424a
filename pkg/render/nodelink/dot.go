package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
	"github.com/matzehuels/scopeview/pkg/render"
)

// ColorBy selects what a node's fill color encodes.
type ColorBy string

const (
	ColorByStructure   ColorBy = "structure"
	ColorByDevice      ColorBy = "device"
	ColorByXLACluster  ColorBy = "xla_cluster"
	ColorByMemory      ColorBy = "memory"
	ColorByComputeTime ColorBy = "compute_time"
)

// ValidColorBy lists the accepted [ColorBy] values.
var ValidColorBy = []string{
	string(ColorByStructure), string(ColorByDevice), string(ColorByXLACluster),
	string(ColorByMemory), string(ColorByComputeTime),
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the op type to node labels and tensor shapes to edges.
	Detailed bool
	// Annotations draws each node's annotations as small side labels.
	Annotations bool
	// Extracts draws the isolated and library columns next to the core.
	Extracts bool
	ColorBy  ColorBy
}

const (
	fadedColor  = "#bbbbbb"
	opFill      = "white"
	bridgeColor = "#888888"
)

// ToDOT converts the built scope info to Graphviz DOT. Bridge containers
// become dashed clusters holding their bridge nodes; structural nodes and
// edges are invisible but still steer the layout.
func ToDOT(g *render.GraphInfo, info *render.NodeInfo, opts Options) string {
	core := info.Group.CoreGraph

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", info.Name())
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	cluster := 0
	for _, name := range core.Nodes() {
		ni, _ := core.Node(name)
		if ni == nil || core.Parent(name) != "" {
			continue
		}
		if children := core.Children(name); len(children) > 0 {
			fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", cluster)
			cluster++
			fmt.Fprintf(&buf, "    label=%q; style=dashed; color=%q; fontcolor=%q;\n", containerLabel(ni), bridgeColor, bridgeColor)
			for _, c := range children {
				child, _ := core.Node(c)
				if child != nil {
					fmt.Fprintf(&buf, "    %q [%s];\n", c, strings.Join(fmtAttrs(child, opts), ", "))
				}
			}
			buf.WriteString("  }\n")
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(fmtAttrs(ni, opts), ", "))
	}

	if opts.Extracts {
		writeColumn(&buf, &cluster, "in", info.Group.IsolatedInExtract, opts)
		writeColumn(&buf, &cluster, "out", info.Group.IsolatedOutExtract, opts)
		writeColumn(&buf, &cluster, "functions", info.Group.LibraryFunctionsExtract, opts)
	}

	buf.WriteString("\n")
	for _, key := range core.Edges() {
		ei, _ := core.Edge(key.V, key.W)
		if ei == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", key.V, key.W, strings.Join(fmtEdgeAttrs(g, ei, opts), ", "))
	}

	if opts.Annotations {
		for _, name := range core.Nodes() {
			ni, _ := core.Node(name)
			if ni == nil {
				continue
			}
			writeAnnotations(&buf, ni, ni.InAnnotations, "in")
			writeAnnotations(&buf, ni, ni.OutAnnotations, "out")
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func containerLabel(ni *render.NodeInfo) string {
	if ni.Node.Bridge != nil && ni.Node.Bridge.Inbound {
		return "IN"
	}
	return "OUT"
}

func writeColumn(buf *bytes.Buffer, cluster *int, label string, infos []*render.NodeInfo, opts Options) {
	if len(infos) == 0 {
		return
	}
	fmt.Fprintf(buf, "  subgraph \"cluster_%d\" {\n", *cluster)
	*cluster++
	fmt.Fprintf(buf, "    label=%q; style=dotted; color=%q; fontcolor=%q;\n", label, bridgeColor, bridgeColor)
	for _, ni := range infos {
		fmt.Fprintf(buf, "    %q [%s];\n", ni.Name(), strings.Join(fmtAttrs(ni, opts), ", "))
	}
	buf.WriteString("  }\n")
}

func writeAnnotations(buf *bytes.Buffer, ni *render.NodeInfo, list *render.AnnotationList, side string) {
	if list == nil {
		return
	}
	for i, a := range list.List {
		id := fmt.Sprintf("%s::%s::%d", ni.Name(), side, i)
		fmt.Fprintf(buf, "  %q [label=%q, shape=plaintext, style=\"\", fontsize=10, fontcolor=%q];\n",
			id, annotationLabel(a), bridgeColor)
		if side == "in" {
			fmt.Fprintf(buf, "  %q -> %q [style=dotted, color=%q];\n", id, ni.Name(), bridgeColor)
		} else {
			fmt.Fprintf(buf, "  %q -> %q [style=dotted, color=%q];\n", ni.Name(), id, bridgeColor)
		}
	}
}

func annotationLabel(a *render.Annotation) string {
	if a.NodeInfo != nil && a.NodeInfo.DisplayName != "" {
		return a.NodeInfo.DisplayName
	}
	return a.Node.Name
}

func fmtLabel(ni *render.NodeInfo, detailed bool) string {
	label := ni.DisplayName
	if label == "" {
		label = ni.Name()
	}
	if !detailed {
		return label
	}
	switch {
	case ni.Node.IsOp():
		return label + "\n" + ni.Node.Op.Op
	case ni.Node.IsGroup():
		return label + "\n" + strconv.Itoa(ni.Node.Cardinality) + " nodes"
	}
	return label
}

func fmtAttrs(ni *render.NodeInfo, opts Options) []string {
	if ni.Structural {
		return []string{`label=""`, "style=invis", "width=0.1", "height=0.1"}
	}

	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(ni, opts.Detailed))}
	switch ni.Node.Type {
	case hierarchy.NodeTypeMeta:
		attrs = append(attrs, "shape=box3d")
	case hierarchy.NodeTypeSeries:
		attrs = append(attrs, "shape=folder")
	case hierarchy.NodeTypeBridge:
		attrs = append(attrs, "shape=ellipse", "style=\"filled,dashed\"", "fontsize=10")
	}
	if fill := fillColor(ni, opts.ColorBy); fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	if ni.IsFadedOut {
		attrs = append(attrs, fmt.Sprintf("fontcolor=%q", fadedColor), fmt.Sprintf("color=%q", fadedColor))
	}
	return attrs
}

// fillColor picks the node fill for the chosen encoding. Histogram-based
// encodings use the dominant band, since DOT fills with a single color.
func fillColor(ni *render.NodeInfo, by ColorBy) string {
	switch by {
	case ColorByDevice:
		return dominant(ni.DeviceColors)
	case ColorByXLACluster:
		return dominant(ni.XLAClusterColors)
	case ColorByMemory:
		return ni.MemoryColor
	case ColorByComputeTime:
		return ni.ComputeTimeColor
	}
	switch ni.Node.Type {
	case hierarchy.NodeTypeMeta:
		return render.StructurePalette(0, ni.Expanded)
	case hierarchy.NodeTypeSeries:
		return render.StructurePalette(1, ni.Expanded)
	case hierarchy.NodeTypeOp:
		return opFill
	}
	return ""
}

func dominant(bands []render.ColorProportion) string {
	best := ""
	share := -1.0
	for _, b := range bands {
		if b.Proportion > share {
			best, share = b.Color, b.Proportion
		}
	}
	return best
}

func fmtEdgeAttrs(g *render.GraphInfo, ei *render.MetaedgeInfo, opts Options) []string {
	if ei.Structural {
		return []string{"style=invis", "weight=" + strconv.Itoa(max(ei.Weight, 0))}
	}
	attrs := []string{
		fmt.Sprintf("penwidth=%.2f", g.EdgeWidth(ei)),
		"weight=" + strconv.Itoa(max(ei.Weight, 0)),
	}
	if ei.Metaedge != nil && ei.Metaedge.IsControlOnly() {
		attrs = append(attrs, "style=dashed")
	}
	if ei.IsFadedOut {
		attrs = append(attrs, fmt.Sprintf("color=%q", fadedColor))
	}
	if opts.Detailed && ei.Metaedge != nil {
		if label := g.EdgeLabel(ei.Metaedge); label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", label), "fontsize=10")
		}
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
