package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/render"
)

type scope struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	Nodes            []node   `json:"nodes"`
	Edges            []edge   `json:"edges"`
	IsolatedIn       []string `json:"isolated_in,omitempty"`
	IsolatedOut      []string `json:"isolated_out,omitempty"`
	LibraryFunctions []string `json:"library_functions,omitempty"`
}

type node struct {
	Name           string       `json:"name"`
	DisplayName    string       `json:"display_name"`
	Type           string       `json:"type"`
	Op             string       `json:"op,omitempty"`
	Parent         string       `json:"parent,omitempty"`
	Cardinality    int          `json:"cardinality,omitempty"`
	Expanded       bool         `json:"expanded,omitempty"`
	Structural     bool         `json:"structural,omitempty"`
	FadedOut       bool         `json:"faded_out,omitempty"`
	InAnnotations  []annotation `json:"in_annotations,omitempty"`
	OutAnnotations []annotation `json:"out_annotations,omitempty"`
	DeviceColors   []band       `json:"device_colors,omitempty"`
	MemoryColor    string       `json:"memory_color,omitempty"`
	ComputeColor   string       `json:"compute_time_color,omitempty"`
}

type annotation struct {
	Node string `json:"node"`
	Type string `json:"type"`
	V    string `json:"v,omitempty"`
	W    string `json:"w,omitempty"`
}

type band struct {
	Color      string  `json:"color"`
	Proportion float64 `json:"proportion"`
}

type edge struct {
	V          string  `json:"v"`
	W          string  `json:"w"`
	Weight     int     `json:"weight"`
	Width      float64 `json:"width"`
	Label      string  `json:"label,omitempty"`
	Control    bool    `json:"control,omitempty"`
	Structural bool    `json:"structural,omitempty"`
	Bridged    bool    `json:"bridged,omitempty"`
}

// WriteScopeJSON builds the scope name if needed and writes its render
// graph to w: core nodes with their annotations and color bands, core
// edges with weight, width and label, and the names moved to the extract
// columns. An empty name selects the root.
//
// It returns an error coded [errors.ErrCodeNodeNotFound] if name is not a
// scope of g.
func WriteScopeJSON(g *render.GraphInfo, name string, w io.Writer) error {
	info, ok := g.Scope(name)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no scope named %q", name)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportScope(g, info)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportScopeJSON writes the scope name of g to a JSON file at path.
// This is a convenience wrapper around [WriteScopeJSON] for file-based output.
func ExportScopeJSON(g *render.GraphInfo, name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteScopeJSON(g, name, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportScope(g *render.GraphInfo, info *render.NodeInfo) scope {
	core := info.Group.CoreGraph
	out := scope{
		Name:        info.Name(),
		DisplayName: info.DisplayName,
		Nodes:       make([]node, 0, core.NodeCount()),
		Edges:       make([]edge, 0, core.EdgeCount()),
	}

	for _, name := range core.Nodes() {
		ni, _ := core.Node(name)
		if ni == nil {
			continue
		}
		out.Nodes = append(out.Nodes, exportNode(ni, core.Parent(name)))
	}

	for _, key := range core.Edges() {
		ei, _ := core.Edge(key.V, key.W)
		if ei == nil {
			continue
		}
		e := edge{
			V:          key.V,
			W:          key.W,
			Weight:     ei.Weight,
			Width:      g.EdgeWidth(ei),
			Structural: ei.Structural,
			Bridged:    ei.AdjoiningMetaedge != nil,
		}
		if ei.Metaedge != nil {
			e.Label = g.EdgeLabel(ei.Metaedge)
			e.Control = ei.Metaedge.IsControlOnly()
		}
		out.Edges = append(out.Edges, e)
	}

	for _, ni := range info.Group.IsolatedInExtract {
		out.IsolatedIn = append(out.IsolatedIn, ni.Name())
	}
	for _, ni := range info.Group.IsolatedOutExtract {
		out.IsolatedOut = append(out.IsolatedOut, ni.Name())
	}
	for _, ni := range info.Group.LibraryFunctionsExtract {
		out.LibraryFunctions = append(out.LibraryFunctions, ni.Name())
	}
	return out
}

func exportNode(ni *render.NodeInfo, parent string) node {
	nd := node{
		Name:         ni.Name(),
		DisplayName:  ni.DisplayName,
		Type:         ni.Node.Type.String(),
		Op:           ni.Node.OpType(),
		Parent:       parent,
		Cardinality:  ni.Node.Cardinality,
		Expanded:     ni.Expanded,
		Structural:   ni.Structural,
		FadedOut:     ni.IsFadedOut,
		MemoryColor:  ni.MemoryColor,
		ComputeColor: ni.ComputeTimeColor,
	}
	nd.InAnnotations = exportAnnotations(ni.InAnnotations)
	nd.OutAnnotations = exportAnnotations(ni.OutAnnotations)
	for _, c := range ni.DeviceColors {
		nd.DeviceColors = append(nd.DeviceColors, band{Color: c.Color, Proportion: c.Proportion})
	}
	return nd
}

func exportAnnotations(l *render.AnnotationList) []annotation {
	if l == nil {
		return nil
	}
	var out []annotation
	for _, a := range l.List {
		out = append(out, annotation{Node: a.Node.Name, Type: a.Type.String(), V: a.V, W: a.W})
	}
	return out
}
