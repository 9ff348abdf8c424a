package render

import (
	"regexp"
	"strings"

	"github.com/matzehuels/scopeview/pkg/graph"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// CoreGraph is the layout graph of one expanded scope. Its nodes are the
// render records of the scope's children plus synthetic bridge and
// structural nodes; bridge nodes are grouped under compound containers.
type CoreGraph = graph.Graph[*NodeInfo, *MetaedgeInfo]

// ColorProportion is one band of a stacked color fill.
type ColorProportion struct {
	Color      string
	Proportion float64
}

// NodeInfo is the render-side record of a hierarchy node. It holds visual
// state only; the hierarchy node it wraps is shared.
type NodeInfo struct {
	Node *hierarchy.Node

	// Expanded is true when the node's children are shown.
	Expanded bool

	InAnnotations  *AnnotationList
	OutAnnotations *AnnotationList

	// Structural marks the invisible padding node inside a bridge container.
	Structural bool

	IsInExtract       bool
	IsOutExtract      bool
	IsLibraryFunction bool
	IsFadedOut        bool

	DisplayName string

	DeviceColors        []ColorProportion
	XLAClusterColors    []ColorProportion
	CompatibilityColors []ColorProportion
	MemoryColor         string
	ComputeTimeColor    string

	// Layout geometry, owned by the layout engine.
	X, Y, Width, Height float64

	// Handle is free for the drawing layer to attach its own element.
	Handle any

	// Group is non-nil for metanodes and series nodes.
	Group *GroupNodeInfo
}

// GroupNodeInfo holds what an expanded scope draws: its core graph and the
// nodes pulled out of it.
type GroupNodeInfo struct {
	CoreGraph *CoreGraph

	IsolatedInExtract       []*NodeInfo
	IsolatedOutExtract      []*NodeInfo
	LibraryFunctionsExtract []*NodeInfo
}

var displayNameRegexp = regexp.MustCompile(`^(?:` + hierarchy.FunctionLibraryPrefix + `)?(\w+)_[a-z0-9]{8}(?:_\d+)?$`)

func newNodeInfo(node *hierarchy.Node, maxAnnotations int) *NodeInfo {
	info := &NodeInfo{
		Node:           node,
		InAnnotations:  NewAnnotationList(maxAnnotations),
		OutAnnotations: NewAnnotationList(maxAnnotations),
		DisplayName:    displayName(node),
	}
	if node.Type == hierarchy.NodeTypeMeta || node.Type == hierarchy.NodeTypeSeries {
		info.Group = &GroupNodeInfo{CoreGraph: graph.New[*NodeInfo, *MetaedgeInfo](node.Name)}
	}
	return info
}

// displayName is the last path segment, with generated function suffixes
// and the library prefix removed.
func displayName(node *hierarchy.Node) string {
	name := node.Name[strings.LastIndex(node.Name, hierarchy.NamespaceDelim)+1:]
	if node.Type == hierarchy.NodeTypeMeta && node.Group != nil && node.Group.AssociatedFunction != "" {
		if m := displayNameRegexp.FindStringSubmatch(name); m != nil {
			return m[1]
		}
	}
	if strings.HasPrefix(name, hierarchy.FunctionLibraryPrefix) {
		return name[len(hierarchy.FunctionLibraryPrefix):]
	}
	return name
}

// Name is shorthand for the wrapped node's name.
func (n *NodeInfo) Name() string { return n.Node.Name }

// IsInCore reports whether the node is drawn inside its parent's core graph
// rather than in one of the extract columns.
func (n *NodeInfo) IsInCore() bool {
	return !n.IsInExtract && !n.IsOutExtract && !n.IsLibraryFunction
}

// MetaedgeInfo is the render-side record of an edge in a core graph. Its
// Metaedge is nil for structural edges and for embedding annotations.
type MetaedgeInfo struct {
	Metaedge *hierarchy.Metaedge

	// AdjoiningMetaedge is the edge in the parent scope's core graph that a
	// bridge edge continues.
	AdjoiningMetaedge *MetaedgeInfo

	Structural bool
	Weight     int
	IsFadedOut bool

	// StartMarkerID and EndMarkerID are set by the drawing layer.
	StartMarkerID string
	EndMarkerID   string

	Handle any
}

// NewMetaedgeInfo wraps m, which may be nil.
func NewMetaedgeInfo(m *hierarchy.Metaedge) *MetaedgeInfo {
	return &MetaedgeInfo{Metaedge: m, Weight: 1}
}
