package render

import "github.com/matzehuels/scopeview/pkg/hierarchy"

// AnnotationType says why a neighbor is drawn as a side label instead of
// as a node in the core graph.
type AnnotationType int

const (
	// AnnotationShortcut marks an edge that was cut from the core graph.
	AnnotationShortcut AnnotationType = iota
	// AnnotationConstant marks an embedded constant input.
	AnnotationConstant
	// AnnotationSummary marks an embedded summary output.
	AnnotationSummary
	// AnnotationEllipsis stands in for annotations past the display cap.
	AnnotationEllipsis
)

func (t AnnotationType) String() string {
	switch t {
	case AnnotationShortcut:
		return "shortcut"
	case AnnotationConstant:
		return "constant"
	case AnnotationSummary:
		return "summary"
	case AnnotationEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// Annotation is a small label attached to one side of a node that stands in
// for a neighbor or an edge.
type Annotation struct {
	Node         *hierarchy.Node
	NodeInfo     *NodeInfo
	MetaedgeInfo *MetaedgeInfo
	Type         AnnotationType
	IsIn         bool

	// V and W are copied from the underlying metaedge, when there is one.
	V, W string

	// Layout geometry, owned by whoever positions the annotation.
	DX, DY        float64
	Width, Height float64
}

// NewAnnotation creates an annotation for node. edge may be nil.
func NewAnnotation(node *hierarchy.Node, info *NodeInfo, edge *MetaedgeInfo, typ AnnotationType, isIn bool) *Annotation {
	a := &Annotation{
		Node:         node,
		NodeInfo:     info,
		MetaedgeInfo: edge,
		Type:         typ,
		IsIn:         isIn,
	}
	if edge != nil && edge.Metaedge != nil {
		a.V = edge.Metaedge.V
		a.W = edge.Metaedge.W
	}
	return a
}

// AnnotationList is one side's annotations. It never holds two annotations
// for the same node name, and it collapses everything past its cap into a
// single trailing ellipsis.
type AnnotationList struct {
	List      []*Annotation
	NodeNames map[string]bool

	max int
}

// NewAnnotationList returns an empty list that shows at most max entries
// before collapsing.
func NewAnnotationList(max int) *AnnotationList {
	return &AnnotationList{NodeNames: make(map[string]bool), max: max}
}

// Push adds a, unless an annotation for the same node is already present.
func (l *AnnotationList) Push(a *Annotation) {
	name := a.Node.Name
	if l.NodeNames[name] {
		return
	}
	l.NodeNames[name] = true

	if len(l.List) < l.max {
		l.List = append(l.List, a)
		return
	}

	last := l.List[len(l.List)-1]
	if last.Type == AnnotationEllipsis {
		last.Node.SetNumMoreNodes(last.Node.Ellipsis.NumMoreNodes + 1)
		return
	}

	ellipsis := hierarchy.NewEllipsisNode(1)
	l.List = append(l.List, NewAnnotation(ellipsis, newNodeInfo(ellipsis, l.max), nil, AnnotationEllipsis, a.IsIn))
}

// Has reports whether name is annotated, including names folded into the
// ellipsis.
func (l *AnnotationList) Has(name string) bool { return l.NodeNames[name] }

// Len returns the number of visible entries, counting the ellipsis.
func (l *AnnotationList) Len() int { return len(l.List) }
