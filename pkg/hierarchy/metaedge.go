package hierarchy

// BaseEdge is a single op-to-op edge of the flat graph.
type BaseEdge struct {
	V                   string `json:"v"`
	W                   string `json:"w"`
	OutputTensorKey     string `json:"output_tensor_key"`
	IsControlDependency bool   `json:"is_control_dependency,omitempty"`
	IsReferenceEdge     bool   `json:"is_reference_edge,omitempty"`
}

// Metaedge aggregates the base edges running between two nodes of the same
// metagraph or bridgegraph.
type Metaedge struct {
	V string
	W string

	// Inbound is only meaningful in bridgegraphs: the destination lies inside
	// the scope owning the bridgegraph.
	Inbound bool

	BaseEdges       []*BaseEdge
	NumRegularEdges int
	NumControlEdges int
	NumRefEdges     int
	TotalSize       int64
}

// NewMetaedge creates an empty metaedge from v to w.
func NewMetaedge(v, w string) *Metaedge {
	return &Metaedge{V: v, W: w}
}

// IsControlOnly reports whether every base edge is a control dependency.
func (m *Metaedge) IsControlOnly() bool { return m.NumRegularEdges == 0 }

// AddBaseEdge records e in the metaedge and updates the counters. The tensor
// size of e is looked up in h, which also tracks the largest metaedge seen.
func (m *Metaedge) AddBaseEdge(e *BaseEdge, h *Hierarchy) {
	m.BaseEdges = append(m.BaseEdges, e)
	if e.IsControlDependency {
		m.NumControlEdges++
	} else {
		m.NumRegularEdges++
	}
	if e.IsReferenceEdge {
		m.NumRefEdges++
	}
	m.TotalSize += h.edgeSize(e)
	h.maxMetaedgeSize = max(h.maxMetaedgeSize, m.TotalSize)
}

// edgeSize sums the element counts of every output tensor of the source op.
// Unknown shapes and dimensions count as 1, so the result is a lower bound.
func (h *Hierarchy) edgeSize(e *BaseEdge) int64 {
	src := h.index[e.V]
	if src == nil || !src.IsOp() || src.Op.OutputShapes == nil {
		return 1
	}
	h.hasShapeInfo = true
	var total int64
	for _, shape := range src.Op.OutputShapes {
		if shape == nil {
			total++
			continue
		}
		size := int64(1)
		for _, dim := range shape {
			if dim == -1 {
				dim = 1
			}
			size *= dim
		}
		total += size
	}
	return total
}
