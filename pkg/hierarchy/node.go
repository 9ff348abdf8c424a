package hierarchy

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/scopeview/pkg/graph"
)

const (
	// RootName is the name of the implicit scope containing every node.
	RootName = "__root__"

	// FunctionLibraryPrefix marks scopes that hold library function templates.
	// A function named "f" is stored as the root-level metanode
	// "__function_library__f".
	FunctionLibraryPrefix = "__function_library__"

	// NamespaceDelim separates scope names inside a node name.
	NamespaceDelim = "/"

	// NoFunctionIndex marks an op that is not a function input or output arg.
	NoFunctionIndex = -1
)

// Metagraph holds the children of a group node and the metaedges between
// them. Bridgegraphs share the same shape.
type Metagraph = graph.Graph[*Node, *Metaedge]

// NodeType discriminates the variants of [Node].
type NodeType int

const (
	// NodeTypeMeta is a named scope (metanode) containing other nodes.
	NodeTypeMeta NodeType = iota
	// NodeTypeOp is a leaf operation.
	NodeTypeOp
	// NodeTypeSeries groups structurally identical siblings.
	NodeTypeSeries
	// NodeTypeBridge is a synthetic layout-only node created by the render engine.
	NodeTypeBridge
	// NodeTypeEllipsis stands in for annotations that did not fit.
	NodeTypeEllipsis
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeMeta:
		return "meta"
	case NodeTypeOp:
		return "op"
	case NodeTypeSeries:
		return "series"
	case NodeTypeBridge:
		return "bridge"
	case NodeTypeEllipsis:
		return "ellipsis"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// InclusionType records whether a node was explicitly kept in or removed from
// the main graph. The zero value means no explicit choice was made.
type InclusionType int

const (
	InclusionUnspecified InclusionType = iota
	InclusionInclude
	InclusionExclude
)

func (i InclusionType) String() string {
	switch i {
	case InclusionInclude:
		return "include"
	case InclusionExclude:
		return "exclude"
	default:
		return "unspecified"
	}
}

// Shape is the shape of one output tensor. A nil Shape means the rank is
// unknown, an empty one is a scalar, and -1 marks an unknown dimension.
type Shape []int64

// NormalizedInput is one incoming edge of an op after its raw input string
// ("^name", "name:1", "name:out:0") has been parsed.
type NormalizedInput struct {
	Name                string `json:"name"`
	OutputTensorKey     string `json:"output_tensor_key"`
	IsControlDependency bool   `json:"is_control_dependency,omitempty"`
}

// Node is a vertex of the hierarchy. Exactly one payload matching Type is
// set: Op for ops, Group for metanodes and series, Bridge for bridge nodes,
// Ellipsis for ellipsis nodes.
type Node struct {
	Type        NodeType
	Name        string
	Parent      *Node
	Include     InclusionType
	Cardinality int
	Stats       *Stats
	Attributes  map[string]any

	Op       *OpInfo
	Group    *GroupInfo
	Bridge   *BridgeInfo
	Ellipsis *EllipsisInfo
}

// OpInfo is the payload of an op node.
type OpInfo struct {
	Op            string
	Device        string
	XLACluster    string
	Inputs        []NormalizedInput
	InEmbeddings  []*Node
	OutEmbeddings []*Node
	OutputShapes  []Shape
	Compatible    bool
	OwningSeries  string

	// Positional index of the function arg this op stands for, or
	// NoFunctionIndex.
	FunctionInputIndex  int
	FunctionOutputIndex int
}

// IsFunctionInput reports whether the op is an input arg of a library function.
func (o *OpInfo) IsFunctionInput() bool { return o.FunctionInputIndex != NoFunctionIndex }

// IsFunctionOutput reports whether the op is an output arg of a library function.
func (o *OpInfo) IsFunctionOutput() bool { return o.FunctionOutputIndex != NoFunctionIndex }

// CompatibilityHistogram counts compatible and incompatible ops below a group.
type CompatibilityHistogram struct {
	Compatible   int
	Incompatible int
}

// GroupInfo is the payload shared by metanodes and series nodes.
type GroupInfo struct {
	Metagraph *Metagraph

	Depth               int
	OpHistogram         map[string]int
	DeviceHistogram     map[string]int
	XLAClusterHistogram map[string]int
	Compatibility       CompatibilityHistogram
	TemplateID          string
	HasNonControlEdges  bool
	AssociatedFunction  string

	bridgegraph *Metagraph
}

// BridgeInfo is the payload of a bridge node.
type BridgeInfo struct {
	Inbound bool
}

// EllipsisInfo is the payload of an ellipsis node.
type EllipsisInfo struct {
	NumMoreNodes int
}

// NewOpNode creates a detached op node of the given op type.
func NewOpNode(name, op string) *Node {
	return &Node{
		Type:        NodeTypeOp,
		Name:        name,
		Cardinality: 1,
		Op: &OpInfo{
			Op:                  op,
			FunctionInputIndex:  NoFunctionIndex,
			FunctionOutputIndex: NoFunctionIndex,
		},
	}
}

func newGroup(name string) *GroupInfo {
	return &GroupInfo{
		Metagraph:           graph.New[*Node, *Metaedge](name),
		Depth:               1,
		OpHistogram:         make(map[string]int),
		DeviceHistogram:     make(map[string]int),
		XLAClusterHistogram: make(map[string]int),
	}
}

// NewMetanode creates an empty scope.
func NewMetanode(name string) *Node {
	return &Node{Type: NodeTypeMeta, Name: name, Group: newGroup(name)}
}

// NewSeriesNode creates an empty series group.
func NewSeriesNode(name string) *Node {
	return &Node{Type: NodeTypeSeries, Name: name, Group: newGroup(name)}
}

// NewBridgeNode creates a synthetic bridge node.
func NewBridgeNode(name string, inbound bool, cardinality int) *Node {
	return &Node{
		Type:        NodeTypeBridge,
		Name:        name,
		Cardinality: cardinality,
		Attributes:  map[string]any{},
		Bridge:      &BridgeInfo{Inbound: inbound},
	}
}

// NewEllipsisNode creates an ellipsis standing in for n hidden annotations.
func NewEllipsisNode(n int) *Node {
	e := &Node{Type: NodeTypeEllipsis, Cardinality: 1, Ellipsis: &EllipsisInfo{}}
	e.SetNumMoreNodes(n)
	return e
}

// SetNumMoreNodes updates the counter of an ellipsis node and its name.
func (n *Node) SetNumMoreNodes(count int) {
	if n.Ellipsis == nil {
		return
	}
	n.Ellipsis.NumMoreNodes = count
	n.Name = "... " + strconv.Itoa(count) + " more"
}

// IsGroup reports whether the node owns a metagraph.
func (n *Node) IsGroup() bool {
	return (n.Type == NodeTypeMeta || n.Type == NodeTypeSeries) && n.Group != nil
}

// IsOp reports whether the node is a leaf op.
func (n *Node) IsOp() bool { return n.Type == NodeTypeOp && n.Op != nil }

// OpType returns the op type of an op node, or "" for other variants.
func (n *Node) OpType() string {
	if n.IsOp() {
		return n.Op.Op
	}
	return ""
}

// ParentName returns the name of the enclosing node, or "" at the top.
func (n *Node) ParentName() string {
	if n.Parent == nil {
		return ""
	}
	return n.Parent.Name
}

// RootOp returns the op node sharing the metanode's name. For metanode "a/sgd"
// that is "a/sgd/(sgd)". It returns nil when there is none.
func (n *Node) RootOp() *Node {
	if !n.IsGroup() {
		return nil
	}
	node, _ := n.Group.Metagraph.Node(StrictName(n.Name))
	return node
}

// Leaves returns the names of all op nodes below a group, breadth first.
func (n *Node) Leaves() []string {
	var leaves []string
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !cur.IsGroup() {
			leaves = append(leaves, cur.Name)
			continue
		}
		mg := cur.Group.Metagraph
		for _, name := range mg.Nodes() {
			if child, _ := mg.Node(name); child != nil {
				queue = append(queue, child)
			}
		}
	}
	return leaves
}

// StrictName returns name/(leaf), the name an op takes when it collides with
// a namespace of the same name.
func StrictName(name string) string {
	parts := strings.Split(name, NamespaceDelim)
	return name + NamespaceDelim + "(" + parts[len(parts)-1] + ")"
}

// HierarchicalPath returns every ancestor scope of name followed by name
// itself. "a/b/c" yields [a a/b a/b/c].
func HierarchicalPath(name string) []string {
	var path []string
	for i := strings.Index(name, NamespaceDelim); i >= 0; {
		path = append(path, name[:i])
		next := strings.Index(name[i+1:], NamespaceDelim)
		if next < 0 {
			break
		}
		i += next + 1
	}
	return append(path, name)
}

// CloneShapes deep-copies a list of output shapes, keeping nil entries nil.
func CloneShapes(shapes []Shape) []Shape {
	if shapes == nil {
		return nil
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = slices.Clone(s)
	}
	return out
}

// CloneAttributes deep-copies an attribute map decoded from JSON or built by
// hand. Nested maps and slices are copied, scalars are shared.
func CloneAttributes(attr map[string]any) map[string]any {
	if attr == nil {
		return nil
	}
	out := make(map[string]any, len(attr))
	for k, v := range attr {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneAttributes(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []int64:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	default:
		return v
	}
}
