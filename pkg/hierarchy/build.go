package hierarchy

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrEmptyGraph is returned by [Build] when the graph has no ops.
var ErrEmptyGraph = errors.New("graph has no nodes")

// Attribute carrying the XLA cluster an op is compiled into.
const xlaClusterAttr = "_XlaCluster"

var (
	wordKeyPattern = regexp.MustCompile(`(.*):(\w+:\d+)$`)
	numKeyPattern  = regexp.MustCompile(`(.*):(\d+)$`)
)

// NormalizeInputs parses raw input strings. A leading "^" marks a control
// dependency; a ":N" or ":name:N" suffix becomes the output tensor key,
// which defaults to "0". Consecutive inputs from the same op collapse into
// one entry.
func NormalizeInputs(raw []string) []NormalizedInput {
	var inputs []NormalizedInput
	for _, in := range raw {
		control := strings.HasPrefix(in, "^")
		if control {
			in = in[1:]
		}
		name, key := in, "0"
		if m := wordKeyPattern.FindStringSubmatch(in); m != nil {
			name, key = m[1], m[2]
		} else if m := numKeyPattern.FindStringSubmatch(in); m != nil {
			name, key = m[1], m[2]
		}
		if len(inputs) > 0 && inputs[len(inputs)-1].Name == name {
			continue
		}
		inputs = append(inputs, NormalizedInput{
			Name:                name,
			OutputTensorKey:     key,
			IsControlDependency: control,
		})
	}
	return inputs
}

// Build groups the ops of def into scopes by their "/"-separated names and
// lifts every data and control edge into the metagraph of the lowest scope
// containing both endpoints. Ops whose type matches an embedding pattern are
// folded into their neighbor instead of becoming nodes of their own.
// Functions of the library become root-level template scopes prefixed with
// [FunctionLibraryPrefix].
func Build(def *GraphDef, params BuildParams) (*Hierarchy, error) {
	if def == nil || len(def.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	b, err := newBuilder(params)
	if err != nil {
		return nil, err
	}
	for _, raw := range def.Nodes {
		if _, err := b.addRaw(raw); err != nil {
			return nil, err
		}
	}
	if def.Library != nil {
		for _, fn := range def.Library.Functions {
			if err := b.addFunction(fn); err != nil {
				return nil, fmt.Errorf("function %s: %w", fn.Signature.Name, err)
			}
		}
	}
	fg := b.flatten()

	h := New()
	for _, n := range fg.nodes {
		if n.Op.Device != "" && !slices.Contains(h.devices, n.Op.Device) {
			h.devices = append(h.devices, n.Op.Device)
		}
		if n.Op.XLACluster != "" && !slices.Contains(h.xlaClusters, n.Op.XLACluster) {
			h.xlaClusters = append(h.xlaClusters, n.Op.XLACluster)
		}
	}
	h.addNodes(fg)
	if err := h.addEdges(fg); err != nil {
		return nil, err
	}
	return h, nil
}

type builder struct {
	params         BuildParams
	isInEmbedding  func(op string) bool
	isOutEmbedding func(op string) bool
	incompatible   map[string]bool
	seen           map[string]bool

	opNodes        []*Node
	embeddingNames []string
	inEmbedding    map[string]*Node
	outEmbedding   map[string]*Node
	outEmbeddings  map[string][]*Node
}

func newBuilder(params BuildParams) (*builder, error) {
	isIn, err := embedPredicate(params.InEmbeddingTypes)
	if err != nil {
		return nil, err
	}
	isOut, err := embedPredicate(params.OutEmbeddingTypes)
	if err != nil {
		return nil, err
	}
	incompatible := make(map[string]bool, len(params.IncompatibleOpTypes))
	for _, op := range params.IncompatibleOpTypes {
		incompatible[op] = true
	}
	return &builder{
		params:         params,
		isInEmbedding:  isIn,
		isOutEmbedding: isOut,
		incompatible:   incompatible,
		seen:           make(map[string]bool),
		inEmbedding:    make(map[string]*Node),
		outEmbedding:   make(map[string]*Node),
		outEmbeddings:  make(map[string][]*Node),
	}, nil
}

func embedPredicate(patterns []string) (func(string) bool, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding pattern %q: %v", ErrInvalidParams, p, err)
		}
		res = append(res, re)
	}
	return func(op string) bool {
		for _, re := range res {
			if re.MatchString(op) {
				return true
			}
		}
		return false
	}, nil
}

func (b *builder) addRaw(def OpDef) (*Node, error) {
	if def.Name == "" {
		return nil, ErrInvalidNodeName
	}
	if b.seen[def.Name] {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, def.Name)
	}
	b.seen[def.Name] = true

	n := NewOpNode(def.Name, def.Op)
	n.Attributes = CloneAttributes(def.Attr)
	n.Op.Device = def.Device
	n.Op.Inputs = NormalizeInputs(def.Input)
	n.Op.OutputShapes = CloneShapes(def.OutputShapes)
	if cluster, ok := def.Attr[xlaClusterAttr].(string); ok {
		n.Op.XLACluster = cluster
	}
	n.Op.Compatible = !b.incompatible[def.Op]

	switch {
	case b.isInEmbedding(def.Op):
		b.embeddingNames = append(b.embeddingNames, n.Name)
		b.inEmbedding[n.Name] = n
	case b.isOutEmbedding(def.Op):
		b.embeddingNames = append(b.embeddingNames, n.Name)
		b.outEmbedding[n.Name] = n
		for _, in := range n.Op.Inputs {
			b.outEmbeddings[in.Name] = append(b.outEmbeddings[in.Name], n)
		}
	default:
		b.opNodes = append(b.opNodes, n)
	}
	return n, nil
}

// addFunction turns a library function into ops below
// __function_library__<name>: one op per input arg, then the function body
// with every name and input prefixed.
func (b *builder) addFunction(fn FunctionDef) error {
	prefix := FunctionLibraryPrefix + fn.Signature.Name
	if _, err := b.addRaw(OpDef{Name: prefix}); err != nil {
		return err
	}
	for i, arg := range fn.Signature.InputArg {
		n, err := b.addRaw(OpDef{
			Name: prefix + NamespaceDelim + arg.Name,
			Op:   "input_arg",
			Attr: map[string]any{"T": arg.Type},
		})
		if err != nil {
			return err
		}
		n.Op.FunctionInputIndex = i
	}
	outputs := make(map[string]int, len(fn.Signature.OutputArg))
	for i, arg := range fn.Signature.OutputArg {
		outputs[prefix+NamespaceDelim+arg.Name] = i
	}
	for _, raw := range fn.Nodes {
		raw.Name = prefix + NamespaceDelim + raw.Name
		n, err := b.addRaw(raw)
		if err != nil {
			return err
		}
		if idx, ok := outputs[raw.Name]; ok {
			n.Op.FunctionOutputIndex = idx
		}
		for i := range n.Op.Inputs {
			n.Op.Inputs[i].Name = prefix + NamespaceDelim + n.Op.Inputs[i].Name
		}
	}
	return nil
}

// flatGraph is the op graph after embeddings were folded and names made
// strict, before any grouping.
type flatGraph struct {
	nodes  []*Node
	byName map[string]*Node
	edges  []*BaseEdge
}

func (b *builder) flatten() *flatGraph {
	names := make([]string, len(b.opNodes))
	for i, n := range b.opNodes {
		names[i] = n.Name
	}
	renamed := mapStrictHierarchy(names, b.embeddingNames)
	rename := func(name string) string {
		if r, ok := renamed[name]; ok {
			return r
		}
		return name
	}

	fg := &flatGraph{byName: make(map[string]*Node, len(b.opNodes))}
	for _, n := range b.opNodes {
		if embs, ok := b.outEmbeddings[n.Name]; ok {
			n.Op.OutEmbeddings = embs
			for _, e := range embs {
				e.Name = rename(e.Name)
			}
		}
		n.Name = rename(n.Name)
		fg.nodes = append(fg.nodes, n)
		fg.byName[n.Name] = n
	}

	for _, n := range fg.nodes {
		for i, in := range n.Op.Inputs {
			switch {
			case b.inEmbedding[in.Name] != nil:
				emb := b.inEmbedding[in.Name]
				n.Op.InEmbeddings = append(n.Op.InEmbeddings, emb)
				// Inputs of a constant, usually control deps, move onto its consumer.
				for _, embIn := range emb.Op.Inputs {
					fg.addEdge(rename(embIn.Name), n, embIn, b.params, i)
				}
			case b.outEmbedding[in.Name] != nil:
				for _, embIn := range b.outEmbedding[in.Name].Op.Inputs {
					fg.addEdge(rename(embIn.Name), n, in, b.params, i)
				}
			default:
				fg.addEdge(rename(in.Name), n, in, b.params, i)
			}
		}
	}
	for _, emb := range b.inEmbedding {
		emb.Name = rename(emb.Name)
	}
	return fg
}

func (fg *flatGraph) addEdge(src string, dst *Node, in NormalizedInput, params BuildParams, index int) {
	if src == dst.Name {
		return
	}
	fg.edges = append(fg.edges, &BaseEdge{
		V:                   src,
		W:                   dst.Name,
		OutputTensorKey:     in.OutputTensorKey,
		IsControlDependency: in.IsControlDependency,
		IsReferenceEdge:     params.RefEdges[fmt.Sprintf("%s %d", dst.Op.Op, index)],
	})
}

// mapStrictHierarchy renames an op to name/(leaf) when another op lives in
// its namespace, and likewise renames embeddings that collide with a
// namespace. It returns old name -> new name for the renamed ops only.
func mapStrictHierarchy(nodeNames, embeddingNames []string) map[string]string {
	renamed := make(map[string]string)
	namespaces := make(map[string]bool)
	sorted := slices.Clone(nodeNames)
	slices.Sort(sorted)
	for i, a := range sorted {
		path := HierarchicalPath(a)
		for _, ns := range path[:len(path)-1] {
			namespaces[ns] = true
		}
		for _, b := range sorted[i+1:] {
			if !strings.HasPrefix(b, a) {
				break
			}
			if len(b) > len(a) && b[len(a)] == '/' {
				renamed[a] = StrictName(a)
				break
			}
		}
	}
	for _, name := range embeddingNames {
		if namespaces[name] {
			renamed[name] = StrictName(name)
		}
	}
	return renamed
}

// addNodes creates the metanodes on the path of every op, registers library
// function templates and accumulates the per-scope histograms.
func (h *Hierarchy) addNodes(fg *flatGraph) {
	opToNodes := make(map[string][]*Node)
	for _, n := range fg.nodes {
		path := HierarchicalPath(n.Name)
		parent := h.root
		parent.Group.Depth = max(parent.Group.Depth, len(path))
		opToNodes[n.Op.Op] = append(opToNodes[n.Op.Op], n)

		for i := range path {
			g := parent.Group
			g.Depth = max(g.Depth, len(path)-i)
			parent.Cardinality += n.Cardinality
			g.OpHistogram[n.Op.Op]++
			if n.Op.Device != "" {
				g.DeviceHistogram[n.Op.Device]++
			}
			if n.Op.XLACluster != "" {
				g.XLAClusterHistogram[n.Op.XLACluster]++
			}
			countCompatibility(&g.Compatibility, n)
			for _, emb := range n.Op.InEmbeddings {
				countCompatibility(&g.Compatibility, emb)
			}
			for _, emb := range n.Op.OutEmbeddings {
				countCompatibility(&g.Compatibility, emb)
			}
			if i == len(path)-1 {
				break
			}

			name := path[i]
			child := h.index[name]
			if child == nil {
				child = NewMetanode(name)
				child.Parent = parent
				h.SetNode(name, child)
				parent.Group.Metagraph.SetNode(name, child)
				if strings.HasPrefix(name, FunctionLibraryPrefix) && parent == h.root {
					fn := strings.TrimPrefix(name, FunctionLibraryPrefix)
					h.libraryFunctions[fn] = &LibraryFunction{Name: fn, Node: child}
					child.Group.AssociatedFunction = fn
				}
			}
			parent = child
		}

		h.SetNode(n.Name, n)
		n.Parent = parent
		parent.Group.Metagraph.SetNode(n.Name, n)
		for _, emb := range n.Op.InEmbeddings {
			h.SetNode(emb.Name, emb)
			emb.Parent = n
		}
		for _, emb := range n.Op.OutEmbeddings {
			h.SetNode(emb.Name, emb)
			emb.Parent = n
		}
	}
	for name, fn := range h.libraryFunctions {
		fn.Usages = opToNodes[name]
	}
}

func countCompatibility(c *CompatibilityHistogram, n *Node) {
	if n.IsOp() && n.Op.Compatible {
		c.Compatible++
	} else {
		c.Incompatible++
	}
}

// addEdges places each base edge into the metagraph of the lowest common
// ancestor of its endpoints.
func (h *Hierarchy) addEdges(fg *flatGraph) error {
	ancestry := func(n *Node) []string {
		var path []string
		for ; n != nil; n = n.Parent {
			path = append(path, n.Name)
		}
		return path
	}
	for _, e := range fg.edges {
		src, dst := fg.byName[e.V], fg.byName[e.W]
		// Edges into or out of embeddings have no place in the hierarchy.
		if src == nil || dst == nil {
			continue
		}
		sp, dp := ancestry(src), ancestry(dst)
		si, di := len(sp)-1, len(dp)-1
		for sp[si] == dp[di] {
			si--
			di--
			if si < 0 || di < 0 {
				return fmt.Errorf("%w: %s -> %s", ErrNoSharedAncestor, e.V, e.W)
			}
		}
		shared := h.index[sp[si+1]]
		v, w := sp[si], dp[di]
		mg := shared.Group.Metagraph
		m, _ := mg.Edge(v, w)
		if m == nil {
			m = NewMetaedge(v, w)
			mg.SetEdge(v, w, m)
		}
		if !e.IsControlDependency {
			shared.Group.HasNonControlEdges = true
		}
		m.AddBaseEdge(e, h)
	}
	return nil
}
