package hierarchy

// GraphDef is a flat op graph: every op with its raw inputs, plus an
// optional library of function templates.
type GraphDef struct {
	Nodes   []OpDef          `json:"node"`
	Library *FunctionLibrary `json:"library,omitempty"`
}

// OpDef is one op of a [GraphDef]. Inputs use the raw syntax: "name" or
// "name:1" for data inputs, "name:out:0" for function outputs and "^name"
// for control dependencies.
type OpDef struct {
	Name         string         `json:"name"`
	Op           string         `json:"op"`
	Input        []string       `json:"input,omitempty"`
	Device       string         `json:"device,omitempty"`
	Attr         map[string]any `json:"attr,omitempty"`
	OutputShapes []Shape        `json:"output_shapes,omitempty"`
}

// FunctionLibrary holds the function templates a graph may call.
type FunctionLibrary struct {
	Functions []FunctionDef `json:"function"`
}

// FunctionDef is a function template. Its ops are named relative to the
// function and reference the input args by name.
type FunctionDef struct {
	Signature OpSignature `json:"signature"`
	Nodes     []OpDef     `json:"node_def"`
}

// OpSignature names a function and its positional args.
type OpSignature struct {
	Name      string   `json:"name"`
	InputArg  []ArgDef `json:"input_arg,omitempty"`
	OutputArg []ArgDef `json:"output_arg,omitempty"`
}

// ArgDef is one function arg.
type ArgDef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// StepStats carries per-op runtime measurements grouped by device.
type StepStats struct {
	DevStats []DeviceStepStats `json:"dev_stats"`
}

// DeviceStepStats holds the measurements taken on one device.
type DeviceStepStats struct {
	Device    string      `json:"device"`
	NodeStats []NodeStats `json:"node_stats"`
}

// NodeStats is the measurement of one op.
type NodeStats struct {
	NodeName        string             `json:"node_name"`
	AllStartMicros  int64              `json:"all_start_micros"`
	AllEndRelMicros int64              `json:"all_end_rel_micros"`
	Memory          []AllocatorMemory  `json:"memory,omitempty"`
	Output          []OutputDescriptor `json:"output,omitempty"`
}

// AllocatorMemory is the memory one allocator handed to an op.
type AllocatorMemory struct {
	TotalBytes int64 `json:"total_bytes"`
}

// OutputDescriptor is the concrete shape of one produced tensor.
type OutputDescriptor struct {
	Shape []int64 `json:"shape"`
}

// BuildParams tunes how a [GraphDef] is turned into a [Hierarchy].
type BuildParams struct {
	// Op type patterns (regular expressions) folded into their consumer as
	// in-embeddings, such as constants.
	InEmbeddingTypes []string `toml:"in_embedding_types"`
	// Op type patterns folded into their producer as out-embeddings, such
	// as summaries.
	OutEmbeddingTypes []string `toml:"out_embedding_types"`
	// Keys "<op type> <input index>" of inputs that are reference edges.
	RefEdges map[string]bool `toml:"ref_edges"`
	// Op types that are flagged incompatible. All other ops are compatible.
	IncompatibleOpTypes []string `toml:"incompatible_op_types"`
}

// DefaultBuildParams returns the parameters used when none are given.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		InEmbeddingTypes:  []string{"Const"},
		OutEmbeddingTypes: []string{"^[a-zA-Z]+Summary$"},
		RefEdges: map[string]bool{
			"Assign 0":         true,
			"AssignAdd 0":      true,
			"AssignSub 0":      true,
			"assign 0":         true,
			"assign_add 0":     true,
			"assign_sub 0":     true,
			"count_up_to 0":    true,
			"ScatterAdd 0":     true,
			"ScatterSub 0":     true,
			"ScatterUpdate 0":  true,
			"scatter_add 0":    true,
			"scatter_sub 0":    true,
			"scatter_update 0": true,
		},
	}
}
