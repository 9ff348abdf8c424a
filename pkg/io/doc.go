// Package io reads computation graphs from JSON and writes built render
// scopes back out as JSON.
//
// # Graph Format
//
// Input graphs use the field names of a serialized graph definition:
//
//	{
//	  "node": [
//	    {"name": "x", "op": "Placeholder", "output_shapes": [[-1, 784]]},
//	    {"name": "dense/w", "op": "VariableV2", "device": "/gpu:0"},
//	    {"name": "dense/MatMul", "op": "MatMul", "input": ["x", "dense/w"]},
//	    {"name": "train", "op": "NoOp", "input": ["^dense/MatMul"]}
//	  ],
//	  "library": {"function": [
//	    {"signature": {"name": "f", "input_arg": [{"name": "a"}], "output_arg": [{"name": "out"}]},
//	     "node_def": [{"name": "r", "op": "Relu", "input": ["a"]}]}
//	  ]}
//	}
//
// Node names are "/"-separated scope paths. Inputs are "name", "name:1"
// for a second output, or "^name" for a control dependency.
//
// Use [ImportJSON] to read a graph from a file path, or [ReadJSON] to read
// from any io.Reader. Runtime measurements load the same way through
// [ImportStepStats] and [ReadStepStats].
//
// # Scope Export
//
// [WriteScopeJSON] and [ExportScopeJSON] write the render graph of one
// scope: its core nodes (with compound parents for bridge nodes), core
// edges with weight, width and label, annotations per side and the names
// pulled into the extract columns. Scopes are built on demand, so
// exporting a scope also expands the render graph.
//
// # Errors
//
// Failures carry a code from [github.com/matzehuels/scopeview/pkg/errors]:
// INVALID_FORMAT for malformed JSON, INVALID_GRAPH for structural problems,
// FILE_NOT_FOUND for missing files and NODE_NOT_FOUND for unknown scopes.
package io
