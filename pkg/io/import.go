package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// ReadJSON decodes a flat op graph from r.
//
// The input is a JSON object with a "node" array and an optional "library":
//
//	{
//	  "node": [
//	    {"name": "x", "op": "Placeholder"},
//	    {"name": "dense/MatMul", "op": "MatMul", "input": ["x", "dense/w"]}
//	  ]
//	}
//
// ReadJSON returns an error coded [errors.ErrCodeInvalidFormat] if the JSON
// is malformed and [errors.ErrCodeInvalidGraph] if the graph has no ops, an
// op has an invalid name, or two ops share a name. Function bodies are
// checked the same way, scoped to their function.
//
// Inputs are not resolved here; edges to unknown ops are dropped when the
// hierarchy is built. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*hierarchy.GraphDef, error) {
	var def hierarchy.GraphDef
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	if len(def.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph has no nodes")
	}
	if err := checkOps(def.Nodes); err != nil {
		return nil, err
	}
	if def.Library != nil {
		for _, fn := range def.Library.Functions {
			if fn.Signature.Name == "" {
				return nil, errors.New(errors.ErrCodeInvalidGraph, "library function without a name")
			}
			if err := checkOps(fn.Nodes); err != nil {
				return nil, fmt.Errorf("function %s: %w", fn.Signature.Name, err)
			}
		}
	}
	return &def, nil
}

func checkOps(ops []hierarchy.OpDef) error {
	seen := make(map[string]bool, len(ops))
	for i, op := range ops {
		if err := errors.ValidateNodeName(op.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d", i)
		}
		if seen[op.Name] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node %q", op.Name)
		}
		seen[op.Name] = true
	}
	return nil
}

// ImportJSON reads the op graph stored at path. A missing file is reported
// with [errors.ErrCodeFileNotFound]; everything else as by [ReadJSON].
func ImportJSON(path string) (*hierarchy.GraphDef, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	def, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ReadStepStats decodes runtime measurements from r.
func ReadStepStats(r io.Reader) (*hierarchy.StepStats, error) {
	var stats hierarchy.StepStats
	if err := json.NewDecoder(r).Decode(&stats); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode step stats")
	}
	return &stats, nil
}

// ImportStepStats reads the runtime measurements stored at path.
func ImportStepStats(path string) (*hierarchy.StepStats, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stats, err := ReadStepStats(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
