package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
	scopeio "github.com/matzehuels/scopeview/pkg/io"
	"github.com/matzehuels/scopeview/pkg/observability"
)

// Load reads the op graph at opts.Input and, when opts.StatsPath is set,
// the step stats next to it.
func Load(ctx context.Context, opts Options) (*hierarchy.GraphDef, *hierarchy.StepStats, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Input)
	start := time.Now()

	def, stats, err := load(ctx, opts)

	ops := 0
	if def != nil {
		ops = len(def.Nodes)
	}
	hooks.OnLoadComplete(ctx, opts.Input, ops, time.Since(start), err)
	return def, stats, err
}

func load(ctx context.Context, opts Options) (*hierarchy.GraphDef, *hierarchy.StepStats, error) {
	def, err := scopeio.ImportJSON(opts.Input)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if opts.StatsPath == "" {
		return def, nil, nil
	}
	stats, err := scopeio.ImportStepStats(opts.StatsPath)
	if err != nil {
		return nil, nil, err
	}
	return def, stats, nil
}

// BuildHierarchy groups def into scopes and joins stats into it. Only stats
// of devices whose name contains opts.Device are kept.
func BuildHierarchy(ctx context.Context, def *hierarchy.GraphDef, stats *hierarchy.StepStats, opts Options) (*hierarchy.Hierarchy, error) {
	if err := opts.ValidateForExpand(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	ops := 0
	if def != nil {
		ops = len(def.Nodes)
	}
	hooks.OnHierarchyStart(ctx, ops)
	start := time.Now()

	h, err := hierarchy.Build(def, opts.BuildParams)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInvalidGraph, err, "build hierarchy")
		hooks.OnHierarchyComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	if stats != nil {
		h.JoinStats(stats, func(device string) bool {
			return strings.Contains(device, opts.Device)
		})
	}

	hooks.OnHierarchyComplete(ctx, h.Len(), time.Since(start), nil)
	opts.Logger.Debug("built hierarchy", "ops", ops, "nodes", h.Len(), "functions", len(h.LibraryFunctions()))
	return h, nil
}
