package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
	"github.com/matzehuels/scopeview/pkg/observability"
	"github.com/matzehuels/scopeview/pkg/render"
)

// Expand creates the render graph of h and builds the scope named by
// opts.Scope. When opts.Depth is set every scope down to that depth is
// expanded first; when opts.Tensor is set the scopes on its path are.
//
// It returns an error coded [errors.ErrCodeNodeNotFound] if the scope or
// the tensor does not exist.
func Expand(ctx context.Context, h *hierarchy.Hierarchy, opts Options) (*render.GraphInfo, *render.NodeInfo, error) {
	if err := opts.ValidateForExpand(); err != nil {
		return nil, nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnExpandStart(ctx, opts.Scope)
	start := time.Now()

	g, info, err := expand(ctx, h, opts)

	core := 0
	if info != nil {
		core = info.Group.CoreGraph.NodeCount()
	}
	hooks.OnExpandComplete(ctx, opts.Scope, core, time.Since(start), err)
	return g, info, err
}

func expand(ctx context.Context, h *hierarchy.Hierarchy, opts Options) (*render.GraphInfo, *render.NodeInfo, error) {
	g := render.New(h,
		render.WithParams(opts.Params),
		render.WithLogger(opts.Logger),
		render.WithDisplayingStats(opts.DisplayStats),
	)
	reportScope(ctx, g.Root())

	if opts.Depth > 0 {
		g.SetDepth(opts.Depth)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if opts.Tensor != "" {
		name := g.ExpandUntilNodeIsShown(opts.Tensor)
		if name == "" {
			return nil, nil, errors.New(errors.ErrCodeNodeNotFound, "no node on the path of tensor %q", opts.Tensor)
		}
		opts.Logger.Debug("expanded to tensor", "tensor", opts.Tensor, "node", name)
	}

	info, ok := g.Scope(opts.Scope)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeNodeNotFound, "no scope named %q", opts.Scope)
	}
	info.Expanded = true
	if info != g.Root() {
		reportScope(ctx, info)
	}
	return g, info, nil
}

func reportScope(ctx context.Context, info *render.NodeInfo) {
	observability.Scope().OnScopeBuilt(ctx, info.Name(), Summarize(info))
}

// Summarize counts what the built scope info draws.
func Summarize(info *render.NodeInfo) observability.ScopeStats {
	if info == nil || info.Group == nil {
		return observability.ScopeStats{}
	}
	core := info.Group.CoreGraph
	stats := observability.ScopeStats{
		Core:       core.NodeCount(),
		InExtract:  len(info.Group.IsolatedInExtract),
		OutExtract: len(info.Group.IsolatedOutExtract),
		Library:    len(info.Group.LibraryFunctionsExtract),
	}
	for _, name := range core.Nodes() {
		if child, _ := core.Node(name); child != nil {
			stats.Annotations += child.InAnnotations.Len() + child.OutAnnotations.Len()
		}
	}
	return stats
}
