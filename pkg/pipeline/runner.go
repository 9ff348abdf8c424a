package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scopeview/pkg/cache"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

// Runner executes pipeline stages with a shared logger and artifact cache.
//
// The Runner keeps no state between runs. It may be shared by goroutines
// as long as each run uses its own options and the cache is safe for
// concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to [cache.NullCache],
// [cache.DefaultKeyer] and [log.Default].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → hierarchy → expand → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyRuntime(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, result.Graph, result.Scope, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Prepare runs every stage but rendering, for callers that present the
// render graph themselves.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Result, error) {
	r.applyRuntime(&opts)
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	def, stats, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.OpCount = len(def.Nodes)

	r.Logger.Info("loaded graph",
		"ops", result.Stats.OpCount,
		"stats", stats != nil,
		"duration", result.Stats.LoadTime)

	// Stage 2: Hierarchy
	h, err := r.Hierarchy(ctx, def, stats, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Hierarchy = h

	// Stage 3: Expand
	expandStart := time.Now()
	g, info, err := Expand(ctx, h, opts)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	result.Graph = g
	result.Scope = info
	result.Stats.ExpandTime = time.Since(expandStart)
	result.Stats.CoreCount = info.Group.CoreGraph.NodeCount()

	r.Logger.Info("built scope",
		"scope", info.Name(),
		"core", result.Stats.CoreCount,
		"duration", result.Stats.ExpandTime)

	return result, nil
}

// Hierarchy runs the hierarchy stage and records its timing in stats.
func (r *Runner) Hierarchy(ctx context.Context, def *hierarchy.GraphDef, stats *hierarchy.StepStats, opts Options, s *Stats) (*hierarchy.Hierarchy, error) {
	r.applyRuntime(&opts)
	start := time.Now()
	h, err := BuildHierarchy(ctx, def, stats, opts)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	s.HierarchyTime = time.Since(start)
	s.NodeCount = h.Len()

	r.Logger.Info("built hierarchy",
		"nodes", s.NodeCount,
		"duration", s.HierarchyTime)
	return h, nil
}

// applyRuntime sets the runner's logger and cache on options if not
// already set.
func (r *Runner) applyRuntime(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Cache == nil {
		opts.Cache = r.Cache
		opts.Keyer = r.Keyer
	}
}
