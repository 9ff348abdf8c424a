// Package observability provides hooks for metrics, tracing, and logging.
//
// The pipeline reports what it does through hook interfaces instead of
// importing a metrics or tracing backend. Consumers register hooks at
// startup; until they do, no-op implementations swallow every event.
//
// Two event categories exist:
//   - [PipelineHooks] for the stages of one run: load, hierarchy build,
//     scope expansion and output rendering
//   - [ScopeHooks] for every scope whose render graph gets built
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetScopeHooks(&myScopeHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLoadStart(ctx, path)
//	// ... decode ...
//	observability.Pipeline().OnLoadComplete(ctx, path, opCount, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the visualization pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, opCount int, duration time.Duration, err error)

	// Hierarchy events
	OnHierarchyStart(ctx context.Context, opCount int)
	OnHierarchyComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)

	// Expand events
	OnExpandStart(ctx context.Context, scope string)
	OnExpandComplete(ctx context.Context, scope string, coreCount int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Scope Hooks
// =============================================================================

// ScopeStats summarizes one built scope.
type ScopeStats struct {
	Core        int // nodes left in the core graph
	InExtract   int // isolated in-extract nodes
	OutExtract  int // isolated out-extract nodes
	Library     int // library function templates moved aside
	Annotations int // annotations over all children, ellipses included
}

// ScopeHooks receives an event for every built scope.
type ScopeHooks interface {
	OnScopeBuilt(ctx context.Context, scope string, stats ScopeStats)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnHierarchyStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnHierarchyComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnExpandStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnExpandComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                             {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)    {}

// NoopScopeHooks is a no-op implementation of ScopeHooks.
type NoopScopeHooks struct{}

func (NoopScopeHooks) OnScopeBuilt(context.Context, string, ScopeStats) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	scopeHooks    ScopeHooks    = NoopScopeHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetScopeHooks registers custom scope hooks.
func SetScopeHooks(h ScopeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scopeHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Scope returns the registered scope hooks.
func Scope() ScopeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scopeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	scopeHooks = NoopScopeHooks{}
}

// =============================================================================
// Fan-out
// =============================================================================

// MultiPipelineHooks forwards every event to each hook in order.
type MultiPipelineHooks []PipelineHooks

func (m MultiPipelineHooks) OnLoadStart(ctx context.Context, source string) {
	for _, h := range m {
		h.OnLoadStart(ctx, source)
	}
}

func (m MultiPipelineHooks) OnLoadComplete(ctx context.Context, source string, opCount int, d time.Duration, err error) {
	for _, h := range m {
		h.OnLoadComplete(ctx, source, opCount, d, err)
	}
}

func (m MultiPipelineHooks) OnHierarchyStart(ctx context.Context, opCount int) {
	for _, h := range m {
		h.OnHierarchyStart(ctx, opCount)
	}
}

func (m MultiPipelineHooks) OnHierarchyComplete(ctx context.Context, nodeCount int, d time.Duration, err error) {
	for _, h := range m {
		h.OnHierarchyComplete(ctx, nodeCount, d, err)
	}
}

func (m MultiPipelineHooks) OnExpandStart(ctx context.Context, scope string) {
	for _, h := range m {
		h.OnExpandStart(ctx, scope)
	}
}

func (m MultiPipelineHooks) OnExpandComplete(ctx context.Context, scope string, coreCount int, d time.Duration, err error) {
	for _, h := range m {
		h.OnExpandComplete(ctx, scope, coreCount, d, err)
	}
}

func (m MultiPipelineHooks) OnRenderStart(ctx context.Context, formats []string) {
	for _, h := range m {
		h.OnRenderStart(ctx, formats)
	}
}

func (m MultiPipelineHooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	for _, h := range m {
		h.OnRenderComplete(ctx, formats, d, err)
	}
}

// MultiScopeHooks forwards every built scope to each hook in order.
type MultiScopeHooks []ScopeHooks

func (m MultiScopeHooks) OnScopeBuilt(ctx context.Context, scope string, stats ScopeStats) {
	for _, h := range m {
		h.OnScopeBuilt(ctx, scope, stats)
	}
}
