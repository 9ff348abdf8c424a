package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "graph.json")
	p.OnLoadComplete(ctx, "graph.json", 100, time.Second, nil)
	p.OnHierarchyStart(ctx, 100)
	p.OnHierarchyComplete(ctx, 120, time.Second, nil)
	p.OnExpandStart(ctx, "encoder")
	p.OnExpandComplete(ctx, "encoder", 12, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	s := NoopScopeHooks{}
	s.OnScopeBuilt(ctx, "encoder", ScopeStats{Core: 3})
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Scope().(NoopScopeHooks); !ok {
		t.Error("Scope() should return NoopScopeHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customScope := &testScopeHooks{}
	SetScopeHooks(customScope)
	if Scope() != customScope {
		t.Error("SetScopeHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Scope().(NoopScopeHooks); !ok {
		t.Error("Reset() should restore NoopScopeHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	scope := &testScopeHooks{}
	SetScopeHooks(scope)
	SetScopeHooks(nil)
	if Scope() != scope {
		t.Error("SetScopeHooks(nil) should be ignored")
	}
}

func TestCustomScopeHooksReceiveStats(t *testing.T) {
	Reset()
	defer Reset()

	h := &testScopeHooks{}
	SetScopeHooks(h)
	Scope().OnScopeBuilt(context.Background(), "a", ScopeStats{Core: 2, InExtract: 1})

	if h.scope != "a" || h.stats.Core != 2 || h.stats.InExtract != 1 {
		t.Errorf("OnScopeBuilt() recorded %q %+v, want \"a\" {Core:2 InExtract:1}", h.scope, h.stats)
	}
}

func TestMultiHooks(t *testing.T) {
	ctx := context.Background()
	a, b := &countingPipelineHooks{}, &countingPipelineHooks{}
	p := MultiPipelineHooks{a, b}
	p.OnLoadStart(ctx, "graph.json")
	p.OnLoadComplete(ctx, "graph.json", 3, time.Millisecond, nil)
	p.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	for i, h := range []*countingPipelineHooks{a, b} {
		if h.events != 3 {
			t.Errorf("hook %d saw %d events, want 3", i, h.events)
		}
	}

	s1, s2 := &testScopeHooks{}, &testScopeHooks{}
	MultiScopeHooks{s1, s2}.OnScopeBuilt(ctx, "enc", ScopeStats{Core: 4})
	if s1.scope != "enc" || s2.stats.Core != 4 {
		t.Errorf("scope fan-out = %q %+v", s1.scope, s2.stats)
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }

type countingPipelineHooks struct {
	NoopPipelineHooks
	events int
}

func (h *countingPipelineHooks) OnLoadStart(context.Context, string) { h.events++ }
func (h *countingPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
	h.events++
}
func (h *countingPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.events++
}

type testScopeHooks struct {
	scope string
	stats ScopeStats
}

func (h *testScopeHooks) OnScopeBuilt(_ context.Context, scope string, stats ScopeStats) {
	h.scope, h.stats = scope, stats
}
