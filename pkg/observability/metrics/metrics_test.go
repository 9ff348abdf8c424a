package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/scopeview/pkg/observability"
)

func TestHooks_Stages(t *testing.T) {
	ctx := context.Background()
	h := New()

	h.OnLoadComplete(ctx, "graph.json", 42, time.Millisecond, nil)
	h.OnHierarchyComplete(ctx, 57, time.Millisecond, nil)
	h.OnExpandComplete(ctx, "enc", 5, time.Millisecond, nil)
	h.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, errors.New("boom"))
	h.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)

	tests := []struct {
		stage, status string
		want          float64
	}{
		{StageLoad, "ok", 1},
		{StageHierarchy, "ok", 1},
		{StageExpand, "ok", 1},
		{StageRender, "ok", 1},
		{StageRender, "error", 1},
		{StageLoad, "error", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(h.stageTotal.WithLabelValues(tt.stage, tt.status))
		if got != tt.want {
			t.Errorf("stage_total{%s,%s} = %v, want %v", tt.stage, tt.status, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(h.ops); got != 42 {
		t.Errorf("graph_ops = %v, want 42", got)
	}
	if got := testutil.ToFloat64(h.hierarchy); got != 57 {
		t.Errorf("hierarchy_nodes = %v, want 57", got)
	}
}

func TestHooks_FailedLoadKeepsGauge(t *testing.T) {
	ctx := context.Background()
	h := New()
	h.OnLoadComplete(ctx, "a.json", 10, time.Millisecond, nil)
	h.OnLoadComplete(ctx, "b.json", 0, time.Millisecond, errors.New("missing"))
	if got := testutil.ToFloat64(h.ops); got != 10 {
		t.Errorf("graph_ops = %v, want 10", got)
	}
}

func TestHooks_ScopeBuilt(t *testing.T) {
	h := New()
	h.OnScopeBuilt(context.Background(), "enc", observability.ScopeStats{Core: 3, InExtract: 1, Annotations: 2})
	h.OnScopeBuilt(context.Background(), "dec", observability.ScopeStats{Core: 4})

	if got := testutil.ToFloat64(h.scopesBuilt); got != 2 {
		t.Errorf("scopes_built_total = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(h.scopeNodes); n != 4 {
		t.Errorf("scope_nodes series = %d, want 4", n)
	}
}

func TestHooks_WriteTextfile(t *testing.T) {
	h := New()
	h.OnLoadComplete(context.Background(), "graph.json", 7, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "scopeview.prom")
	if err := h.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`scopeview_stage_total{stage="load",status="ok"} 1`,
		"scopeview_graph_ops 7",
		"# TYPE scopeview_stage_duration_seconds histogram",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
