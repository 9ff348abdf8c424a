package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render"
)

// prepare builds testGraph and expands scope.
func prepare(t *testing.T, scope string) *pipeline.Result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	input := writeFile(t, t.TempDir(), "model.json", testGraph)
	opts := pipeline.Options{Input: input, Scope: scope}
	if err := opts.ValidateForLoad(); err != nil {
		t.Fatal(err)
	}
	if err := opts.ValidateForExpand(); err != nil {
		t.Fatal(err)
	}
	result, err := pipeline.NewRunner(nil, nil, nil).Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	return result
}

func TestScopeEntries(t *testing.T) {
	r := prepare(t, "a")
	entries := scopeEntries(r.Graph, r.Scope)

	var got []string
	for _, e := range entries {
		got = append(got, e.info.Node.Name+" "+entryKind(e.info)+" "+e.place)
	}
	want := []string{
		"a/b Relu core",
		"a/c Relu core",
		"a/d meta (1) core",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("scopeEntries() = %q, want %q", got, want)
	}

	if scopeEntries(r.Graph, nil) != nil {
		t.Error("scopeEntries(nil) != nil")
	}
}

func TestBridgeEntries(t *testing.T) {
	r := prepare(t, "a")
	in, out := bridgeEntries(r.Scope)
	if len(in) != 1 || in[0].Node.Name != "z~~a~~IN" {
		t.Errorf("bridgeEntries() in = %v, want [z~~a~~IN]", names(in))
	}
	if len(out) != 1 || out[0].Node.Name != "y~~a~~OUT" {
		t.Errorf("bridgeEntries() out = %v, want [y~~a~~OUT]", names(out))
	}
}

func names(nodes []*render.NodeInfo) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Node.Name
	}
	return out
}

func TestScopeLabel(t *testing.T) {
	r := prepare(t, "")
	tests := map[string]string{
		"":         "root",
		"__root__": "root",
		"a/d":      "a/d",
	}
	for in, want := range tests {
		if got := scopeLabel(r.Graph, in); got != want {
			t.Errorf("scopeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteInspect(t *testing.T) {
	r := prepare(t, "a")
	var buf bytes.Buffer
	writeInspect(&buf, r.Graph, r.Scope)

	out := buf.String()
	for _, want := range []string{"Scope a", "meta (3)", "z~~a~~IN", "y~~a~~OUT", "Relu", "core"} {
		if !strings.Contains(out, want) {
			t.Errorf("writeInspect() output missing %q:\n%s", want, out)
		}
	}
}

func TestAnnotationCell(t *testing.T) {
	if got := annotationCell(nil); got != "-" {
		t.Errorf("annotationCell(nil) = %q, want -", got)
	}
	l := render.NewAnnotationList(5)
	if got := annotationCell(l); got != "-" {
		t.Errorf("annotationCell(empty) = %q, want -", got)
	}
}

func TestInspectCommand(t *testing.T) {
	c, buf := newTestCLI(t)
	input := writeFile(t, t.TempDir(), "model.json", testGraph)

	if err := execute(c, "inspect", input, "-s", "a/d"); err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	for _, want := range []string{"Scope a/d", "Tanh", "5 ops"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, buf.String())
		}
	}
}
