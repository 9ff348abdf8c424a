package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scopeview/pkg/buildinfo"
	"github.com/matzehuels/scopeview/pkg/observability"
)

func TestRootCommand_Subcommands(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()

	for _, name := range []string{"render", "inspect", "explore", "params", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v; want the %s command", name, cmd, err, name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("--version error: %v", err)
	}
	if !strings.Contains(out.String(), buildinfo.Version) {
		t.Errorf("--version output = %q, want it to contain %q", out.String(), buildinfo.Version)
	}
}

func TestRootCommand_Verbose(t *testing.T) {
	c, _ := newTestCLI(t)

	if err := execute(c, "params", "--defaults"); err != nil {
		t.Fatalf("params error: %v", err)
	}
	if got := c.Logger.GetLevel(); got != log.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}

	if err := execute(c, "params", "--defaults", "-v"); err != nil {
		t.Fatalf("params -v error: %v", err)
	}
	if got := c.Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("level with -v = %v, want debug", got)
	}
	if _, ok := observability.Pipeline().(*logHooks); !ok {
		t.Errorf("Pipeline() = %T, want *logHooks after a command ran", observability.Pipeline())
	}
}

func TestRootCommand_MetricsFile(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "model.json", testGraph)
	path := filepath.Join(dir, "out", "run.prom")

	if err := execute(c, "inspect", input, "--metrics-file", path); err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	if _, ok := observability.Pipeline().(observability.MultiPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want MultiPipelineHooks with --metrics-file", observability.Pipeline())
	}
	if err := c.FlushMetrics(); err != nil {
		t.Fatalf("FlushMetrics() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	for _, want := range []string{`scopeview_stage_total{stage="load",status="ok"} 1`, "scopeview_graph_ops 5"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestFlushMetrics_Disabled(t *testing.T) {
	c, _ := newTestCLI(t)
	if err := c.FlushMetrics(); err != nil {
		t.Errorf("FlushMetrics() without --metrics-file = %v, want nil", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			c, buf := newTestCLI(t)
			if err := execute(c, "completion", shell); err != nil {
				t.Fatalf("completion %s error: %v", shell, err)
			}
			if !strings.Contains(buf.String(), appName) {
				t.Errorf("completion %s output does not mention %s", shell, appName)
			}
		})
	}

	c, _ := newTestCLI(t)
	if err := execute(c, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh error = nil, want error")
	}
}

func TestCompleteFormats(t *testing.T) {
	tests := []struct {
		toComplete string
		want       []string
	}{
		{"", []string{"json", "dot", "svg"}},
		{"s", []string{"svg"}},
		{"svg,", []string{"svg,json", "svg,dot", "svg,svg"}},
		{"svg,d", []string{"svg,dot"}},
		{"x", nil},
	}

	for _, tt := range tests {
		got, _ := completeFormats(nil, nil, tt.toComplete)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("completeFormats(%q) = %q, want %q", tt.toComplete, got, tt.want)
		}
	}
}
