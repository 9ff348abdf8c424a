package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/render"
)

func TestParamsCommand_Defaults(t *testing.T) {
	c, buf := newTestCLI(t)
	if err := execute(c, "params", "--defaults"); err != nil {
		t.Fatalf("params error: %v", err)
	}
	for _, want := range []string{"max_annotations = 5", "enable_extraction = true", `out_extract_types = ["NoOp"]`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("params output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestParamsCommand_FromFile(t *testing.T) {
	c, buf := newTestCLI(t)
	path := writeFile(t, t.TempDir(), "p.toml", "max_annotations = 9\nenable_bridgegraph = false\n")

	if err := execute(c, "params", "--params", path); err != nil {
		t.Fatalf("params error: %v", err)
	}
	for _, want := range []string{"max_annotations = 9", "enable_bridgegraph = false"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("params output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestParamsCommand_Save(t *testing.T) {
	c, _ := newTestCLI(t)
	path := writeFile(t, t.TempDir(), "p.toml", "max_annotations = 7\n")

	if err := execute(c, "params", "--params", path, "--save"); err != nil {
		t.Fatalf("params --save error: %v", err)
	}
	dest := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName, paramsFile)
	saved, err := render.LoadParams(dest)
	if err != nil {
		t.Fatalf("LoadParams(saved) error: %v", err)
	}
	if saved.MaxAnnotations != 7 {
		t.Errorf("saved MaxAnnotations = %d, want 7", saved.MaxAnnotations)
	}

	// Later commands pick the saved file up.
	p, err := resolveParams("")
	if err != nil {
		t.Fatalf("resolveParams() error: %v", err)
	}
	if p.MaxAnnotations != 7 {
		t.Errorf("resolveParams() MaxAnnotations = %d, want 7", p.MaxAnnotations)
	}
}

func TestParamsCommand_YAML(t *testing.T) {
	c, buf := newTestCLI(t)
	path := writeFile(t, t.TempDir(), "p.yaml", "max_annotations: 4\n")

	if err := execute(c, "params", "--params", path, "-f", "yaml"); err != nil {
		t.Fatalf("params error: %v", err)
	}
	for _, want := range []string{"max_annotations: 4", "enable_extraction: true"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("params output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestParamsCommand_BadFormat(t *testing.T) {
	c, _ := newTestCLI(t)
	err := execute(c, "params", "--defaults", "-f", "json")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("params -f json error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}
