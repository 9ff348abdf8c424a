package render

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Params)
		wantErr string
	}{
		{"Default", func(*Params) {}, ""},
		{"NegativeControlDegree", func(p *Params) { p.MaxControlDegree = -1 }, "max_control_degree"},
		{"ZeroAnnotations", func(p *Params) { p.MaxAnnotations = 0 }, "max_annotations"},
		{"OneColor", func(p *Params) { p.MinMaxColors = []string{"#ffffff"} }, "min_max_colors"},
		{"BadColor", func(p *Params) { p.MinMaxColors = []string{"#ffffff", "red"} }, "min_max_colors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Validate() error = %v, want nil", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeFile(t, `
max_annotations = 3
out_extract_types = ["NoOp", "Assert"]
enable_bridgegraph = false
`)
	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error: %v", err)
	}
	if p.MaxAnnotations != 3 {
		t.Errorf("MaxAnnotations = %d, want 3", p.MaxAnnotations)
	}
	if !slices.Equal(p.OutExtractTypes, []string{"NoOp", "Assert"}) {
		t.Errorf("OutExtractTypes = %v", p.OutExtractTypes)
	}
	if p.EnableBridgegraph {
		t.Error("EnableBridgegraph = true, want false")
	}
	if p.MinNodeCountForExtraction != 15 {
		t.Errorf("MinNodeCountForExtraction = %d, want default 15", p.MinNodeCountForExtraction)
	}
}

func TestLoadParams_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"UnknownKey", "max_anotations = 3\n", "unknown keys"},
		{"Invalid", "max_annotations = 0\n", "max_annotations"},
		{"Syntax", "max_annotations = \n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadParams(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadParams() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParams_WriteTOML(t *testing.T) {
	want := DefaultParams()
	want.MaxBridgePathDegree = 7
	path := filepath.Join(t.TempDir(), "out.toml")
	if err := want.WriteTOML(path); err != nil {
		t.Fatalf("WriteTOML() error: %v", err)
	}
	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error: %v", err)
	}
	if got.MaxBridgePathDegree != 7 || !slices.Equal(got.MinMaxColors, want.MinMaxColors) {
		t.Errorf("LoadParams() = %+v, want %+v", got, want)
	}
}

func TestLoadParams_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	content := "max_annotations: 2\nin_extract_types: [Const]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error: %v", err)
	}
	if p.MaxAnnotations != 2 || !slices.Equal(p.InExtractTypes, []string{"Const"}) {
		t.Errorf("LoadParams() = %+v", p)
	}
	if !p.EnableExtraction {
		t.Error("EnableExtraction should keep its default")
	}
}

func TestLoadParams_YAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"UnknownKey", "max_anotations: 3\n", "max_anotations"},
		{"Invalid", "min_max_colors: [\"#fff\"]\n", "min_max_colors"},
		{"Syntax", "max_annotations: [\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "params.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadParams(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadParams() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadParams_EmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error: %v", err)
	}
	if p.MaxAnnotations != DefaultParams().MaxAnnotations {
		t.Errorf("MaxAnnotations = %d, want default", p.MaxAnnotations)
	}
}

func TestParams_EncodeYAML(t *testing.T) {
	want := DefaultParams()
	want.MaxControlDegree = 9
	var buf strings.Builder
	if err := want.EncodeYAML(&buf); err != nil {
		t.Fatalf("EncodeYAML() error: %v", err)
	}
	if !strings.Contains(buf.String(), "max_control_degree: 9") {
		t.Errorf("EncodeYAML() output:\n%s", buf.String())
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error: %v", err)
	}
	if got.MaxControlDegree != 9 {
		t.Errorf("MaxControlDegree = %d, want 9", got.MaxControlDegree)
	}
}
