package render

import (
	"testing"

	"github.com/matzehuels/scopeview/pkg/hierarchy"
)

func TestStructurePalette(t *testing.T) {
	if StructurePalette(0, false) == StructurePalette(1, false) {
		t.Error("neighboring ids share a color")
	}
	if StructurePalette(0, false) != StructurePalette(10, false) {
		t.Error("palette does not wrap after 10 hues")
	}
	if StructurePalette(3, false) == StructurePalette(3, true) {
		t.Error("lightened color equals base color")
	}
}

func TestShapeLabel(t *testing.T) {
	tests := []struct {
		shape hierarchy.Shape
		want  string
	}{
		{hierarchy.Shape{}, "scalar"},
		{hierarchy.Shape{4}, "4"},
		{hierarchy.Shape{-1, 28, 28}, "?×28×28"},
	}
	for _, tt := range tests {
		if got := shapeLabel(tt.shape); got != tt.want {
			t.Errorf("shapeLabel(%v) = %q, want %q", tt.shape, got, tt.want)
		}
	}
}

func TestColorScale(t *testing.T) {
	s := newColorScale(100, DefaultParams().MinMaxColors)
	if got := s.color(0); got != "#fff5f0" {
		t.Errorf("color(0) = %q, want #fff5f0", got)
	}
	if got := s.color(100); got != "#fb6a4a" {
		t.Errorf("color(100) = %q, want #fb6a4a", got)
	}
	if got := s.color(1000); got != "#fb6a4a" {
		t.Errorf("color(1000) = %q, want clamped #fb6a4a", got)
	}
}
