package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Params tunes how scopes are turned into render graphs.
//
// The zero value is not useful; start from [DefaultParams] and override
// individual fields, or load a TOML or YAML file with [LoadParams].
type Params struct {
	// EnableExtraction turns on the degree-based declutter heuristics.
	EnableExtraction bool `toml:"enable_extraction" yaml:"enable_extraction"`

	// MinNodeCountForExtraction is the number of eligible core nodes a scope
	// must have before high-degree extraction runs.
	MinNodeCountForExtraction int `toml:"min_node_count_for_extraction" yaml:"min_node_count_for_extraction"`

	// MinDegreeForExtraction is the floor for the outlier degree bound.
	MinDegreeForExtraction int `toml:"min_degree_for_extraction" yaml:"min_degree_for_extraction"`

	// MaxControlDegree is the number of control-only edges a node may keep
	// before all of them become shortcuts. Zero disables the check.
	MaxControlDegree int `toml:"max_control_degree" yaml:"max_control_degree"`

	// MaxBridgePathDegree caps how many nodes inside a scope may share an
	// outside endpoint before bridge paths give way to annotations.
	MaxBridgePathDegree int `toml:"max_bridge_path_degree" yaml:"max_bridge_path_degree"`

	OutExtractTypes []string `toml:"out_extract_types" yaml:"out_extract_types"`
	InExtractTypes  []string `toml:"in_extract_types" yaml:"in_extract_types"`

	// DetachAllEdgesForHighDegree also detaches the edges on the far side of
	// an extracted node.
	DetachAllEdgesForHighDegree bool `toml:"detach_all_edges_for_high_degree" yaml:"detach_all_edges_for_high_degree"`

	// ExtractIsolatedNodesWithAnnotationsOnOneSide moves nodes whose edges
	// all became annotations on a single side out of the core.
	ExtractIsolatedNodesWithAnnotationsOnOneSide bool `toml:"extract_isolated_nodes_with_annotations_on_one_side" yaml:"extract_isolated_nodes_with_annotations_on_one_side"`

	EnableBridgegraph bool `toml:"enable_bridgegraph" yaml:"enable_bridgegraph"`

	// MinMaxColors holds the low and high end of the stats color ramps.
	MinMaxColors []string `toml:"min_max_colors" yaml:"min_max_colors"`

	// MaxAnnotations is the number of annotations shown per side before the
	// rest collapse into an ellipsis.
	MaxAnnotations int `toml:"max_annotations" yaml:"max_annotations"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		EnableExtraction:          true,
		MinNodeCountForExtraction: 15,
		MinDegreeForExtraction:    5,
		MaxControlDegree:          4,
		MaxBridgePathDegree:       4,
		OutExtractTypes:           []string{"NoOp"},
		InExtractTypes:            []string{},
		DetachAllEdgesForHighDegree:                  true,
		ExtractIsolatedNodesWithAnnotationsOnOneSide: true,
		EnableBridgegraph: true,
		MinMaxColors:      []string{"#fff5f0", "#fb6a4a"},
		MaxAnnotations:    5,
	}
}

// LoadParams reads a parameter file on top of [DefaultParams]. Files ending
// in .yaml or .yml are YAML, everything else is TOML. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadParams(path string) (Params, error) {
	var (
		p   Params
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = loadYAML(path)
	default:
		p, err = loadTOML(path)
	}
	if err != nil {
		return Params{}, err
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func loadTOML(path string) (Params, error) {
	p := DefaultParams()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Params{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return p, nil
}

func loadYAML(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("decode %s: %w", path, err)
	}
	defer f.Close()

	p := DefaultParams()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

// WriteTOML writes p to path, creating or truncating the file.
func (p Params) WriteTOML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.EncodeTOML(f)
}

// EncodeTOML writes p to w in the format [LoadParams] reads.
func (p Params) EncodeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// EncodeYAML writes p to w as YAML.
func (p Params) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	switch {
	case p.MinNodeCountForExtraction < 0:
		return fmt.Errorf("min_node_count_for_extraction must be >= 0, got %d", p.MinNodeCountForExtraction)
	case p.MinDegreeForExtraction < 0:
		return fmt.Errorf("min_degree_for_extraction must be >= 0, got %d", p.MinDegreeForExtraction)
	case p.MaxControlDegree < 0:
		return fmt.Errorf("max_control_degree must be >= 0, got %d", p.MaxControlDegree)
	case p.MaxBridgePathDegree < 0:
		return fmt.Errorf("max_bridge_path_degree must be >= 0, got %d", p.MaxBridgePathDegree)
	case p.MaxAnnotations < 1:
		return fmt.Errorf("max_annotations must be >= 1, got %d", p.MaxAnnotations)
	case len(p.MinMaxColors) != 2:
		return fmt.Errorf("min_max_colors needs exactly 2 colors, got %d", len(p.MinMaxColors))
	}
	for _, c := range p.MinMaxColors {
		if _, err := colorful.Hex(c); err != nil {
			return fmt.Errorf("min_max_colors: %w", err)
		}
	}
	return nil
}
