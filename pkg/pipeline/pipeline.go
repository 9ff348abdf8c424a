// Package pipeline provides the load → build → expand → render pipeline
// shared by every scopeview command.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read the op graph and, optionally, runtime step stats
//  2. Hierarchy: Group ops into scopes and lift edges into metaedges
//  3. Expand: Build the render graph of the requested scope, expanding
//     to a depth or along a tensor path first when asked
//  4. Render: Write the scope as JSON, Graphviz DOT or SVG
//
// Each stage can be run on its own or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "graph.json",
//	    Scope:   "encoder",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scopeview/pkg/cache"
	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/hierarchy"
	"github.com/matzehuels/scopeview/pkg/render"
	"github.com/matzehuels/scopeview/pkg/render/nodelink"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatJSON, FormatDOT, FormatSVG}

// DefaultColorBy is the node fill used when none is given.
const DefaultColorBy = nodelink.ColorByStructure

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options
	Input     string // op graph JSON
	StatsPath string // optional step stats JSON
	Device    string // keep only stats of devices containing this string

	// Hierarchy options
	BuildParams hierarchy.BuildParams

	// Expand options. A zero Params means render.DefaultParams.
	Params       render.Params
	Scope        string // scope to render, "" for the root
	Depth        int    // expand every scope down to this depth first, 0 to skip
	Tensor       string // expand along this tensor's scope path first
	DisplayStats bool

	// Render options
	Formats     []string
	ColorBy     nodelink.ColorBy
	Detailed    bool
	Annotations bool
	Extracts    bool

	// Runtime options
	Logger *log.Logger
	Cache  cache.Cache // SVG artifacts, nil to always render
	Keyer  cache.Keyer

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Hierarchy *hierarchy.Hierarchy
	Graph     *render.GraphInfo
	Scope     *render.NodeInfo

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	OpCount       int
	NodeCount     int
	CoreCount     int
	LoadTime      time.Duration
	HierarchyTime time.Duration
	ExpandTime    time.Duration
	RenderTime    time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats...); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColorBy checks that c names a known node fill.
func ValidateColorBy(c nodelink.ColorBy) error {
	if err := errors.ValidateFormat(string(c), nodelink.ValidColorBy...); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid color_by: %q", c)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForExpand(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input paths.
func (o *Options) ValidateForLoad() error {
	if err := errors.ValidatePath(o.Input); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "input")
	}
	if o.StatsPath != "" {
		if err := errors.ValidatePath(o.StatsPath); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "stats")
		}
	}
	o.setLogger()
	return nil
}

// ValidateForExpand applies engine defaults and checks the scope and
// parameters.
func (o *Options) ValidateForExpand() error {
	if o.BuildParams.InEmbeddingTypes == nil && o.BuildParams.OutEmbeddingTypes == nil && o.BuildParams.RefEdges == nil {
		o.BuildParams = hierarchy.DefaultBuildParams()
	}
	if o.Params.MaxAnnotations == 0 && len(o.Params.MinMaxColors) == 0 {
		o.Params = render.DefaultParams()
	}
	if err := o.Params.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParams, err, "render params")
	}
	if err := errors.ValidateScope(o.Scope); err != nil {
		return err
	}
	if o.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depth must not be negative: %d", o.Depth)
	}
	o.setLogger()
	return nil
}

// ValidateForRender applies output defaults and checks formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	formats := make([]string, len(o.Formats))
	for i, f := range o.Formats {
		formats[i] = strings.ToLower(f)
	}
	o.Formats = formats
	if o.ColorBy == "" {
		o.ColorBy = DefaultColorBy
	}
	o.ColorBy = nodelink.ColorBy(strings.ToLower(string(o.ColorBy)))
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateColorBy(o.ColorBy); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// NodelinkOptions returns the diagram options for the render stage.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{
		Detailed:    o.Detailed,
		Annotations: o.Annotations,
		Extracts:    o.Extracts,
		ColorBy:     o.ColorBy,
	}
}
