package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render/nodelink"
)

// stdoutPath as --output writes the single requested format to stdout.
const stdoutPath = "-"

// formatExt maps an output format to its file suffix. JSON scope exports
// get a compound suffix so they never overwrite the input graph.
var formatExt = map[string]string{
	pipeline.FormatJSON: ".scope.json",
	pipeline.FormatDOT:  ".dot",
	pipeline.FormatSVG:  ".svg",
}

// knownExts are stripped from --output to get a base path, longest first.
var knownExts = []string{".scope.json", ".json", ".dot", ".svg"}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		sf         scopeFlags
		formatsStr string
		colorBy    string
		output     string
		noCache    bool
		watch      bool
		ropts      nodelink.Options
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render one scope of an op graph",
		Long: `Render one scope of an op graph as a node-link diagram.

The graph is grouped into name scopes, the requested scope is built (bridges
to the outside, extracted nodes and annotations included) and written as
JSON, Graphviz DOT or SVG.

Output files are named after the input and scope unless --output is given.
With a single format, --output - writes to stdout.

With --watch the scope is rendered again whenever the graph, stats or params
file changes, until interrupted.`,
		Example: `  scopeview render model.json
  scopeview render model.json -s encoder/layer_0 -f svg,dot
  scopeview render model.json --tensor decoder/logits:0 --color-by device -o -
  scopeview render model.json -s encoder --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if watch && output == stdoutPath {
				return errors.New(errors.ErrCodeInvalidInput, "--watch cannot write to stdout")
			}
			render := func() error {
				// Options are rebuilt each time so an edited params file applies.
				opts, err := sf.options(args[0])
				if err != nil {
					return err
				}
				opts.Formats = parseFormats(formatsStr)
				opts.ColorBy = nodelink.ColorBy(colorBy)
				opts.Detailed = ropts.Detailed
				opts.Annotations = ropts.Annotations
				opts.Extracts = ropts.Extracts
				return c.runRender(ctx, opts, output, noCache)
			}
			if err := render(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return c.watchRender(ctx, sf.watched(args[0]), render)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always run Graphviz instead of reusing cached SVG")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "render again when the input files change")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().StringVar(&colorBy, "color-by", string(pipeline.DefaultColorBy), "node fill: "+strings.Join(nodelink.ValidColorBy, ", "))
	cmd.Flags().BoolVar(&ropts.Detailed, "detailed", false, "add op types to nodes and tensor shapes to edges")
	cmd.Flags().BoolVar(&ropts.Annotations, "annotations", true, "draw annotations next to their nodes")
	cmd.Flags().BoolVar(&ropts.Extracts, "extracts", true, "draw extracted nodes beside the core graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("color-by", completeColorBy)

	return cmd
}

// runRender runs the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	logger := loggerFromContext(ctx)
	opts.Logger = logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if output == stdoutPath && len(opts.Formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--output - needs exactly one format, got %d", len(opts.Formats))
	}

	prog := newProgress(logger)
	var spin *Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spin = newSpinner(ctx, os.Stderr, "Rendering...")
		spin.Start()
	}
	runner := c.newRunner(noCache)
	defer runner.Cache.Close()
	result, err := runner.Execute(ctx, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	scope := scopeLabel(result.Graph, result.Scope.Name())
	prog.done("Rendered " + scope)

	if output == stdoutPath {
		_, err := c.out().Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(output, opts.Input, opts.Scope, opts.Formats)
	out := c.out()
	for _, f := range opts.Formats {
		if err := os.WriteFile(paths[f], result.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[f], err)
		}
	}

	printSuccess(out, "Rendered scope %s", StyleHighlight.Render(scope))
	for _, f := range opts.Formats {
		printFile(out, paths[f])
	}
	printStats(out, result.Stats)
	printNextStep(out, "Browse scopes", appName+" explore "+opts.Input)
	return nil
}

// watchRender re-runs render after every change to paths until ctx ends.
// Failed renders are logged and watching goes on.
func (c *CLI) watchRender(ctx context.Context, paths []string, render func() error) error {
	logger := loggerFromContext(ctx)
	fw, err := newFileWatcher(paths, logger)
	if err != nil {
		return err
	}
	printInfo(c.out(), "Watching %s (ctrl+c to stop)", strings.Join(paths, ", "))
	return fw.run(ctx, watchDebounce, func() {
		if err := render(); err != nil {
			logger.Error("render failed", "err", errors.UserMessage(err))
		}
	})
}

// outputPaths derives one output path per format.
//
// A single format with an explicit output uses it as is. Otherwise paths
// are built from a base: the output with any known suffix removed, or the
// input without its extension plus the scope with '/' replaced by '_'.
func outputPaths(output, input, scope string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input, scope)
	for _, f := range formats {
		paths[f] = base + formatExt[f]
	}
	return paths
}

// basePath strips known format suffixes from output, or derives a base
// from input and scope when output is empty.
func basePath(output, input, scope string) string {
	if output != "" {
		for _, ext := range knownExts {
			if strings.HasSuffix(output, ext) {
				return strings.TrimSuffix(output, ext)
			}
		}
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if scope != "" {
		base += "_" + strings.ReplaceAll(scope, "/", "_")
	}
	return base
}
