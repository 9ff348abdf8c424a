// Package cli implements the scopeview command-line interface.
package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/buildinfo"
	"github.com/matzehuels/scopeview/pkg/cache"
	scopeerrors "github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/observability/metrics"
	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scopeview"

	// paramsFile is the default params file inside the config directory.
	paramsFile = "params.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Nil means os.Stdout.
	Out io.Writer

	metrics     *metrics.Hooks
	metricsPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// FlushMetrics writes the metrics collected for --metrics-file, if any.
// It is safe to call when the flag was not given.
func (c *CLI) FlushMetrics() error {
	if c.metrics == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.metricsPath), 0o755); err != nil {
		return err
	}
	return c.metrics.WriteTextfile(c.metricsPath)
}

func (c *CLI) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// newRunner creates a pipeline runner for CLI use. Without noCache, SVG
// artifacts are cached in [cacheDir] under keys scoped by build version.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	return pipeline.NewRunner(c.newCache(noCache), keyer, c.Logger)
}

func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("artifact cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scopeview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/scopeview/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultParamsPath returns where `params --save` writes and where every
// command looks for params when --params is not given.
func defaultParamsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, paramsFile), nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// scopeFlags are the flags every command that builds a scope accepts.
type scopeFlags struct {
	statsPath    string
	device       string
	paramsPath   string
	scope        string
	depth        int
	tensor       string
	displayStats bool
	noExtraction bool
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.statsPath, "stats", "", "step stats JSON to join onto the graph")
	cmd.Flags().StringVar(&f.device, "device", "", "only join stats of devices containing this string")
	cmd.Flags().StringVar(&f.paramsPath, "params", "", "render params TOML (default: "+filepath.Join("$XDG_CONFIG_HOME", appName, paramsFile)+" if present)")
	cmd.Flags().StringVarP(&f.scope, "scope", "s", "", "scope to show (default: root)")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", 0, "expand every scope down to this depth first")
	cmd.Flags().StringVar(&f.tensor, "tensor", "", "expand the scopes on the path to this tensor first")
	cmd.Flags().BoolVar(&f.displayStats, "display-stats", false, "fade out nodes without run-time stats")
	cmd.Flags().BoolVar(&f.noExtraction, "no-extraction", false, "disable high-degree and isolated-node extraction")
}

// options turns the flags into pipeline options for input.
func (f *scopeFlags) options(input string) (pipeline.Options, error) {
	params, err := resolveParams(f.paramsPath)
	if err != nil {
		return pipeline.Options{}, err
	}
	if f.noExtraction {
		params.EnableExtraction = false
	}
	return pipeline.Options{
		Input:        input,
		StatsPath:    f.statsPath,
		Device:       f.device,
		Params:       params,
		Scope:        f.scope,
		Depth:        f.depth,
		Tensor:       f.tensor,
		DisplayStats: f.displayStats,
	}, nil
}

// watched lists the files the flags read for input, in watch order.
func (f *scopeFlags) watched(input string) []string {
	paths := []string{input}
	if f.statsPath != "" {
		paths = append(paths, f.statsPath)
	}
	if f.paramsPath != "" {
		paths = append(paths, f.paramsPath)
	} else if def, err := defaultParamsPath(); err == nil {
		if _, err := os.Stat(def); err == nil {
			paths = append(paths, def)
		}
	}
	return paths
}

// resolveParams loads path, or the default params file when path is empty
// and the file exists, or falls back to [render.DefaultParams].
func resolveParams(path string) (render.Params, error) {
	if path == "" {
		def, err := defaultParamsPath()
		if err != nil {
			return render.DefaultParams(), nil
		}
		if _, err := os.Stat(def); errors.Is(err, fs.ErrNotExist) {
			return render.DefaultParams(), nil
		}
		path = def
	}
	p, err := render.LoadParams(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return render.Params{}, scopeerrors.Wrap(scopeerrors.ErrCodeFileNotFound, err, "params file %s", path)
		}
		return render.Params{}, scopeerrors.Wrap(scopeerrors.ErrCodeInvalidParams, err, "params file %s", path)
	}
	return p, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
