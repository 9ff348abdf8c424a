package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/buildinfo"
	"github.com/matzehuels/scopeview/pkg/observability"
	"github.com/matzehuels/scopeview/pkg/observability/metrics"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Logging goes to the CLI's logger at info level, or debug level with
// --verbose. The logger is attached to each command's context and also
// receives pipeline and scope events through [observability] hooks. With
// --metrics-file the same events are also counted; call [CLI.FlushMetrics]
// once the command returns.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose     bool
		metricsPath string
	)

	root := &cobra.Command{
		Use:   appName,
		Short: "Scopeview draws one scope of a computation graph at a time",
		Long: `Scopeview groups the ops of a computation graph into nested name scopes and
builds a readable diagram of any one scope: its children, bridge nodes that
connect it to the rest of the graph, extracted high-degree nodes and compact
annotations for edges that would otherwise clutter the view.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := LogInfo
			if verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)

			hooks := newLogHooks(c.Logger)
			if metricsPath == "" {
				observability.SetPipelineHooks(hooks)
				observability.SetScopeHooks(hooks)
			} else {
				c.metrics = metrics.New()
				c.metricsPath = metricsPath
				observability.SetPipelineHooks(observability.MultiPipelineHooks{hooks, c.metrics})
				observability.SetScopeHooks(observability.MultiScopeHooks{hooks, c.metrics})
			}

			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics of the run to this file")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.paramsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
