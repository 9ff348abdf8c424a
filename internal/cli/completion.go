package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render/nodelink"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for scopeview.

Bash:
  $ source <(scopeview completion bash)

Zsh:
  $ scopeview completion zsh > "${fpath[1]}/_scopeview"

Fish:
  $ scopeview completion fish | source

PowerShell:
  PS> scopeview completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.out()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}

// completeFormats completes the comma-separated --format list: everything
// before the last comma is kept and the last item is completed.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	var out []string
	for _, f := range pipeline.ValidFormats {
		if cand := prefix + f; strings.HasPrefix(cand, toComplete) {
			out = append(out, cand)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeColorBy(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return nodelink.ValidColorBy, cobra.ShellCompDirectiveNoFileComp
}
