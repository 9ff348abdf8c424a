package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/errors"
	"github.com/matzehuels/scopeview/pkg/render"
)

// paramsCommand creates the params command for printing and saving render
// params.
func (c *CLI) paramsCommand() *cobra.Command {
	var (
		path     string
		defaults bool
		save     bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print or save render params",
		Long: `Print the render params every command would use, as TOML or YAML.

Params come from --params, or the params file in the config directory when
it exists, or the built-in defaults. Edit the printed file and pass it back
with --params (.yaml and .yml files are read as YAML), or use --save to write
it to the config directory.`,
		Example: `  scopeview params --defaults > params.toml
  scopeview params --defaults -f yaml > params.yaml
  scopeview params --params params.yaml --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := render.DefaultParams()
			if !defaults {
				var err error
				if p, err = resolveParams(path); err != nil {
					return err
				}
			}
			if !save {
				switch format {
				case "toml":
					return p.EncodeTOML(c.out())
				case "yaml":
					return p.EncodeYAML(c.out())
				}
				return errors.New(errors.ErrCodeInvalidFormat, "params format must be toml or yaml, got %q", format)
			}
			return c.saveParams(p)
		},
	}

	cmd.Flags().StringVar(&path, "params", "", "params file (TOML or YAML) to start from")
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "print format: toml, yaml")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "ignore params files and use the built-in defaults")
	cmd.Flags().BoolVar(&save, "save", false, "write the params to the config directory instead of stdout")
	return cmd
}

func (c *CLI) saveParams(p render.Params) error {
	dest, err := defaultParamsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := p.WriteTOML(dest); err != nil {
		return err
	}
	printSuccess(c.out(), "Saved params")
	printFile(c.out(), dest)
	return nil
}
