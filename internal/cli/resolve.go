package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/pom"
)

type resolveOpts struct {
	format string
	root   string
	raw    bool
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: formatYAML}

	cmd := &cobra.Command{
		Use:   "resolve [pom.xml]",
		Short: "Print the effective model of a POM",
		Long: `Resolve merges a POM with its parent chain, applies dependency management
and interpolates properties, then prints the resulting model. Parents
outside the relative path are looked up among the workspace projects.`,
		Example: `  pomgraph resolve app/pom.xml
  pomgraph resolve app/pom.xml --raw -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, yaml")
	cmd.Flags().StringVar(&opts.root, "root", ".", "workspace root used for parent lookup")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the model as declared, without inheritance")
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, args []string, opts resolveOpts) error {
	ctx := cmd.Context()

	path := "pom.xml"
	if len(args) > 0 {
		path = args[0]
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(opts.root)
	if err != nil {
		return err
	}

	a, _, err := c.newAnalyzer(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close()
	wctx := a.Context()

	var p *pom.Project
	if opts.raw {
		p, err = wctx.Parser.Parse(ctx, path)
	} else {
		// Loading the workspace indexes its projects for parent lookup.
		if _, err := a.CreateDependencies(ctx, nil); err != nil {
			return err
		}
		p, err = wctx.Resolver.Resolve(ctx, path)
	}
	if err != nil {
		return err
	}
	return writeData(cmd.OutOrStdout(), opts.format, p)
}
