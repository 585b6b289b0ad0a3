package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/modules"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

type modulesOpts struct {
	format  string
	orphans bool
}

// modulesCommand creates the modules command.
func (c *CLI) modulesCommand() *cobra.Command {
	opts := modulesOpts{format: "text"}

	cmd := &cobra.Command{
		Use:   "modules [workspace]",
		Short: "List the POMs reachable from the root POM",
		Long: `Modules walks the <modules> graph from the workspace's root pom.xml and
prints every reachable POM, root first. With --orphans it prints the POMs
found on disk that no module path reaches; those are not analyzed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runModules(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json, yaml")
	cmd.Flags().BoolVar(&opts.orphans, "orphans", false, "list POMs that are not reachable through <modules>")
	cmd.Flags().StringSlice("exclude", nil, "extra gitignore-style exclude patterns")
	return cmd
}

func (c *CLI) runModules(cmd *cobra.Command, args []string, opts modulesOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	cfg, err := c.loadOptions(cmd, root)
	if err != nil {
		return err
	}

	found, err := modules.Discover(ctx, root, pom.NewParser(), logger)
	if err != nil {
		return err
	}
	paths := relativeAll(root, found)

	if opts.orphans {
		all, err := modules.Glob(root, modules.NewExcluder(cfg.Exclude...))
		if err != nil {
			return err
		}
		reached := make(map[string]bool, len(found))
		for _, p := range found {
			reached[modules.Canonical(p)] = true
		}
		var orphans []string
		for _, p := range all {
			if !reached[modules.Canonical(p)] {
				orphans = append(orphans, p)
			}
		}
		paths = relativeAll(root, orphans)
	}

	if opts.format == "text" {
		w := cmd.OutOrStdout()
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		return nil
	}
	if paths == nil {
		paths = []string{}
	}
	return writeData(cmd.OutOrStdout(), opts.format, paths)
}

func relativeAll(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		out = append(out, filepath.ToSlash(p))
	}
	return out
}
