package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/targets"
)

// describePluginCommand creates the describe-plugin command.
func (c *CLI) describePluginCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe-plugin <groupId:artifactId>",
		Short: "List the goals of a Maven plugin",
		Long: `Describe-plugin prints the goals of a plugin and the target each goal
becomes. Known plugins are answered from the built-in table; others are
discovered by running mvn help:describe.`,
		Example: `  pomgraph describe-plugin org.springframework.boot:spring-boot-maven-plugin
  pomgraph describe-plugin org.flywaydb:flyway-maven-plugin -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDescribePlugin(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().String("discovery-command", "", "maven command used for discovery (default: mvnd if available, else mvn)")
	cmd.Flags().Duration("discovery-timeout", plugins.DefaultTimeout, "timeout of the discovery process")
	cmd.Flags().String("plugin-table", "", "TOML file extending the known plugin table")
	return cmd
}

func (c *CLI) runDescribePlugin(cmd *cobra.Command, coord, format string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := errors.ValidatePluginCoordinate(coord); err != nil {
		return err
	}
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := c.loadOptions(cmd, dir)
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	pool := plugins.NewPool(plugins.Options{
		Concurrency: 1,
		Timeout:     cfg.DiscoveryTimeout,
		Command:     cfg.DiscoveryCommand,
		Table:       table,
		Logger:      logger,
	})
	defer pool.Close()

	status := cmd.ErrOrStderr()
	spin := newSpinner(ctx, status, "Describing "+coord+"...")
	if !table.Has(coord) {
		spin.Start()
	}
	d, err := pool.Discover(ctx, coord, dir)
	spin.Stop()
	if err != nil {
		return err
	}
	if d == nil {
		printWarning(status, "No goals found for %s", coord)
		return nil
	}

	if format != "text" {
		return writeData(cmd.OutOrStdout(), format, d)
	}
	w := cmd.OutOrStdout()
	printKeyValue(w, "plugin", d.Key())
	printKeyValue(w, "source", string(d.Source))
	if d.Version != "" {
		printKeyValue(w, "version", d.Version)
	}
	for _, g := range d.Goals {
		printKeyValue(w, g.Name, targets.TargetName(d.ArtifactID, g.Name)+"  "+StyleDim.Render(string(g.CategoryOrDefault())))
		if g.Description != "" {
			printDetail(w, "%s", g.Description)
		}
	}
	return nil
}
