package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/graph"
)

type graphOpts struct {
	output   string
	format   string
	targets  []string
	order    bool
	affected string
}

// graphCommand creates the graph command, the CreateDependencies entry point.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatJSON}

	cmd := &cobra.Command{
		Use:   "graph [workspace]",
		Short: "Print the project dependency graph",
		Long: `Graph resolves the workspace and prints the edges between its projects.
Static edges come from declared dependencies; implicit edges link a project
to its parent and an aggregator to its modules.

Formats json and yaml print the edge list, dot prints Graphviz source and
svg renders it. With --order the projects are listed in build order, and
with --affected the projects that transitively depend on one project.`,
		Example: `  # Render the workspace graph
  pomgraph graph -f svg -o workspace.svg

  # Only edges between projects the orchestrator knows
  pomgraph graph --project com.acme.core --project com.acme.app

  # What must be rebuilt after changing core
  pomgraph graph --affected com.acme.core`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, yaml, dot, svg")
	cmd.Flags().StringSliceVar(&opts.targets, "project", nil, "restrict edges to these project names")
	cmd.Flags().BoolVar(&opts.order, "order", false, "list projects in build order")
	cmd.Flags().StringVar(&opts.affected, "affected", "", "list projects that transitively depend on this project")
	cmd.MarkFlagsMutuallyExclusive("order", "affected")
	addAnalysisFlags(cmd)
	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, opts graphOpts) error {
	ctx := cmd.Context()

	switch opts.format {
	case formatJSON, formatYAML, formatDOT, formatSVG:
	default:
		return fmt.Errorf("unsupported format: %s (want json, yaml, dot or svg)", opts.format)
	}

	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	a, _, err := c.newAnalyzer(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close()

	var reg graph.Registry
	if len(opts.targets) > 0 {
		reg = graph.NewNameSet(opts.targets...)
	}
	edges, err := a.CreateDependencies(ctx, reg)
	if err != nil {
		return err
	}
	g := &graph.Graph{Projects: a.Graph().Projects, Edges: edges}
	if reg != nil {
		g.Projects = filterProjects(g.Projects, reg)
	}

	if opts.order || opts.affected != "" {
		return writeProjectList(cmd, opts, g)
	}

	out, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := c.writeGraph(cmd, out, opts.format, g); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if opts.output != "" {
		status := cmd.ErrOrStderr()
		printSuccess(status, "Wrote %s graph", opts.format)
		printStats(status, len(g.Projects), len(g.Edges), 0)
		printFile(status, opts.output)
	}
	return nil
}

func (c *CLI) writeGraph(cmd *cobra.Command, w io.Writer, format string, g *graph.Graph) error {
	switch format {
	case formatDOT:
		_, err := io.WriteString(w, graph.ToDOT(g))
		return err
	case formatSVG:
		prog := newProgress(loggerFromContext(cmd.Context()))
		svg, err := graph.RenderSVG(cmd.Context(), graph.ToDOT(g))
		if err != nil {
			return err
		}
		prog.done("Rendered graph")
		_, err = w.Write(svg)
		return err
	default:
		return writeData(w, format, g)
	}
}

// writeProjectList prints the build order or the affected projects of g,
// one per line, or as a JSON or YAML list when --format is given.
func writeProjectList(cmd *cobra.Command, opts graphOpts, g *graph.Graph) error {
	var names []string
	if opts.order {
		order, err := g.BuildOrder()
		if err != nil {
			return fmt.Errorf("build order: %w", err)
		}
		names = order
	} else {
		if !slices.Contains(g.Projects, opts.affected) {
			return fmt.Errorf("unknown project: %s", opts.affected)
		}
		names = g.Affected(opts.affected)
	}

	out, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()
	switch {
	case cmd.Flags().Changed("format") && (opts.format == formatJSON || opts.format == formatYAML):
		if names == nil {
			names = []string{}
		}
		return writeData(out, opts.format, names)
	default:
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}
}

func filterProjects(names []string, reg graph.Registry) []string {
	var out []string
	for _, n := range names {
		if reg.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
