package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/modules"
	"github.com/matzehuels/pomgraph/pkg/workspace"
)

type analyzeOpts struct {
	output string
	format string
	strict bool
}

// analyzeCommand creates the analyze command, the CreateNodes entry point.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{format: formatJSON}

	cmd := &cobra.Command{
		Use:   "analyze [workspace]",
		Short: "Describe every project of a Maven workspace",
		Long: `Analyze parses and resolves every POM of the workspace, discovers the goals
of unknown plugins and prints one project descriptor per project root,
together with the dependency graph and a run report.`,
		Example: `  # Analyze the current directory
  pomgraph analyze

  # Write YAML to a file, including test-scoped edges
  pomgraph analyze ./service -o projects.yaml --format yaml --include-test`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, yaml")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any POM could not be parsed")
	addAnalysisFlags(cmd)
	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, args []string, opts analyzeOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}
	a, cfg, err := c.newAnalyzer(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := modules.CandidateFiles(a.Root(), modules.NewExcluder(cfg.Exclude...))
	if err != nil {
		return err
	}
	logger.Debug("collected candidate files", "root", a.Root(), "files", len(files))

	status := cmd.ErrOrStderr()
	var spin *Spinner
	if opts.output != "" {
		spin = newSpinner(ctx, status, "Analyzing workspace...")
		spin.Start()
	}
	res, err := a.CreateNodes(ctx, files)
	if spin != nil {
		if err != nil {
			spin.StopWithError("Analysis failed")
		} else {
			spin.Stop()
		}
	}
	if err != nil {
		return err
	}

	out, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeData(out, opts.format, res); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if opts.output != "" {
		printSuccess(status, "Analyzed %d projects", res.Stats.Projects)
		printStats(status, res.Stats.Projects, res.Stats.Edges, res.Stats.CacheHits)
		printFile(status, opts.output)
		printNextStep(status, "Render the project graph", "pomgraph graph -f svg -o graph.svg")
	}
	return checkReport(cmd, res.Report, opts.strict)
}

// checkReport prints the failures of an incomplete run and, when strict,
// turns them into an error.
func checkReport(cmd *cobra.Command, r *workspace.Report, strict bool) error {
	if r.Complete() && r.Fallbacks == 0 {
		return nil
	}
	status := cmd.ErrOrStderr()
	if r.Failed > 0 {
		printWarning(status, "%d of %d POMs could not be parsed", r.Failed, r.Input)
	}
	if r.Fallbacks > 0 {
		printWarning(status, "%d projects were analyzed from their raw model", r.Fallbacks)
	}
	if errs := r.Errors(); errs != nil {
		printDetail(status, "%s", errs)
	}
	if strict && !r.Complete() {
		return errors.New(errors.ErrCodeParse, "analysis incomplete: %d of %d POMs failed", r.Failed, r.Input)
	}
	return nil
}
