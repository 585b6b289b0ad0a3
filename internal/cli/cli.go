package cli

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/buildinfo"
	"github.com/matzehuels/pomgraph/pkg/config"
	"github.com/matzehuels/pomgraph/pkg/workspace"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pomgraph",
		Short: "pomgraph builds the project graph of a Maven workspace",
		Long: `pomgraph resolves every pom.xml of a Maven reactor, builds the project
dependency graph and synthesizes build targets for a task orchestrator.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVarP(&c.configFile, "config", "c", "", "config file (default: pomgraph.yaml in the workspace root)")
	pf.Bool("no-cache", false, "disable the targets and plugin caches")
	pf.String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/pomgraph)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.modulesCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.describePluginCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// addAnalysisFlags registers the flags that map onto config.Options keys.
// Only flags set on the command line override the config file.
func addAnalysisFlags(cmd *cobra.Command) {
	def := config.Default()
	f := cmd.Flags()
	f.Bool("include-test", false, "add edges for test-scoped dependencies")
	f.Bool("always-test", false, "emit a test target even without test sources")
	f.Bool("discovery", def.Discovery, "discover goals of unknown plugins with mvn help:describe")
	f.String("discovery-command", "", "maven command used for discovery (default: mvnd if available, else mvn)")
	f.Int("concurrency", def.Concurrency, "maximum concurrent discovery processes")
	f.Duration("discovery-timeout", def.DiscoveryTimeout, "timeout of one discovery process")
	f.Int("batch-size", def.BatchSize, "number of poms parsed concurrently")
	f.String("maven", def.Maven, "maven executable written into target commands")
	f.StringSlice("exclude", nil, "extra gitignore-style exclude patterns")
	f.String("plugin-table", "", "TOML file extending the known plugin table")
}

// workspaceRoot returns the absolute root named by args, or the working
// directory.
func workspaceRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	return filepath.Abs(root)
}

// loadOptions reads the config of the workspace at root, with command
// flags applied on top.
func (c *CLI) loadOptions(cmd *cobra.Command, root string) (config.Options, error) {
	return config.Load(root, c.configFile, cmd.Flags())
}

// newAnalyzer creates an analyzer for root. The caller must Close it.
func (c *CLI) newAnalyzer(cmd *cobra.Command, root string) (*workspace.Analyzer, config.Options, error) {
	opts, err := c.loadOptions(cmd, root)
	if err != nil {
		return nil, opts, err
	}
	a, err := workspace.New(root, opts, workspace.WithLogger(loggerFromContext(cmd.Context())))
	if err != nil {
		return nil, opts, err
	}
	return a, opts, nil
}
