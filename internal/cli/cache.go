package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/workspace"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the targets and plugin caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheDir returns the cache directory configured for the working directory.
func (c *CLI) cacheDir(cmd *cobra.Command) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	cfg, err := c.loadOptions(cmd, wd)
	if err != nil {
		return "", err
	}
	dir, err := cfg.ResolvedCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached targets and discovered plugin goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir(cmd)
			if err != nil {
				return err
			}
			status := cmd.ErrOrStderr()

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(status, "Cache is empty")
				return nil
			}

			n, err := cache.ClearTargets(dir)
			if err != nil {
				return err
			}
			plugins := countFiles(filepath.Join(dir, workspace.PluginsDir))
			if err := os.RemoveAll(filepath.Join(dir, workspace.PluginsDir)); err != nil {
				return fmt.Errorf("remove plugin cache: %w", err)
			}

			printSuccess(status, "Cleared %d targets caches and %d plugin entries", n, plugins)
			printDetail(status, "Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func countFiles(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
