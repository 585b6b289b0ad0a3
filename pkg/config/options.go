package config

import (
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/targets"
)

const (
	appName = "pomgraph"

	DefaultBatchSize = 100
)

// Options configures a workspace analysis.
type Options struct {
	// Targets overrides the lifecycle target names.
	Targets targets.Names `mapstructure:"targets" json:"targets"`
	// Maven is the executable written into target commands.
	Maven string `mapstructure:"maven" json:"maven"`

	// Discovery enables help:describe for plugins outside the known table.
	Discovery bool `mapstructure:"discovery" json:"discovery"`
	// DiscoveryCommand overrides the Maven command used for discovery.
	// Empty means mvnd when available, mvn otherwise.
	DiscoveryCommand string        `mapstructure:"discovery-command" json:"discoveryCommand,omitempty"`
	Concurrency      int           `mapstructure:"concurrency" json:"concurrency"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery-timeout" json:"discoveryTimeout"`

	// BatchSize is the number of POMs parsed concurrently.
	BatchSize int `mapstructure:"batch-size" json:"batchSize"`
	// IncludeTest adds edges for test-scoped dependencies.
	IncludeTest bool `mapstructure:"include-test" json:"includeTest"`
	// AlwaysTest emits a test target even for projects without test files.
	AlwaysTest bool `mapstructure:"always-test" json:"alwaysTest"`
	// Exclude adds gitignore-style patterns to the default exclusions.
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`

	// PluginTable is a TOML file extending the known-plugin table.
	PluginTable string `mapstructure:"plugin-table" json:"pluginTable,omitempty"`

	CacheDir string `mapstructure:"cache-dir" json:"-"`
	NoCache  bool   `mapstructure:"no-cache" json:"-"`
}

// Default returns the default options.
func Default() Options {
	return Options{Discovery: true}.WithDefaults()
}

// WithDefaults fills zero fields with defaults.
func (o Options) WithDefaults() Options {
	o.Targets = o.Targets.WithDefaults()
	if o.Maven == "" {
		o.Maven = plugins.DefaultCommand
	}
	if o.Concurrency <= 0 {
		o.Concurrency = plugins.DefaultConcurrency
	}
	if o.DiscoveryTimeout <= 0 {
		o.DiscoveryTimeout = plugins.DefaultTimeout
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Validate checks the options.
func (o Options) Validate() error {
	for _, name := range []string{o.Targets.Compile, o.Targets.Test, o.Targets.Package, o.Targets.Verify, o.Targets.Install, o.Targets.Run} {
		if err := errors.ValidateTargetName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "target name")
		}
	}
	if o.Concurrency > 64 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency %d exceeds 64", o.Concurrency)
	}
	return nil
}

// Hash identifies the options that affect synthesized targets. It names
// the targets cache file.
func (o Options) Hash() string {
	return cache.HashObject(appName, o.Targets, o.Maven, o.Discovery, o.IncludeTest, o.AlwaysTest, o.Exclude, o.PluginTable)[:16]
}

// ResolvedCacheDir returns CacheDir or the default cache directory.
func (o Options) ResolvedCacheDir() (string, error) {
	if o.CacheDir != "" {
		return homedir.Expand(o.CacheDir)
	}
	return DefaultCacheDir()
}

// DefaultCacheDir returns $XDG_CACHE_HOME/pomgraph or ~/.cache/pomgraph.
func DefaultCacheDir() (string, error) {
	if cacheHome := lookupEnv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
