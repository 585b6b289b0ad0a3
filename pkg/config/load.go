package config

import (
	stderrors "errors"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/plugins"
)

// EnvPrefix prefixes environment overrides, e.g. POMGRAPH_BATCH_SIZE.
const EnvPrefix = "POMGRAPH"

var lookupEnv = os.Getenv

// Load reads options from file, or from pomgraph.{yaml,yml,toml,json} in
// root when file is empty. A missing default config file is not an error.
// Environment variables override the file, and flags that were set on the
// command line override both.
func Load(root, file string, flags *pflag.FlagSet) (Options, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("targets.compile", def.Targets.Compile)
	v.SetDefault("targets.test", def.Targets.Test)
	v.SetDefault("targets.package", def.Targets.Package)
	v.SetDefault("targets.verify", def.Targets.Verify)
	v.SetDefault("targets.install", def.Targets.Install)
	v.SetDefault("targets.run", def.Targets.Run)
	v.SetDefault("maven", def.Maven)
	v.SetDefault("discovery", def.Discovery)
	v.SetDefault("discovery-command", "")
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("discovery-timeout", def.DiscoveryTimeout)
	v.SetDefault("batch-size", def.BatchSize)
	v.SetDefault("include-test", false)
	v.SetDefault("always-test", false)
	v.SetDefault("exclude", []string{})
	v.SetDefault("plugin-table", "")
	v.SetDefault("cache-dir", "")
	v.SetDefault("no-cache", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(appName)
		v.AddConfigPath(root)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !stderrors.As(err, &notFound) {
			return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		}
	}

	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			if isOptionKey(v, f.Name) {
				if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
					bindErr = err
				}
			}
		})
		if bindErr != nil {
			return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, bindErr, "bind flags")
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func isOptionKey(v *viper.Viper, key string) bool {
	return slices.Contains(v.AllKeys(), key)
}

// pluginTableFile is the TOML shape of a plugin table extension:
//
//	[[plugin]]
//	coordinate = "org.example:gen-maven-plugin"
//
//	[[plugin.goal]]
//	name = "generate"
//	description = "Generate sources"
//	category = "build"
type pluginTableFile struct {
	Plugin []struct {
		Coordinate string         `toml:"coordinate"`
		Goal       []plugins.Goal `toml:"goal"`
	} `toml:"plugin"`
}

// LoadPluginTable decodes a plugin table extension file.
func LoadPluginTable(path string) ([]plugins.Descriptor, error) {
	var f pluginTableFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode plugin table %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "plugin table %s: unknown key %s", path, undecoded[0])
	}

	descs := make([]plugins.Descriptor, 0, len(f.Plugin))
	for _, p := range f.Plugin {
		if err := errors.ValidatePluginCoordinate(p.Coordinate); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "plugin table %s", path)
		}
		parts := strings.SplitN(p.Coordinate, ":", 3)
		d := plugins.Descriptor{GroupID: parts[0], ArtifactID: parts[1], Goals: p.Goal, Source: plugins.SourceKnown}
		if len(parts) == 3 {
			d.Version = parts[2]
		}
		for _, g := range d.Goals {
			if err := errors.ValidateMavenID("goal", g.Name); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "plugin %s", p.Coordinate)
			}
			switch g.CategoryOrDefault() {
			case plugins.CategoryBuild, plugins.CategoryTest, plugins.CategoryDev, plugins.CategoryQuality:
			default:
				return nil, errors.New(errors.ErrCodeInvalidConfig, "plugin %s goal %s: unknown category %q", p.Coordinate, g.Name, g.Category)
			}
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Table returns the built-in known-plugin table extended by the file named
// in o.PluginTable, if any.
func (o Options) Table() (*plugins.Table, error) {
	if o.PluginTable == "" {
		return plugins.DefaultTable(), nil
	}
	descs, err := LoadPluginTable(o.PluginTable)
	if err != nil {
		return nil, err
	}
	return plugins.DefaultTable().With(descs...), nil
}
