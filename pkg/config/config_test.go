package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/plugins"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	o := Default()
	if !o.Discovery || o.Concurrency != 6 || o.BatchSize != 100 || o.DiscoveryTimeout != 15*time.Second {
		t.Errorf("Default() = %+v", o)
	}
	if o.Targets.Compile != "compile" || o.Targets.Run != "run" || o.Maven != "mvn" {
		t.Errorf("Default() targets = %+v maven = %q", o.Targets, o.Maven)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	o, err := Load(t.TempDir(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.BatchSize != DefaultBatchSize || !o.Discovery {
		t.Errorf("Load() = %+v", o)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pomgraph.yaml", `
targets:
  compile: build
  install: mvn-install
maven: ./mvnw
discovery: false
batch-size: 25
discovery-timeout: 30s
include-test: true
exclude:
  - legacy/
`)
	o, err := Load(dir, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Targets.Compile != "build" || o.Targets.Install != "mvn-install" || o.Targets.Test != "test" {
		t.Errorf("targets = %+v", o.Targets)
	}
	if o.Maven != "./mvnw" || o.Discovery || o.BatchSize != 25 || !o.IncludeTest {
		t.Errorf("options = %+v", o)
	}
	if o.DiscoveryTimeout != 30*time.Second {
		t.Errorf("timeout = %s", o.DiscoveryTimeout)
	}
	if len(o.Exclude) != 1 || o.Exclude[0] != "legacy/" {
		t.Errorf("exclude = %v", o.Exclude)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "/does/not/exist.yaml", nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pomgraph.toml", "batch-size = 10\nconcurrency = 2\n")
	t.Setenv("POMGRAPH_BATCH_SIZE", "40")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 6, "")
	flags.Bool("include-test", false, "")
	if err := flags.Parse([]string{"--concurrency=3"}); err != nil {
		t.Fatal(err)
	}

	o, err := Load(dir, "", flags)
	if err != nil {
		t.Fatal(err)
	}
	if o.BatchSize != 40 {
		t.Errorf("env override: batch-size = %d, want 40", o.BatchSize)
	}
	if o.Concurrency != 3 {
		t.Errorf("flag override: concurrency = %d, want 3", o.Concurrency)
	}
	if o.IncludeTest {
		t.Error("unset flag overrode the default")
	}
}

func TestLoadInvalidTargetName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pomgraph.yaml", "targets:\n  compile: \"bad name\"\n")
	_, err := Load(dir, "", nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestHash(t *testing.T) {
	a := Default()
	b := Default()
	b.CacheDir = "/elsewhere"
	if a.Hash() != b.Hash() {
		t.Error("cache dir changed the options hash")
	}
	b.IncludeTest = true
	if a.Hash() == b.Hash() {
		t.Error("IncludeTest did not change the options hash")
	}
}

func TestLoadPluginTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plugins.toml", `
[[plugin]]
coordinate = "org.example:gen-maven-plugin"

[[plugin.goal]]
name = "generate"
description = "Generate sources"
category = "build"

[[plugin.goal]]
name = "serve"
category = "dev"
`)
	descs, err := LoadPluginTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(descs) != 1 || descs[0].Key() != "org.example:gen-maven-plugin" || len(descs[0].Goals) != 2 {
		t.Fatalf("descs = %+v", descs)
	}
	if descs[0].Goals[1].Category != plugins.CategoryDev {
		t.Errorf("goal = %+v", descs[0].Goals[1])
	}

	o := Default()
	o.PluginTable = path
	table, err := o.Table()
	if err != nil {
		t.Fatal(err)
	}
	if !table.Has("org.example:gen-maven-plugin") || !table.Has("io.quarkus:quarkus-maven-plugin") {
		t.Errorf("table keys = %v", table.Keys())
	}
}

func TestLoadPluginTableErrors(t *testing.T) {
	tests := map[string]string{
		"bad coordinate": "[[plugin]]\ncoordinate = \"nope\"\n",
		"bad category":   "[[plugin]]\ncoordinate = \"g:a\"\n[[plugin.goal]]\nname = \"x1\"\ncategory = \"deploy\"\n",
		"unknown key":    "[[plugin]]\ncoordinate = \"g:a\"\ncolour = \"red\"\n",
		"syntax":         "[[plugin\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.toml", content)
			_, err := LoadPluginTable(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(filepath.ToSlash(dir), "/tmp/xdg/pomgraph") {
		t.Errorf("DefaultCacheDir() = %s", dir)
	}
}
