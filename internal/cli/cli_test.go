package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pomgraph/pkg/graph"
	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/pom"
	"github.com/matzehuels/pomgraph/pkg/workspace"
)

var fixture = map[string]string{
	"pom.xml": `<project>
  <groupId>com.acme</groupId>
  <artifactId>root</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <properties>
    <guava.version>33.0</guava.version>
  </properties>
  <modules>
    <module>core</module>
    <module>app</module>
  </modules>
</project>`,
	"core/pom.xml": `<project>
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>root</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>core</artifactId>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
  </dependencies>
</project>`,
	"app/pom.xml": `<project>
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>root</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>app</artifactId>
  <dependencies>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>core</artifactId>
      <version>${project.version}</version>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <groupId>org.example</groupId>
        <artifactId>gen-maven-plugin</artifactId>
      </plugin>
    </plugins>
  </build>
</project>`,
	"core/src/test/java/CoreTest.java": "class CoreTest {}",
}

func writeFixture(t *testing.T, extra map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, files := range []map[string]string{fixture, extra} {
		for rel, content := range files {
			path := filepath.Join(root, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr, logs bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	root := writeFixture(t, nil)
	stdout, _, err := run(t, "analyze", root, "--discovery=false", "--cache-dir", t.TempDir())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var res workspace.NodesResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	for _, r := range []string{".", "core", "app"} {
		if _, ok := res.Projects[r]; !ok {
			t.Errorf("missing project %q", r)
		}
	}
	if got := res.Projects["core"].Name; got != "com.acme.core" {
		t.Errorf("core name = %q", got)
	}
	if _, ok := res.Projects["core"].Targets["test"]; !ok {
		t.Error("core should have a test target")
	}
	if _, ok := res.Projects["app"].Targets["test"]; ok {
		t.Error("app has no test sources and should have no test target")
	}
	if res.Report.Input != 3 || res.Report.Parsed != 3 {
		t.Errorf("report = %+v", res.Report)
	}
}

func TestAnalyzeToFile(t *testing.T) {
	root := writeFixture(t, nil)
	out := filepath.Join(t.TempDir(), "projects.yaml")

	stdout, stderr, err := run(t, "analyze", root, "--discovery=false", "--no-cache", "-f", "yaml", "-o", out)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", stdout)
	}
	if !strings.Contains(stderr, "Analyzed 3 projects") {
		t.Errorf("stderr = %q", stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Projects map[string]struct {
			Name        string `yaml:"name"`
			ProjectType string `yaml:"projectType"`
		} `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if doc.Projects["app"].Name != "com.acme.app" {
		t.Errorf("app = %+v", doc.Projects["app"])
	}
}

func TestAnalyzeStrict(t *testing.T) {
	// A broken root POM makes every candidate POM an input.
	root := writeFixture(t, map[string]string{"pom.xml": "<project><artifactId>root"})

	if _, _, err := run(t, "analyze", root, "--discovery=false", "--no-cache"); err != nil {
		t.Fatalf("non-strict analyze should succeed, got %v", err)
	}
	_, stderr, err := run(t, "analyze", root, "--discovery=false", "--no-cache", "--strict")
	if err == nil {
		t.Fatal("strict analyze should fail on a broken POM")
	}
	if !strings.Contains(stderr, "could not be parsed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestGraphCommand(t *testing.T) {
	root := writeFixture(t, nil)
	app, core := "com.acme.app", "com.acme.core"

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "json",
			args: nil,
			check: func(t *testing.T, out string) {
				var g graph.Graph
				if err := json.Unmarshal([]byte(out), &g); err != nil {
					t.Fatal(err)
				}
				var static bool
				for _, e := range g.Edges {
					if e.Source == app && e.Target == core && e.Type == graph.EdgeStatic {
						static = true
					}
				}
				if !static {
					t.Errorf("missing static edge app -> core in %+v", g.Edges)
				}
				if len(g.Projects) != 3 {
					t.Errorf("projects = %v", g.Projects)
				}
			},
		},
		{
			name: "dot",
			args: []string{"-f", "dot"},
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "digraph workspace {") {
					t.Errorf("not a DOT graph: %q", out)
				}
				if !strings.Contains(out, `"com.acme.app" -> "com.acme.core";`) {
					t.Errorf("missing static edge in %q", out)
				}
			},
		},
		{
			name: "registry filter",
			args: []string{"--project", app, "--project", core},
			check: func(t *testing.T, out string) {
				var g graph.Graph
				if err := json.Unmarshal([]byte(out), &g); err != nil {
					t.Fatal(err)
				}
				for _, e := range g.Edges {
					if e.Source == "com.acme.root" || e.Target == "com.acme.root" {
						t.Errorf("edge %+v should be dropped", e)
					}
				}
				if len(g.Projects) != 2 {
					t.Errorf("projects = %v", g.Projects)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"graph", root, "--no-cache"}, tt.args...)
			stdout, _, err := run(t, args...)
			if err != nil {
				t.Fatalf("graph: %v", err)
			}
			tt.check(t, stdout)
		})
	}
}

func TestGraphOrderAndAffected(t *testing.T) {
	root := writeFixture(t, nil)

	stdout, _, err := run(t, "graph", root, "--order")
	if err != nil {
		t.Fatal(err)
	}
	order := strings.Fields(stdout)
	if len(order) != 3 || slices.Index(order, "com.acme.core") > slices.Index(order, "com.acme.app") {
		t.Errorf("build order = %v", order)
	}

	stdout, _, err = run(t, "graph", root, "--affected", "com.acme.core", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var affected []string
	if err := json.Unmarshal([]byte(stdout), &affected); err != nil {
		t.Fatal(err)
	}
	if len(affected) != 2 || affected[0] != "com.acme.app" || affected[1] != "com.acme.root" {
		t.Errorf("affected = %v", affected)
	}

	if _, _, err := run(t, "graph", root, "--affected", "com.acme.nope"); err == nil {
		t.Error("expected an error for an unknown project")
	}
}

func TestGraphUnsupportedFormat(t *testing.T) {
	root := writeFixture(t, nil)
	if _, _, err := run(t, "graph", root, "-f", "png"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestModulesCommand(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"tools/pom.xml": `<project><groupId>com.acme</groupId><artifactId>tools</artifactId></project>`,
	})

	stdout, _, err := run(t, "modules", root)
	if err != nil {
		t.Fatal(err)
	}
	want := "pom.xml\ncore/pom.xml\napp/pom.xml\n"
	if stdout != want {
		t.Errorf("modules = %q, want %q", stdout, want)
	}

	stdout, _, err = run(t, "modules", root, "--orphans", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var orphans []string
	if err := json.Unmarshal([]byte(stdout), &orphans); err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0] != "tools/pom.xml" {
		t.Errorf("orphans = %v", orphans)
	}
}

func TestResolveCommand(t *testing.T) {
	root := writeFixture(t, nil)
	path := filepath.Join(root, "core", "pom.xml")

	stdout, _, err := run(t, "resolve", path, "--root", root, "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var p pom.Project
	if err := json.Unmarshal([]byte(stdout), &p); err != nil {
		t.Fatal(err)
	}
	if !p.Effective || p.GroupID != "com.acme" || p.Version != "1.0" {
		t.Errorf("effective model = %+v", p)
	}
	if len(p.Dependencies) != 1 || p.Dependencies[0].Version != "33.0" {
		t.Errorf("dependencies = %+v", p.Dependencies)
	}

	stdout, _, err = run(t, "resolve", path, "--root", root, "--raw", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	p = pom.Project{}
	if err := json.Unmarshal([]byte(stdout), &p); err != nil {
		t.Fatal(err)
	}
	if p.Effective || p.GroupID != "" || p.Dependencies[0].Version != "${guava.version}" {
		t.Errorf("raw model = %+v", p)
	}
}

func TestDescribePluginKnown(t *testing.T) {
	stdout, _, err := run(t, "describe-plugin", "org.springframework.boot:spring-boot-maven-plugin", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var d plugins.Descriptor
	if err := json.Unmarshal([]byte(stdout), &d); err != nil {
		t.Fatal(err)
	}
	if d.Source != plugins.SourceKnown || len(d.Goals) == 0 {
		t.Errorf("descriptor = %+v", d)
	}

	stdout, _, err = run(t, "describe-plugin", "org.springframework.boot:spring-boot-maven-plugin")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "spring-boot-build-image") {
		t.Errorf("text output lacks target names: %q", stdout)
	}
}

func TestDescribePluginInvalidCoordinate(t *testing.T) {
	if _, _, err := run(t, "describe-plugin", "not-a-coordinate"); err == nil {
		t.Fatal("expected an error for an invalid coordinate")
	}
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := run(t, "cache", "path", "--cache-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout) != dir {
		t.Errorf("cache path = %q, want %q", stdout, dir)
	}

	root := writeFixture(t, nil)
	if _, _, err := run(t, "analyze", root, "--discovery=false", "--cache-dir", dir); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "maven-*.json"))
	if len(matches) != 1 {
		t.Fatalf("targets caches after analyze = %v", matches)
	}

	_, stderr, err := run(t, "cache", "clear", "--cache-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Cleared 1 targets caches") {
		t.Errorf("stderr = %q", stderr)
	}
	matches, _ = filepath.Glob(filepath.Join(dir, "maven-*.json"))
	if len(matches) != 0 {
		t.Errorf("targets caches after clear = %v", matches)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := run(t, "completion", shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(stdout, "pomgraph") {
				t.Errorf("%s completion does not mention pomgraph", shell)
			}
		})
	}
}
