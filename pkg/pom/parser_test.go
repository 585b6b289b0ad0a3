package pom

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/pomgraph/pkg/errors"
)

func writePOM(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "pom.xml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParser_Parse(t *testing.T) {
	dir := t.TempDir()
	path := writePOM(t, dir, `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0.0</version>
    <relativePath>../parent</relativePath>
  </parent>
  <artifactId>my-app</artifactId>
  <packaging>war</packaging>
  <properties>
    <revision>2.0</revision>
    <spring.version> 6.1.0 </spring.version>
  </properties>
  <modules>
    <module>core</module>
    <module>  </module>
  </modules>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.google.guava</groupId>
        <artifactId>guava</artifactId>
        <version>33.0-jre</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>org.springframework</groupId>
      <artifactId>spring-core</artifactId>
      <version>${spring.version}</version>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <scope>test</scope>
      <optional>true</optional>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <artifactId>maven-checkstyle-plugin</artifactId>
      </plugin>
      <plugin>
        <groupId>org.flywaydb</groupId>
        <artifactId>flyway-maven-plugin</artifactId>
        <version>10.0.0</version>
      </plugin>
    </plugins>
  </build>
</project>`)

	proj, err := NewParser().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if proj.Path != path {
		t.Errorf("Path = %q, want %q", proj.Path, path)
	}
	if proj.ArtifactID != "my-app" || proj.GroupID != "" || proj.Packaging != "war" {
		t.Errorf("identity = %q/%q/%q", proj.GroupID, proj.ArtifactID, proj.Packaging)
	}
	if got := proj.Coordinate().String(); got != "com.example:my-app" {
		t.Errorf("Coordinate() = %q, want inherited groupId", got)
	}
	if proj.Parent == nil || proj.Parent.RelativePath == nil || *proj.Parent.RelativePath != "../parent" {
		t.Errorf("Parent = %+v", proj.Parent)
	}
	if proj.Properties["revision"] != "2.0" || proj.Properties["spring.version"] != "6.1.0" {
		t.Errorf("Properties = %v", proj.Properties)
	}
	if len(proj.Modules) != 1 || proj.Modules[0] != "core" {
		t.Errorf("Modules = %v, want [core]", proj.Modules)
	}
	if len(proj.DependencyManagement) != 1 || proj.DependencyManagement[0].Version != "33.0-jre" {
		t.Errorf("DependencyManagement = %+v", proj.DependencyManagement)
	}
	if len(proj.Dependencies) != 2 {
		t.Fatalf("Dependencies len = %d, want 2", len(proj.Dependencies))
	}
	if d := proj.Dependencies[0]; d.Version != "${spring.version}" || d.Scope != "" {
		t.Errorf("raw dependency should keep placeholders and empty scope: %+v", d)
	}
	if d := proj.Dependencies[1]; d.Scope != "test" || !d.Optional {
		t.Errorf("Dependencies[1] = %+v", d)
	}
	if len(proj.Plugins) != 2 {
		t.Fatalf("Plugins len = %d, want 2", len(proj.Plugins))
	}
	if got := proj.Plugins[0].Key(); got != "org.apache.maven.plugins:maven-checkstyle-plugin" {
		t.Errorf("default plugin group: Key() = %q", got)
	}
	if proj.Effective {
		t.Error("raw model must not be marked effective")
	}
}

func TestParser_RelativePathForms(t *testing.T) {
	tests := []struct {
		name    string
		parent  string
		wantNil bool
		want    string
	}{
		{"absent", `<parent><groupId>g</groupId><artifactId>p</artifactId></parent>`, true, ""},
		{"empty element", `<parent><groupId>g</groupId><artifactId>p</artifactId><relativePath/></parent>`, false, ""},
		{"explicit", `<parent><groupId>g</groupId><artifactId>p</artifactId><relativePath>../../pom.xml</relativePath></parent>`, false, "../../pom.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, err := Decode("pom.xml", []byte("<project>"+tt.parent+"<artifactId>c</artifactId></project>"))
			if err != nil {
				t.Fatal(err)
			}
			rel := proj.Parent.RelativePath
			if tt.wantNil {
				if rel != nil {
					t.Errorf("RelativePath = %q, want nil", *rel)
				}
				return
			}
			if rel == nil || *rel != tt.want {
				t.Errorf("RelativePath = %v, want %q", rel, tt.want)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"malformed", "<project><artifactId>x</project>", errors.ErrCodeParse},
		{"wrong root", "<settings><localRepository/></settings>", errors.ErrCodeParse},
		{"empty", "", errors.ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePOM(t, t.TempDir(), tt.content)
			p := NewParser()
			_, err := p.Parse(context.Background(), path)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Parse() error = %v, want code %s", err, tt.code)
			}
			if p.Len() != 0 {
				t.Errorf("failed parse was cached")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewParser().Parse(context.Background(), filepath.Join(t.TempDir(), "pom.xml"))
		if !errors.Is(err, errors.ErrCodeIO) {
			t.Errorf("Parse() error = %v, want IO_ERROR", err)
		}
	})
}

func TestParser_Memoizes(t *testing.T) {
	dir := t.TempDir()
	path := writePOM(t, dir, "<project><groupId>g</groupId><artifactId>a</artifactId></project>")

	var reads atomic.Int32
	p := NewParser()
	p.reads = func(name string) ([]byte, error) {
		reads.Add(1)
		return os.ReadFile(name)
	}

	var wg sync.WaitGroup
	results := make([]*Project, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			proj, err := p.Parse(context.Background(), path)
			if err != nil {
				t.Error(err)
			}
			results[i] = proj
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Fatalf("result %d is a different pointer", i)
		}
	}
	if n := reads.Load(); n != 1 {
		t.Errorf("file read %d times, want 1", n)
	}

	// Relative and absolute spellings share one entry.
	rel, err := filepath.Rel(mustGetwd(t), path)
	if err == nil {
		again, err := p.Parse(context.Background(), rel)
		if err != nil {
			t.Fatal(err)
		}
		if again != results[0] {
			t.Error("relative path produced a new model")
		}
	}

	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Len() after Reset = %d", p.Len())
	}
	if _, err := p.Parse(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if n := reads.Load(); n != 2 {
		t.Errorf("reads after Reset = %d, want 2", n)
	}
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return wd
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    Coordinate
		version string
		ok      bool
	}{
		{"g:a", Coordinate{"g", "a"}, "", true},
		{"g:a:1.0", Coordinate{"g", "a"}, "1.0", true},
		{"g", Coordinate{}, "", false},
		{":a", Coordinate{}, "", false},
		{"g:a:1:x", Coordinate{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, v, ok := ParseCoordinate(tt.in)
			if got != tt.want || v != tt.version || ok != tt.ok {
				t.Errorf("ParseCoordinate(%q) = %v, %q, %v", tt.in, got, v, ok)
			}
		})
	}
	if got := (Coordinate{"com.acme", "core"}).ProjectName(); got != "com.acme.core" {
		t.Errorf("ProjectName() = %q", got)
	}
}
