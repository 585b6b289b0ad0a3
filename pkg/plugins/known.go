package plugins

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/pomgraph/pkg/pom"
)

// Category groups plugin goals in the project target groups.
type Category string

const (
	CategoryBuild   Category = "build"
	CategoryTest    Category = "test"
	CategoryDev     Category = "dev"
	CategoryQuality Category = "quality"
)

// Source records where a descriptor came from.
type Source string

const (
	SourceKnown      Source = "known"
	SourceDiscovered Source = "discovered"
)

// Goal is one invokable plugin goal.
type Goal struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description"`
	Phase       string   `json:"phase,omitempty" yaml:"phase,omitempty" toml:"phase"`
	Category    Category `json:"category,omitempty" yaml:"category,omitempty" toml:"category"`
}

// CategoryOrDefault returns the goal's category, defaulting to build.
func (g Goal) CategoryOrDefault() Category {
	if g.Category == "" {
		return CategoryBuild
	}
	return g.Category
}

// Descriptor lists the goals of one plugin.
type Descriptor struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Goals      []Goal `json:"goals" yaml:"goals"`
	Source     Source `json:"source" yaml:"source"`
}

// Coordinate returns the plugin coordinate.
func (d *Descriptor) Coordinate() pom.Coordinate {
	return pom.Coordinate{GroupID: d.GroupID, ArtifactID: d.ArtifactID}
}

// Key returns "groupId:artifactId".
func (d *Descriptor) Key() string { return d.Coordinate().String() }

// Table is a read-only set of plugins whose goals are known without
// asking Maven.
type Table struct {
	entries map[string]Descriptor
}

// NewTable returns a table holding descs. Later entries replace earlier
// ones with the same coordinate.
func NewTable(descs ...Descriptor) *Table {
	t := &Table{entries: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		d.Source = SourceKnown
		t.entries[d.Key()] = d
	}
	return t
}

// With returns a copy of t extended by descs.
func (t *Table) With(descs ...Descriptor) *Table {
	out := NewTable()
	maps.Copy(out.entries, t.entries)
	for _, d := range descs {
		d.Source = SourceKnown
		out.entries[d.Key()] = d
	}
	return out
}

// Lookup returns a copy of the descriptor for key ("groupId:artifactId").
func (t *Table) Lookup(key string) (*Descriptor, bool) {
	d, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	d.Goals = slices.Clone(d.Goals)
	return &d, true
}

// Has reports whether key is in the table.
func (t *Table) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Keys returns every coordinate in the table, sorted.
func (t *Table) Keys() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// Len returns the number of plugins in the table.
func (t *Table) Len() int { return len(t.entries) }

func known(group, artifact string, goals ...Goal) Descriptor {
	return Descriptor{GroupID: group, ArtifactID: artifact, Goals: goals, Source: SourceKnown}
}

func goal(name, desc string, cat Category) Goal {
	return Goal{Name: name, Description: desc, Category: cat}
}

var builtin = NewTable(
	known("org.springframework.boot", "spring-boot-maven-plugin",
		goal("run", "Run Spring Boot application", CategoryDev),
		goal("start", "Start Spring Boot application", CategoryDev),
		goal("stop", "Stop Spring Boot application", CategoryDev),
		goal("build-image", "Build OCI image", CategoryBuild),
	),
	known("io.quarkus", "quarkus-maven-plugin",
		goal("dev", "Start Quarkus in development mode", CategoryDev),
		goal("build", "Build Quarkus application", CategoryBuild),
		goal("generate-code", "Generate sources", CategoryBuild),
		goal("generate-code-tests", "Generate test sources", CategoryTest),
	),
	known("org.flywaydb", "flyway-maven-plugin",
		goal("migrate", "Run database migrations", CategoryBuild),
		goal("info", "Show migration info", CategoryQuality),
		goal("validate", "Validate migrations", CategoryQuality),
		goal("clean", "Clean database", CategoryBuild),
	),
	known("org.liquibase", "liquibase-maven-plugin",
		goal("update", "Update database schema", CategoryBuild),
		goal("status", "Show change log status", CategoryQuality),
		goal("validate", "Validate change log", CategoryQuality),
	),
	known("com.diffplug.spotless", "spotless-maven-plugin",
		goal("apply", "Format code with Spotless", CategoryQuality),
		goal("check", "Check code formatting", CategoryQuality),
	),
	known(pom.DefaultPluginGroupID, "maven-checkstyle-plugin",
		goal("check", "Run Checkstyle code analysis", CategoryQuality),
		goal("checkstyle", "Generate Checkstyle report", CategoryQuality),
	),
	known("com.github.spotbugs", "spotbugs-maven-plugin",
		goal("check", "Run SpotBugs static analysis", CategoryQuality),
		goal("spotbugs", "Generate SpotBugs report", CategoryQuality),
	),
)

// DefaultTable returns the built-in known-plugin table.
func DefaultTable() *Table { return builtin }

// Known returns the built-in descriptor for key, if any.
func Known(key string) (*Descriptor, bool) { return builtin.Lookup(key) }

// skipped plugins are common but expose no goals worth a target.
var skipped = map[string]bool{
	"org.apache.maven.plugins:maven-clean-plugin":                true,
	"org.apache.maven.plugins:maven-resources-plugin":            true,
	"org.apache.maven.plugins:maven-jar-plugin":                  true,
	"org.apache.maven.plugins:maven-install-plugin":              true,
	"org.apache.maven.plugins:maven-deploy-plugin":               true,
	"org.apache.maven.plugins:maven-site-plugin":                 true,
	"org.apache.maven.plugins:maven-project-info-reports-plugin": true,
	"org.apache.maven.plugins:maven-dependency-plugin":           true,
	"org.codehaus.mojo:versions-maven-plugin":                    true,
	"org.jacoco:jacoco-maven-plugin":                             true,
	"org.apache.maven.plugins:maven-gpg-plugin":                  true,
	"org.sonatype.plugins:nexus-staging-maven-plugin":            true,
}

// Skipped reports whether key is on the discovery skip list.
func Skipped(key string) bool { return skipped[key] }

// Technology maps a plugin artifact id to the technology tag recorded in
// target metadata.
func Technology(artifactID string) string {
	for _, tech := range []string{"quarkus", "spring-boot", "flyway", "liquibase", "spotless", "checkstyle", "spotbugs"} {
		if strings.Contains(artifactID, tech) {
			return tech
		}
	}
	return artifactID
}
