package targets

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

// Target is one orchestrator task.
type Target struct {
	Command   string   `json:"command" yaml:"command"`
	Cwd       string   `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	Cache     bool     `json:"cache" yaml:"cache"`
	Inputs    []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Metadata  Metadata `json:"metadata" yaml:"metadata"`
}

// Metadata describes a target for display.
type Metadata struct {
	Technologies []string `json:"technologies" yaml:"technologies"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Phase        string   `json:"phase,omitempty" yaml:"phase,omitempty"`
	Plugin       string   `json:"plugin,omitempty" yaml:"plugin,omitempty"`
}

// Targets maps target names to targets.
type Targets map[string]Target

// Groups maps a group (build, test, dev, quality) to its target names.
type Groups map[string][]string

func newGroups() Groups {
	return Groups{
		string(plugins.CategoryBuild):   {},
		string(plugins.CategoryTest):    {},
		string(plugins.CategoryDev):     {},
		string(plugins.CategoryQuality): {},
	}
}

func (g Groups) add(group, name string) {
	if !slices.Contains(g[group], name) {
		g[group] = append(g[group], name)
	}
}

// Names are the target names used for the lifecycle phases.
type Names struct {
	Compile string `json:"compile" yaml:"compile" mapstructure:"compile"`
	Test    string `json:"test" yaml:"test" mapstructure:"test"`
	Package string `json:"package" yaml:"package" mapstructure:"package"`
	Verify  string `json:"verify" yaml:"verify" mapstructure:"verify"`
	Install string `json:"install" yaml:"install" mapstructure:"install"`
	// Run replaces the bare "run" goal name of plugins such as spring-boot.
	Run string `json:"run" yaml:"run" mapstructure:"run"`
}

// WithDefaults names every unset target after its phase.
func (n Names) WithDefaults() Names {
	set := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	set(&n.Compile, "compile")
	set(&n.Test, "test")
	set(&n.Package, "package")
	set(&n.Verify, "verify")
	set(&n.Install, "install")
	set(&n.Run, "run")
	return n
}

// Project types.
const (
	TypeApplication = "application"
	TypeLibrary     = "library"
)

// devGoals run a process or mutate external state, so they are never
// cached and declare no outputs.
var devGoals = map[string]bool{
	"run": true, "dev": true, "start": true, "stop": true, "migrate": true, "update": true,
}

// Synthesizer turns a resolved project into orchestrator targets.
type Synthesizer struct {
	Names Names
	// Maven is the executable written into target commands.
	Maven string
	// AlwaysTest emits the test target even without test files.
	AlwaysTest bool
	// Table lists the plugins with fixed goal metadata.
	Table  *plugins.Table
	Logger *log.Logger
}

func (s *Synthesizer) defaults() (Names, string, *plugins.Table, *log.Logger) {
	mvn := s.Maven
	if mvn == "" {
		mvn = plugins.DefaultCommand
	}
	table := s.Table
	if table == nil {
		table = plugins.DefaultTable()
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	return s.Names.WithDefaults(), mvn, table, logger
}

// Synthesize emits the lifecycle targets of project, plus one target per
// goal of every attached plugin that is known or was discovered. root is
// the project directory used as the command cwd. discovered is keyed by
// "groupId:artifactId".
func (s *Synthesizer) Synthesize(project *pom.Project, root string, testFiles []string, discovered map[string]*plugins.Descriptor) (Targets, Groups) {
	names, mvn, table, logger := s.defaults()
	targets := make(Targets)
	groups := newGroups()
	hasTests := len(testFiles) > 0 || s.AlwaysTest

	inputs := projectInputs()
	packaging := project.PackagingOrDefault()

	type phase struct {
		name, phase, group string
		outputs            []string
		dependsOn          []string
		skip               bool
	}
	packageDep := names.Test
	if !hasTests {
		packageDep = names.Compile
	}
	phases := []phase{
		{names.Compile, "compile", "build", []string{"{projectRoot}/target/classes"}, []string{"^" + names.Install}, false},
		{names.Test, "test", "test", []string{"{projectRoot}/target/test-results", "{projectRoot}/target/surefire-reports"}, []string{names.Compile}, !hasTests},
		{names.Package, "package", "build", []string{"{projectRoot}/target/*." + packaging}, []string{packageDep}, false},
		{names.Verify, "verify", "quality", nil, []string{names.Package}, false},
		{names.Install, "install", "build", nil, []string{names.Verify}, false},
	}
	for _, ph := range phases {
		if ph.skip {
			continue
		}
		targets[ph.name] = Target{
			Command:   mvn + " " + ph.phase,
			Cwd:       root,
			Cache:     true,
			Inputs:    inputs,
			Outputs:   ph.outputs,
			DependsOn: ph.dependsOn,
			Metadata: Metadata{
				Technologies: []string{"maven"},
				Description:  "Run Maven " + ph.phase + " phase",
				Phase:        ph.phase,
			},
		}
		groups.add(ph.group, ph.name)
	}

	seen := make(map[string]bool)
	for _, pl := range project.Plugins {
		key := pl.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		if d, ok := table.Lookup(key); ok {
			for _, g := range d.Goals {
				name := targetName(pl.ArtifactID, g.Name, names)
				targets[name] = knownTarget(mvn, key, pl.ArtifactID, g, root)
				groups.add(string(g.CategoryOrDefault()), name)
			}
			continue
		}

		d, ok := discovered[key]
		if !ok || d == nil {
			continue
		}
		for _, g := range d.Goals {
			name := targetName(pl.ArtifactID, g.Name, names)
			desc := g.Description
			if desc == "" {
				desc = "Run " + g.Name + " goal"
			}
			targets[name] = Target{
				Command: mvn + " " + key + ":" + g.Name,
				Cwd:     root,
				Cache:   true,
				Inputs:  []string{"{projectRoot}/src/**/*", "{projectRoot}/pom.xml"},
				Metadata: Metadata{
					Technologies: []string{"maven"},
					Description:  desc,
					Plugin:       key,
				},
			}
			groups.add(string(plugins.CategoryBuild), name)
		}
	}

	logger.Debug("synthesized targets", "project", project.Coordinate().ProjectName(), "targets", len(targets))
	return targets, groups
}

func knownTarget(mvn, key, artifactID string, g plugins.Goal, root string) Target {
	return Target{
		Command: mvn + " " + key + ":" + g.Name,
		Cwd:     root,
		Cache:   !devGoals[g.Name],
		Inputs:  pluginInputs(key),
		Outputs: pluginOutputs(key, g.Name),
		Metadata: Metadata{
			Technologies: []string{"maven", plugins.Technology(artifactID)},
			Description:  g.Description,
			Plugin:       key,
		},
	}
}

func projectInputs() []string {
	return []string{
		"default",
		"^production",
		"{projectRoot}/src/main/**/*",
		"{projectRoot}/src/test/**/*",
		"{projectRoot}/src/main/resources/**/*",
		"{projectRoot}/pom.xml",
	}
}

func pluginInputs(key string) []string {
	inputs := []string{"{projectRoot}/src/**/*", "{projectRoot}/pom.xml"}
	switch {
	case strings.Contains(key, "flyway"):
		inputs = append(inputs, "{projectRoot}/src/main/resources/db/migration/**/*")
	case strings.Contains(key, "liquibase"):
		inputs = append(inputs, "{projectRoot}/src/main/resources/db/changelog/**/*")
	}
	return inputs
}

func pluginOutputs(key, goal string) []string {
	switch {
	case devGoals[goal]:
		return nil
	case strings.Contains(key, "checkstyle"):
		return []string{"{projectRoot}/target/checkstyle-result.xml"}
	case strings.Contains(key, "spotbugs"):
		return []string{"{projectRoot}/target/spotbugsXml.xml"}
	}
	return []string{"{projectRoot}/target/**/*"}
}

// TargetName derives a plugin goal's target name from the plugin artifact
// id: "-maven-plugin" and a "maven-" prefix are dropped and "spring-boot-"
// becomes "boot-". The run and dev goals keep their bare name.
func TargetName(artifactID, goal string) string {
	if goal == "run" || goal == "dev" {
		return goal
	}
	clean := strings.TrimSuffix(artifactID, "-maven-plugin")
	clean = strings.TrimPrefix(clean, "maven-")
	if rest, ok := strings.CutPrefix(clean, "spring-boot-"); ok {
		clean = "boot-" + rest
	}
	return clean + "-" + goal
}

func targetName(artifactID, goal string, names Names) string {
	if goal == "run" {
		return names.Run
	}
	return TargetName(artifactID, goal)
}

// ProjectType classifies a project as an application or a library.
// Aggregators are libraries, war and ear modules are applications, and a
// jar is an application when it depends on an application framework
// starter or on an artifact named like an entry point.
func ProjectType(p *pom.Project) string {
	switch p.PackagingOrDefault() {
	case "pom":
		return TypeLibrary
	case "war", "ear":
		return TypeApplication
	case "jar":
		for _, d := range p.Dependencies {
			switch {
			case d.GroupID == "org.springframework.boot" && d.ArtifactID == "spring-boot-starter",
				d.GroupID == "io.quarkus" && strings.Contains(d.ArtifactID, "quarkus-"),
				strings.Contains(d.ArtifactID, "main"),
				strings.Contains(d.ArtifactID, "app"):
				return TypeApplication
			}
		}
	}
	return TypeLibrary
}
