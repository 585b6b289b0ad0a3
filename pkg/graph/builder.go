package graph

import (
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/dag"
	"github.com/matzehuels/pomgraph/pkg/modules"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

// EdgeType distinguishes declared dependencies from structural relations.
type EdgeType string

const (
	// EdgeStatic is an explicit <dependency> on a workspace project.
	EdgeStatic EdgeType = "static"
	// EdgeImplicit is a parent-of or module-of relation. It orders the
	// build but is not a classpath dependency.
	EdgeImplicit EdgeType = "implicit"
)

// Edge is a dependency between two workspace projects, named by
// [pom.Coordinate.ProjectName].
type Edge struct {
	Source     string   `json:"source" yaml:"source"`
	Target     string   `json:"target" yaml:"target"`
	Type       EdgeType `json:"type" yaml:"type"`
	SourceFile string   `json:"sourceFile,omitempty" yaml:"sourceFile,omitempty"`
}

// Options configures edge construction.
type Options struct {
	// IncludeTest adds edges for test-scoped dependencies.
	IncludeTest bool
	// Root is the workspace root; SourceFile is made relative to it.
	Root string
}

// Graph is the result of [Build].
type Graph struct {
	Index *Index `json:"-" yaml:"-"`
	Edges []Edge `json:"edges" yaml:"edges"`
	// Projects holds every project name that received a node, sorted.
	Projects []string `json:"projects" yaml:"projects"`
	// Unresolved counts dependencies that pointed at an ambiguous coordinate.
	Unresolved int `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// Builder emits project dependency edges.
type Builder struct {
	Logger *log.Logger
}

// linkedScopes are the scopes that put a project on another's build path.
var linkedScopes = map[string]bool{"compile": true, "runtime": true, "": true}

// Build indexes projects and emits their edges.
//
// Static edges come from dependencies in compile, runtime or no scope
// (plus test with IncludeTest) whose coordinate is a unique workspace
// project. Implicit edges link each project to its workspace parent and
// each aggregator to its modules. External coordinates produce no edge;
// ambiguous ones produce no edge and are logged. Edges are deduplicated
// and self-edges are dropped.
func (b *Builder) Build(projects []*pom.Project, opts Options) *Graph {
	logger := b.Logger
	if logger == nil {
		logger = log.Default()
	}

	idx := NewIndex(projects)
	g := &Graph{Index: idx}
	seen := make(map[Edge]bool)
	names := make(map[string]bool)

	add := func(src, dst string, typ EdgeType, file string) {
		if src == dst {
			return
		}
		e := Edge{Source: src, Target: dst, Type: typ, SourceFile: file}
		if seen[e] {
			return
		}
		seen[e] = true
		g.Edges = append(g.Edges, e)
	}

	for _, a := range idx.Ambiguities() {
		logger.Warn("coordinate declared by several poms", "coordinate", a.Coordinate, "paths", a.Paths)
	}

	for _, p := range projects {
		coord := p.Coordinate()
		if coord.IsZero() {
			continue
		}
		src := coord.ProjectName()
		names[src] = true
		file := relPath(opts.Root, p.Path)

		for _, d := range p.Dependencies {
			if !linkedScopes[d.Scope] && !(opts.IncludeTest && d.Scope == "test") {
				continue
			}
			entry, ok := idx.Lookup(d.Coordinate())
			if !ok {
				continue
			}
			if _, unique := entry.Unique(); !unique {
				g.Unresolved++
				logger.Debug("ambiguous dependency target", "project", src, "dependency", d.Coordinate())
				continue
			}
			add(src, d.Coordinate().ProjectName(), EdgeStatic, file)
		}

		if p.Parent != nil {
			if parent, ok := idx.Project(p.Parent.Coordinate()); ok {
				add(src, parent.Coordinate().ProjectName(), EdgeImplicit, file)
			}
		}

		dir := filepath.Dir(p.Path)
		for _, m := range p.Modules {
			child, ok := idx.ByPath(modules.ModulePOM(dir, m))
			if !ok || child.Coordinate().IsZero() {
				continue
			}
			add(src, child.Coordinate().ProjectName(), EdgeImplicit, file)
		}
	}

	for n := range names {
		g.Projects = append(g.Projects, n)
	}
	sort.Strings(g.Projects)
	return g
}

// DAG converts the graph into a [dag.DAG] with one node per project.
// The edge type is kept in edge metadata under "type".
func (g *Graph) DAG() *dag.DAG {
	d := dag.New()
	for _, name := range g.Projects {
		_ = d.AddNode(dag.Node{ID: name})
	}
	for _, e := range g.Edges {
		if _, err := d.AddEdge(dag.Edge{From: e.Source, To: e.Target, Meta: dag.Metadata{"type": string(e.Type)}}); err != nil {
			continue
		}
	}
	return d
}

// Static returns a copy of g holding only its static edges. Parent and
// module edges point both ways by construction, so only static edges can
// form a real cycle.
func (g *Graph) Static() *Graph {
	out := &Graph{Projects: g.Projects, Index: g.Index}
	for _, e := range g.Edges {
		if e.Type == EdgeStatic {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// BuildOrder returns the project names ordered so that every project comes
// after the projects it declares a dependency on. It fails with
// [dag.ErrGraphHasCycle] when the static edges are cyclic; the partial
// order is still returned.
func (g *Graph) BuildOrder() ([]string, error) {
	return g.Static().DAG().TopologicalOrder()
}

// Affected returns every project that transitively depends on name,
// following static and implicit edges, sorted.
func (g *Graph) Affected(name string) []string {
	return g.DAG().Dependents(name)
}

func relPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
