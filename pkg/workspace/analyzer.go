package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/config"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/graph"
	"github.com/matzehuels/pomgraph/pkg/modules"
	"github.com/matzehuels/pomgraph/pkg/observability"
	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/pom"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/targets"
)

const (
	// PluginTTL bounds how long discovered plugin goals are reused by
	// later runs.
	PluginTTL = 7 * 24 * time.Hour

	// PluginsDir is the subdirectory of the cache directory holding discovered
	// plugin goals.
	PluginsDir = "plugins"
)

// ProjectDescriptor is one orchestrator project.
type ProjectDescriptor struct {
	Name                 string          `json:"name" yaml:"name"`
	Root                 string          `json:"root" yaml:"root"`
	ProjectType          string          `json:"projectType" yaml:"projectType"`
	Targets              targets.Targets `json:"targets" yaml:"targets"`
	ImplicitDependencies []string        `json:"implicitDependencies,omitempty" yaml:"implicitDependencies,omitempty"`
	Metadata             Metadata        `json:"metadata" yaml:"metadata"`
}

// Metadata is the descriptor metadata consumed by the orchestrator.
type Metadata struct {
	TargetGroups targets.Groups `json:"targetGroups" yaml:"targetGroups"`
	Technologies []string       `json:"technologies" yaml:"technologies"`
	Maven        MavenInfo      `json:"maven" yaml:"maven"`
}

// MavenInfo records the project's effective coordinate.
type MavenInfo struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Packaging  string `json:"packaging" yaml:"packaging"`
}

// NodesResult is the outcome of one CreateNodes run.
type NodesResult struct {
	// RunID identifies the run in logs.
	RunID string `json:"runId" yaml:"runId"`
	// Projects maps a project root, relative to the workspace root, to its
	// descriptor. The workspace root itself is ".".
	Projects map[string]ProjectDescriptor `json:"projects" yaml:"projects"`
	Graph    *graph.Graph                 `json:"graph" yaml:"graph"`
	Report   *Report                      `json:"report" yaml:"report"`
	Stats    Stats                        `json:"stats" yaml:"stats"`
}

// Stats contains run statistics.
type Stats struct {
	Projects   int           `json:"projects" yaml:"projects"`
	Edges      int           `json:"edges" yaml:"edges"`
	Plugins    int           `json:"plugins" yaml:"plugins"`
	Discovered int           `json:"discovered" yaml:"discovered"`
	CacheHits  int           `json:"cacheHits" yaml:"cacheHits"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Option configures an [Analyzer].
type Option func(*settings)

type settings struct {
	logger *log.Logger
	runner plugins.Runner
	store  cache.Cache
	lookup resolve.LookupFunc
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithRunner replaces the subprocess runner used for plugin discovery.
func WithRunner(r plugins.Runner) Option {
	return func(s *settings) { s.runner = r }
}

// WithPluginStore replaces the store that keeps discovered plugin goals
// between runs.
func WithPluginStore(c cache.Cache) Option {
	return func(s *settings) { s.store = c }
}

// WithEnv replaces the environment lookup used for ${env.X} properties.
func WithEnv(fn resolve.LookupFunc) Option {
	return func(s *settings) { s.lookup = fn }
}

// Analyzer turns a Maven workspace into orchestrator projects and edges.
//
// An Analyzer owns a [Context] for its whole lifetime, so repeated runs
// reuse parsed POMs and discovered plugins. Call Reset between runs on a
// changed workspace and Close when done.
type Analyzer struct {
	root   string
	opts   config.Options
	wctx   *Context
	table  *plugins.Table
	synth  *targets.Synthesizer
	store  cache.Cache
	logger *log.Logger

	mu    sync.Mutex
	graph *graph.Graph
}

// New returns an analyzer for the workspace at root.
func New(root string, opts config.Options, options ...Option) (*Analyzer, error) {
	var s settings
	for _, o := range options {
		o(&s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", root)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "workspace root %s is not a directory", abs)
	}
	abs = modules.Canonical(abs)

	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	table, err := opts.Table()
	if err != nil {
		return nil, err
	}

	pool := plugins.NewPool(plugins.Options{
		Concurrency: opts.Concurrency,
		Timeout:     opts.DiscoveryTimeout,
		Command:     opts.DiscoveryCommand,
		Table:       table,
		Runner:      s.runner,
		Logger:      s.logger,
	})
	resolveOpts := []resolve.Option{resolve.WithLogger(s.logger)}
	if s.lookup != nil {
		resolveOpts = append(resolveOpts, resolve.WithLookup(s.lookup))
	}

	a := &Analyzer{
		root:  abs,
		opts:  opts,
		wctx:  NewContext(pool, resolveOpts...),
		table: table,
		synth: &targets.Synthesizer{
			Names:      opts.Targets,
			Maven:      opts.Maven,
			AlwaysTest: opts.AlwaysTest,
			Table:      table,
			Logger:     s.logger,
		},
		store:  s.store,
		logger: s.logger,
	}
	if a.store == nil {
		a.store = a.defaultStore()
	}
	return a, nil
}

func (a *Analyzer) defaultStore() cache.Cache {
	if a.opts.NoCache {
		return cache.NewNullCache()
	}
	dir, err := a.opts.ResolvedCacheDir()
	if err != nil {
		a.logger.Warn("no cache directory, plugin goals will not be kept", "err", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(filepath.Join(dir, PluginsDir))
	if err != nil {
		a.logger.Warn("plugin cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// Root returns the absolute workspace root.
func (a *Analyzer) Root() string { return a.root }

// Context returns the analyzer's caches.
func (a *Analyzer) Context() *Context { return a.wctx }

// Graph returns the graph of the last run, or nil.
func (a *Analyzer) Graph() *graph.Graph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// Reset drops every cached model and the last graph.
func (a *Analyzer) Reset() {
	a.wctx.Reset()
	a.mu.Lock()
	a.graph = nil
	a.mu.Unlock()
}

// Close stops plugin discovery and releases the plugin store.
func (a *Analyzer) Close() error {
	err := a.wctx.Close()
	if cerr := a.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// CreateNodes analyzes the workspace and returns one descriptor per
// project.
//
// files are candidate paths, typically a glob of pom.xml and test sources.
// The project set is the module graph reachable from the root POM; the
// candidate POMs are used only when the root POM is missing. Per-file
// failures are counted in the report and never abort the run. Only a
// cancelled ctx or a closed analyzer returns an error.
func (a *Analyzer) CreateNodes(ctx context.Context, files []string) (*NodesResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With("run", runID[:8])

	result, err := a.createNodes(ctx, files, runID, logger)
	var projects, edges int
	if result != nil {
		result.Stats.Duration = time.Since(start)
		projects, edges = result.Stats.Projects, result.Stats.Edges
		logger.Info("analyzed workspace",
			"projects", projects,
			"edges", edges,
			"failed", result.Report.Failed,
			"duration", result.Stats.Duration)
	}
	observability.Analysis().OnAnalysisComplete(ctx, runID, projects, edges, time.Since(start), err)
	return result, err
}

func (a *Analyzer) createNodes(ctx context.Context, files []string, runID string, logger *log.Logger) (*NodesResult, error) {
	ex := modules.NewExcluder(a.opts.Exclude...)
	poms, tests := modules.SplitConfigFiles(a.root, a.absolute(files), ex)
	logger.Debug("split candidate files", "poms", len(poms), "tests", len(tests))

	paths, err := a.projectPaths(ctx, poms, logger)
	if err != nil {
		return nil, err
	}
	report := &Report{Input: len(paths)}
	projects, err := a.load(ctx, paths, report, logger)
	if err != nil {
		return nil, err
	}

	g := a.buildGraph(projects, logger)

	discovered, err := a.discoverPlugins(ctx, projects, logger)
	if err != nil {
		return nil, err
	}

	roots := make([]string, len(projects))
	for i, p := range projects {
		roots[i] = filepath.Dir(p.Path)
	}
	testsByRoot := modules.TestFilesByRoot(tests, roots)
	implicit := implicitDependencies(g)

	tc := a.openTargets(logger)
	keep := make(map[string]bool, len(projects))
	result := &NodesResult{
		RunID:    runID,
		Projects: make(map[string]ProjectDescriptor, len(projects)),
		Graph:    g,
		Report:   report,
	}
	for _, p := range projects {
		dir := filepath.Dir(p.Path)
		rel := relRoot(a.root, dir)
		if p.Coordinate().IsZero() {
			logger.Warn("skipping project without coordinate", "root", rel)
			continue
		}
		testFiles := a.relativeTests(testsByRoot[dir])

		desc, hit := a.describe(p, rel, testFiles, discovered, tc, keep, logger)
		desc.ImplicitDependencies = implicit[desc.Name]
		result.Projects[rel] = desc
		if hit {
			result.Stats.CacheHits++
		}
	}
	if tc != nil {
		tc.Retain(keep)
		if err := tc.Save(ctx); err != nil {
			logger.Warn("failed to save targets cache", "path", tc.Path(), "err", err)
		}
	}

	result.Stats.Projects = len(result.Projects)
	result.Stats.Edges = len(g.Edges)
	result.Stats.Discovered = len(discovered)
	result.Stats.Plugins = countPlugins(projects)
	return result, nil
}

// CreateDependencies returns the workspace edges whose source and target
// are both known to reg. A nil reg accepts every workspace project.
//
// The graph of the last CreateNodes run is reused; without one the
// workspace is parsed and resolved first, skipping target synthesis.
func (a *Analyzer) CreateDependencies(ctx context.Context, reg graph.Registry) ([]graph.Edge, error) {
	g := a.Graph()
	if g == nil {
		paths, err := a.projectPaths(ctx, nil, a.logger)
		if err != nil {
			return nil, err
		}
		projects, err := a.load(ctx, paths, &Report{Input: len(paths)}, a.logger)
		if err != nil {
			return nil, err
		}
		g = a.buildGraph(projects, a.logger)
	}
	if reg == nil {
		reg = graph.NewNameSet(g.Projects...)
	}
	kept, dropped := graph.Validate(g.Edges, reg, a.logger)
	a.logger.Debug("created dependencies", "edges", len(kept), "dropped", len(dropped))
	return kept, nil
}

// projectPaths returns the POMs of the reactor rooted at the workspace
// root, or the candidate poms when the root has no usable POM.
func (a *Analyzer) projectPaths(ctx context.Context, poms []string, logger *log.Logger) ([]string, error) {
	found, err := modules.Discover(ctx, a.root, a.wctx.Parser, logger)
	if err == nil {
		logger.Debug("discovered modules", "modules", len(found), "candidates", len(poms))
		return found, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logger.Warn("module discovery failed, using candidate poms", "err", err, "candidates", len(poms))
	return poms, nil
}

// load parses every path, indexes the raw models for parent lookup and
// then resolves the effective models. Both passes run in batches.
func (a *Analyzer) load(ctx context.Context, paths []string, report *Report, logger *log.Logger) ([]*pom.Project, error) {
	raws := make([]*pom.Project, len(paths))
	err := a.inBatches(ctx, paths, report, func(ctx context.Context, i int, path string) error {
		p, err := a.wctx.Parser.Parse(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.fail(err)
			logger.Warn("skipping pom", "path", relRoot(a.root, path), "err", errors.UserMessage(err))
			return nil
		}
		raws[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.wctx.SetIndex(graph.NewIndex(compact(raws)))

	effective := make([]*pom.Project, len(paths))
	err = a.inBatches(ctx, paths, report, func(ctx context.Context, i int, path string) error {
		if raws[i] == nil {
			return nil
		}
		p, err := a.wctx.Resolver.ResolveOrRaw(ctx, path)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == nil {
			report.fail(err)
			logger.Warn("skipping pom", "path", relRoot(a.root, path), "err", errors.UserMessage(err))
			return nil
		}
		if err != nil {
			report.fallback(err)
			logger.Warn("using raw model", "path", relRoot(a.root, path), "err", errors.UserMessage(err))
		}
		report.parsed()
		effective[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return compact(effective), nil
}

// inBatches runs fn for every path, BatchSize at a time. Every call in a
// batch runs concurrently and the next batch starts when all have returned.
func (a *Analyzer) inBatches(ctx context.Context, paths []string, report *Report, fn func(ctx context.Context, i int, path string) error) error {
	size := a.opts.BatchSize
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		began := time.Now()
		before := report.failures()

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error { return fn(gctx, i, paths[i]) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
		observability.Analysis().OnBatchComplete(ctx, start/size, end-start, report.failures()-before, time.Since(began))
	}
	return nil
}

func (a *Analyzer) buildGraph(projects []*pom.Project, logger *log.Logger) *graph.Graph {
	b := graph.Builder{Logger: logger}
	g := b.Build(projects, graph.Options{IncludeTest: a.opts.IncludeTest, Root: a.root})
	a.wctx.SetIndex(g.Index)

	for _, cycle := range g.Static().DAG().Cycles() {
		logger.Warn("dependency cycle", "projects", cycle)
	}

	a.mu.Lock()
	a.graph = g
	a.mu.Unlock()
	return g
}

// discoverPlugins returns the goals of every attached plugin that is not
// in the known table or on the skip list, keyed by "groupId:artifactId".
func (a *Analyzer) discoverPlugins(ctx context.Context, projects []*pom.Project, logger *log.Logger) (map[string]*plugins.Descriptor, error) {
	if !a.opts.Discovery {
		return nil, nil
	}
	keys := unknownPlugins(projects, a.table)
	if len(keys) == 0 {
		return nil, nil
	}

	found := make(map[string]*plugins.Descriptor, len(keys))
	var misses []string
	for _, k := range keys {
		if d, ok := a.storedPlugin(ctx, k); ok {
			found[k] = d
			continue
		}
		misses = append(misses, k)
	}
	logger.Info("discovering plugin goals", "plugins", len(keys), "cached", len(keys)-len(misses))

	if len(misses) > 0 {
		got, err := a.wctx.Pool.DiscoverAll(ctx, misses, a.root)
		if err != nil {
			return nil, err
		}
		for k, d := range got {
			found[k] = d
			a.storePlugin(ctx, d)
		}
	}
	return found, nil
}

func (a *Analyzer) storedPlugin(ctx context.Context, key string) (*plugins.Descriptor, bool) {
	data, ok, err := a.store.Get(ctx, cache.PluginKey(key, a.opts.DiscoveryCommand))
	if err != nil || !ok {
		return nil, false
	}
	var d plugins.Descriptor
	if err := json.Unmarshal(data, &d); err != nil || len(d.Goals) == 0 {
		return nil, false
	}
	return &d, true
}

func (a *Analyzer) storePlugin(ctx context.Context, d *plugins.Descriptor) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := a.store.Set(ctx, cache.PluginKey(d.Key(), a.opts.DiscoveryCommand), data, PluginTTL); err != nil {
		a.logger.Debug("failed to store plugin goals", "plugin", d.Key(), "err", err)
	}
}

func (a *Analyzer) openTargets(logger *log.Logger) *cache.TargetsCache {
	if a.opts.NoCache {
		return nil
	}
	dir, err := a.opts.ResolvedCacheDir()
	if err != nil {
		logger.Warn("no cache directory, targets will not be kept", "err", err)
		return nil
	}
	return cache.OpenTargets(dir, a.opts.Hash(), logger)
}

// describe returns the descriptor of p from the targets cache, or
// synthesizes and caches it. The bool reports a cache hit.
func (a *Analyzer) describe(p *pom.Project, root string, testFiles []string, discovered map[string]*plugins.Descriptor, tc *cache.TargetsCache, keep map[string]bool, logger *log.Logger) (ProjectDescriptor, bool) {
	var used []*plugins.Descriptor
	for _, pl := range p.Plugins {
		if d, ok := discovered[pl.Key()]; ok {
			used = append(used, d)
		}
	}
	model, err := json.Marshal(struct {
		Project *pom.Project
		Plugins []*plugins.Descriptor
	}{p, used})
	if err != nil {
		tc = nil
	}
	key := cache.ProjectKey(model, testFiles)
	keep[key] = true

	var desc ProjectDescriptor
	if tc != nil && tc.Get(key, &desc) {
		return desc, true
	}

	tgts, groups := a.synth.Synthesize(p, root, testFiles, discovered)
	coord := p.Coordinate()
	desc = ProjectDescriptor{
		Name:        coord.ProjectName(),
		Root:        root,
		ProjectType: targets.ProjectType(p),
		Targets:     tgts,
		Metadata: Metadata{
			TargetGroups: groups,
			Technologies: []string{"maven"},
			Maven: MavenInfo{
				GroupID:    coord.GroupID,
				ArtifactID: coord.ArtifactID,
				Version:    projectVersion(p),
				Packaging:  p.PackagingOrDefault(),
			},
		},
	}
	if tc != nil {
		if err := tc.Put(key, desc); err != nil {
			logger.Debug("failed to cache targets", "project", desc.Name, "err", err)
		}
	}
	return desc, false
}

func (a *Analyzer) absolute(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		if filepath.IsAbs(f) {
			out[i] = filepath.Clean(f)
		} else {
			out[i] = filepath.Join(a.root, f)
		}
	}
	return out
}

func (a *Analyzer) relativeTests(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = relRoot(a.root, f)
	}
	sort.Strings(out)
	return out
}

func projectVersion(p *pom.Project) string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

func unknownPlugins(projects []*pom.Project, table *plugins.Table) []string {
	seen := make(map[string]bool)
	for _, p := range projects {
		for _, pl := range p.Plugins {
			key := pl.Key()
			if table.Has(key) || plugins.Skipped(key) {
				continue
			}
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countPlugins(projects []*pom.Project) int {
	seen := make(map[string]bool)
	for _, p := range projects {
		for _, pl := range p.Plugins {
			seen[pl.Key()] = true
		}
	}
	return len(seen)
}

// implicitDependencies groups the implicit edge targets by source project.
func implicitDependencies(g *graph.Graph) map[string][]string {
	out := make(map[string][]string)
	for _, e := range g.Edges {
		if e.Type != graph.EdgeImplicit || slices.Contains(out[e.Source], e.Target) {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
	}
	for _, deps := range out {
		sort.Strings(deps)
	}
	return out
}

func compact(projects []*pom.Project) []*pom.Project {
	out := make([]*pom.Project, 0, len(projects))
	for _, p := range projects {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func relRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
