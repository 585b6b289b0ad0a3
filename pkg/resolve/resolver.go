package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

// LocateFunc finds the pom.xml of a workspace project by coordinate.
// It backs the parent lookup when relativePath does not lead to the parent.
type LocateFunc func(pom.Coordinate) (string, bool)

// Resolver computes effective POM models.
//
// Effective models are memoized by absolute path. Resolving the same path
// twice without a Reset returns the same pointer.
type Resolver struct {
	parser *pom.Parser
	interp Interpolator
	logger *log.Logger
	locate LocateFunc

	cache *xsync.MapOf[string, *pom.Project]
	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithLookup replaces the environment lookup used for env.* and user.*.
func WithLookup(fn LookupFunc) Option {
	return func(r *Resolver) { r.interp.Lookup = fn }
}

// WithLocator enables the workspace search for parents that relativePath
// cannot reach.
func WithLocator(fn LocateFunc) Option {
	return func(r *Resolver) { r.locate = fn }
}

// New returns a resolver that reads raw models through parser.
func New(parser *pom.Parser, opts ...Option) *Resolver {
	r := &Resolver{
		parser: parser,
		interp: Interpolator{Lookup: os.LookupEnv},
		cache:  xsync.NewMapOf[string, *pom.Project](),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// SetLocator replaces the parent locator. It must not be called while
// resolutions are in flight.
func (r *Resolver) SetLocator(fn LocateFunc) {
	r.locate = fn
}

// Resolve returns the effective model of the POM at path.
//
// The parent chain is resolved first, then properties are merged and
// interpolated, then dependencies and plugins are resolved against the
// final property map. A parent chain that revisits a POM fails with
// *errors.CyclicParentError. A parent outside the workspace is not an
// error: the POM is resolved without it, ParentResolved is false and
// groupId and version come from the <parent> declaration.
func (r *Resolver) Resolve(ctx context.Context, path string) (*pom.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", path)
	}
	if p, ok := r.cache.Load(abs); ok {
		return p, nil
	}
	chain, err := r.ancestry(ctx, abs)
	if err != nil {
		return nil, err
	}
	var eff *pom.Project
	for i := len(chain) - 1; i >= 0; i-- {
		if eff, err = r.resolveOne(ctx, chain[i], eff); err != nil {
			return nil, err
		}
	}
	return eff, nil
}

// ResolveOrRaw resolves path and falls back to the raw model when
// resolution fails. The returned error describes the failure and is nil on
// success; the model is nil only when the file itself cannot be parsed.
func (r *Resolver) ResolveOrRaw(ctx context.Context, path string) (*pom.Project, error) {
	eff, err := r.Resolve(ctx, path)
	if err == nil {
		return eff, nil
	}
	raw, rawErr := r.parser.Parse(ctx, path)
	if rawErr != nil {
		return nil, rawErr
	}
	return raw, err
}

// ancestry returns abs followed by its workspace parents, nearest first.
// The walk stops at a POM without parent, at a parent that cannot be
// located, or at a POM whose effective model is already cached.
func (r *Resolver) ancestry(ctx context.Context, abs string) ([]string, error) {
	var chain []string
	for cur := abs; ; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if slices.Contains(chain, cur) {
			return nil, &errors.CyclicParentError{Chain: append(chain, cur)}
		}
		chain = append(chain, cur)
		if _, ok := r.cache.Load(cur); ok {
			return chain, nil
		}

		raw, err := r.parser.Parse(ctx, cur)
		if err != nil {
			if cur != abs {
				return nil, fmt.Errorf("resolve parent of %s: %w", chain[len(chain)-2], err)
			}
			return nil, err
		}
		if raw.Parent == nil {
			return chain, nil
		}
		ppath, ok := r.parentPath(ctx, raw)
		if !ok {
			r.logger.Debug("parent not in workspace, resolving without it",
				"pom", cur, "parent", raw.Parent.Coordinate(), "code", errors.ErrCodeParentNotFound)
			return chain, nil
		}
		cur = ppath
	}
}

// resolveOne merges the POM at abs onto its effective parent, which is nil
// for the top of a chain. Concurrent callers for the same path share one
// merge.
func (r *Resolver) resolveOne(ctx context.Context, abs string, parent *pom.Project) (*pom.Project, error) {
	if p, ok := r.cache.Load(abs); ok {
		return p, nil
	}
	v, err, _ := r.group.Do(abs, func() (any, error) {
		if p, ok := r.cache.Load(abs); ok {
			return p, nil
		}
		raw, err := r.parser.Parse(ctx, abs)
		if err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(abs, r.merge(raw, parent))
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pom.Project), nil
}

// parentPath finds the parent POM: relativePath first (default
// ../pom.xml, a directory gets pom.xml appended), then the locator.
// A file whose coordinate does not match the declaration is ignored.
func (r *Resolver) parentPath(ctx context.Context, raw *pom.Project) (string, bool) {
	ref := raw.Parent
	want := ref.Coordinate()

	rel := pom.DefaultParentRelative
	if ref.RelativePath != nil {
		rel = *ref.RelativePath
	}
	if rel != "" {
		candidate := filepath.Join(filepath.Dir(raw.Path), filepath.FromSlash(rel))
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			candidate = filepath.Join(candidate, "pom.xml")
		}
		if _, err := os.Stat(candidate); err == nil {
			p, err := r.parser.Parse(ctx, candidate)
			if err == nil && p.Coordinate() == want {
				return p.Path, true
			}
			if err == nil {
				r.logger.Debug("parent relativePath points elsewhere",
					"pom", raw.Path, "relativePath", rel, "found", p.Coordinate(), "want", want)
			}
		}
	}

	if r.locate != nil {
		if path, ok := r.locate(want); ok && path != raw.Path {
			return path, true
		}
	}
	return "", false
}

// merge builds the effective model of raw on top of its effective parent.
func (r *Resolver) merge(raw, parent *pom.Project) *pom.Project {
	props := make(map[string]string, len(builtinDefaults)+len(raw.Properties)+8)
	for k, v := range builtinDefaults {
		props[k] = v
	}
	if parent != nil {
		for k, v := range parent.Properties {
			props[k] = v
		}
	}
	for k, v := range raw.Properties {
		props[k] = v
	}

	groupID, version := raw.GroupID, raw.Version
	if groupID == "" {
		switch {
		case parent != nil:
			groupID = parent.GroupID
		case raw.Parent != nil:
			groupID = raw.Parent.GroupID
		}
	}
	if version == "" {
		switch {
		case parent != nil:
			version = parent.Version
		case raw.Parent != nil:
			version = raw.Parent.Version
		}
	}
	builtins := map[string]string{
		"groupId":    groupID,
		"artifactId": raw.ArtifactID,
		"version":    version,
		"packaging":  raw.PackagingOrDefault(),
		"basedir":    filepath.Dir(raw.Path),
	}
	if raw.Name != "" {
		builtins["name"] = raw.Name
	}
	if raw.Parent != nil {
		builtins["parent.groupId"] = raw.Parent.GroupID
		builtins["parent.artifactId"] = raw.Parent.ArtifactID
		builtins["parent.version"] = raw.Parent.Version
		if parent != nil {
			builtins["parent.version"] = parent.Version
		}
	}
	for k, v := range builtins {
		props["project."+k] = v
		props["pom."+k] = v
	}

	res := r.interp.Properties(props)
	if !res.Converged {
		r.logger.Warn("property interpolation did not converge, possible circular reference",
			"pom", raw.Path, "passes", res.Passes)
	}
	props = res.Properties
	expand := func(s string) string { return r.interp.Expand(s, props) }

	eff := &pom.Project{
		Path:           raw.Path,
		GroupID:        expand(groupID),
		ArtifactID:     expand(raw.ArtifactID),
		Version:        expand(version),
		Packaging:      expand(raw.PackagingOrDefault()),
		Name:           expand(raw.Name),
		Description:    raw.Description,
		Properties:     props,
		Effective:      true,
		ParentResolved: parent != nil,
	}
	if raw.Parent != nil {
		ref := *raw.Parent
		ref.GroupID, ref.ArtifactID, ref.Version = expand(ref.GroupID), expand(ref.ArtifactID), expand(ref.Version)
		if parent != nil {
			ref.Version = parent.Version
		}
		eff.Parent = &ref
	}

	if parent != nil {
		eff.DependencyManagement = append(eff.DependencyManagement, parent.DependencyManagement...)
		eff.Plugins = append(eff.Plugins, parent.Plugins...)
	}
	for _, d := range raw.DependencyManagement {
		d = r.expandDependency(d, expand)
		if !d.Coordinate().IsZero() {
			eff.DependencyManagement = append(eff.DependencyManagement, d)
		}
	}

	for _, d := range raw.Dependencies {
		d = r.expandDependency(d, expand)
		if d.Coordinate().IsZero() {
			r.logger.Debug("dropping dependency without coordinate", "pom", raw.Path)
			continue
		}
		if d.Version == "" {
			d.Version = managedVersion(eff.DependencyManagement, d.Coordinate())
		}
		eff.Dependencies = append(eff.Dependencies, d)
	}

	for _, p := range raw.Plugins {
		eff.Plugins = append(eff.Plugins, pom.Plugin{
			GroupID:    expand(p.GroupID),
			ArtifactID: expand(p.ArtifactID),
			Version:    expand(p.Version),
		})
	}

	for _, m := range raw.Modules {
		eff.Modules = append(eff.Modules, expand(m))
	}

	return eff
}

func (r *Resolver) expandDependency(d pom.Dependency, expand func(string) string) pom.Dependency {
	d.GroupID = expand(d.GroupID)
	d.ArtifactID = expand(d.ArtifactID)
	d.Version = expand(d.Version)
	d.Scope = expand(d.Scope)
	d.Type = expand(d.Type)
	if d.Scope == "" {
		d.Scope = pom.DefaultScope
	}
	if d.Type == "" {
		d.Type = pom.DefaultType
	}
	return d
}

// managedVersion returns the version of the last management entry for c,
// so child entries shadow inherited ones.
func managedVersion(managed []pom.Dependency, c pom.Coordinate) string {
	for i := len(managed) - 1; i >= 0; i-- {
		if managed[i].Coordinate() == c {
			return managed[i].Version
		}
	}
	return ""
}

// Cached returns the memoized effective model for path, if any.
func (r *Resolver) Cached(path string) (*pom.Project, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	return r.cache.Load(abs)
}

// Len returns the number of cached effective models.
func (r *Resolver) Len() int {
	return r.cache.Size()
}

// Reset clears the effective-model cache. The raw-model cache belongs to
// the parser and is reset separately.
func (r *Resolver) Reset() {
	r.cache.Clear()
}
