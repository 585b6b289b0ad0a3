package graph

import (
	"slices"
	"sort"

	"github.com/matzehuels/pomgraph/pkg/modules"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

// IndexEntry is the index value for one coordinate. It is either
// Unique (exactly one POM declares the coordinate) or Ambiguous (several do).
// An ambiguous entry never resolves to a project.
type IndexEntry struct {
	paths []string
}

// Unique returns the single path and true, or "" and false when the
// coordinate is ambiguous.
func (e IndexEntry) Unique() (string, bool) {
	if len(e.paths) == 1 {
		return e.paths[0], true
	}
	return "", false
}

// Ambiguous reports whether several POMs declare the coordinate.
func (e IndexEntry) Ambiguous() bool { return len(e.paths) > 1 }

// Paths returns every declaring POM, sorted.
func (e IndexEntry) Paths() []string { return slices.Clone(e.paths) }

// Index maps coordinates and paths to workspace projects.
// It is built in a single pass over the projects.
type Index struct {
	byCoord map[pom.Coordinate]IndexEntry
	byPath  map[string]*pom.Project
}

// NewIndex indexes projects by coordinate and by path. Projects without a
// complete coordinate are indexed by path only.
func NewIndex(projects []*pom.Project) *Index {
	idx := &Index{
		byCoord: make(map[pom.Coordinate]IndexEntry, len(projects)),
		byPath:  make(map[string]*pom.Project, len(projects)),
	}
	for _, p := range projects {
		idx.byPath[p.Path] = p
		if c := modules.Canonical(p.Path); c != p.Path {
			idx.byPath[c] = p
		}
		coord := p.Coordinate()
		if coord.IsZero() {
			continue
		}
		e := idx.byCoord[coord]
		if !slices.Contains(e.paths, p.Path) {
			e.paths = append(e.paths, p.Path)
			sort.Strings(e.paths)
		}
		idx.byCoord[coord] = e
	}
	return idx
}

// Lookup returns the entry for c.
func (idx *Index) Lookup(c pom.Coordinate) (IndexEntry, bool) {
	e, ok := idx.byCoord[c]
	return e, ok
}

// Project returns the project declaring c if exactly one does.
func (idx *Index) Project(c pom.Coordinate) (*pom.Project, bool) {
	e, ok := idx.byCoord[c]
	if !ok {
		return nil, false
	}
	path, ok := e.Unique()
	if !ok {
		return nil, false
	}
	return idx.byPath[path], true
}

// ByPath returns the project at path, following symlinks if needed.
func (idx *Index) ByPath(path string) (*pom.Project, bool) {
	if p, ok := idx.byPath[path]; ok {
		return p, true
	}
	p, ok := idx.byPath[modules.Canonical(path)]
	return p, ok
}

// Locate implements a parent locator for the resolver: it returns the path
// of the unique project declaring c.
func (idx *Index) Locate(c pom.Coordinate) (string, bool) {
	e, ok := idx.byCoord[c]
	if !ok {
		return "", false
	}
	return e.Unique()
}

// Len returns the number of indexed coordinates.
func (idx *Index) Len() int { return len(idx.byCoord) }

// Ambiguity describes a coordinate declared by several POMs.
type Ambiguity struct {
	Coordinate pom.Coordinate `json:"coordinate"`
	Paths      []string       `json:"paths"`
}

// Ambiguities returns every ambiguous coordinate, sorted by coordinate.
func (idx *Index) Ambiguities() []Ambiguity {
	var out []Ambiguity
	for c, e := range idx.byCoord {
		if e.Ambiguous() {
			out = append(out, Ambiguity{Coordinate: c, Paths: e.Paths()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coordinate.String() < out[j].Coordinate.String() })
	return out
}
