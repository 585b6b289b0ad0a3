package graph

import "github.com/charmbracelet/log"

// Registry is the consumer's live view of known projects.
type Registry interface {
	Has(name string) bool
}

// NameSet is a Registry backed by a set of project names.
type NameSet map[string]struct{}

// NewNameSet returns a NameSet holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Validate splits edges into those whose source and target are both known
// to reg and those that are not. Dropped edges are logged; they are never
// created implicitly.
func Validate(edges []Edge, reg Registry, logger *log.Logger) (kept, dropped []Edge) {
	if logger == nil {
		logger = log.Default()
	}
	for _, e := range edges {
		switch {
		case !reg.Has(e.Source):
			logger.Warn("dropping edge from unknown project", "source", e.Source, "target", e.Target)
			dropped = append(dropped, e)
		case !reg.Has(e.Target):
			logger.Warn("dropping edge to unknown project", "source", e.Source, "target", e.Target)
			dropped = append(dropped, e)
		default:
			kept = append(kept, e)
		}
	}
	return kept, dropped
}

// Validate removes edges whose endpoints reg does not know and returns them.
func (g *Graph) Validate(reg Registry, logger *log.Logger) []Edge {
	kept, dropped := Validate(g.Edges, reg, logger)
	g.Edges = kept
	return dropped
}
