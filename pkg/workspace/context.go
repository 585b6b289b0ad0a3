package workspace

import (
	"sync"

	"github.com/matzehuels/pomgraph/pkg/graph"
	"github.com/matzehuels/pomgraph/pkg/plugins"
	"github.com/matzehuels/pomgraph/pkg/pom"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

// Context owns every cache used by one analysis lifetime: raw POMs,
// effective POMs, the coordinate index and discovered plugin goals.
// Two Contexts never share state.
type Context struct {
	Parser   *pom.Parser
	Resolver *resolve.Resolver
	Pool     *plugins.Pool

	mu    sync.RWMutex
	index *graph.Index
}

// NewContext returns an empty context. The resolver's parent search reads
// the context's current index.
func NewContext(pool *plugins.Pool, opts ...resolve.Option) *Context {
	c := &Context{Parser: pom.NewParser(), Pool: pool}
	c.Resolver = resolve.New(c.Parser, append(opts, resolve.WithLocator(c.locate))...)
	return c
}

// Index returns the coordinate index of the last analysis, or nil.
func (c *Context) Index() *graph.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// SetIndex replaces the coordinate index used for parent lookup.
func (c *Context) SetIndex(idx *graph.Index) {
	c.mu.Lock()
	c.index = idx
	c.mu.Unlock()
}

func (c *Context) locate(coord pom.Coordinate) (string, bool) {
	idx := c.Index()
	if idx == nil {
		return "", false
	}
	return idx.Locate(coord)
}

// Reset clears every cache. Live discovery processes are not affected.
func (c *Context) Reset() {
	c.Parser.Reset()
	c.Resolver.Reset()
	if c.Pool != nil {
		c.Pool.Reset()
	}
	c.SetIndex(nil)
}

// Close stops the discovery pool.
func (c *Context) Close() error {
	if c.Pool == nil {
		return nil
	}
	return c.Pool.Close()
}
