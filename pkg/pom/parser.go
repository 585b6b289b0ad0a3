package pom

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// Parser decodes pom.xml files into raw [Project] models.
//
// Results are memoized by absolute path: a second Parse of the same file
// returns the cached pointer without touching the disk. Concurrent callers
// for an uncached path share a single read. Failed parses are not cached.
//
// The zero value is not usable; create parsers with [NewParser].
type Parser struct {
	cache *xsync.MapOf[string, *Project]
	group singleflight.Group
	reads func(string) ([]byte, error)
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{
		cache: xsync.NewMapOf[string, *Project](),
		reads: os.ReadFile,
	}
}

// Parse returns the raw model of the POM at path.
//
// Errors are *errors.ParseError for malformed XML or a non-<project> root
// and IO_ERROR for unreadable files. Both are per-file failures that the
// caller is expected to log and skip.
func (p *Parser) Parse(ctx context.Context, path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", path)
	}
	if proj, ok := p.cache.Load(abs); ok {
		return proj, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := p.group.Do(abs, func() (any, error) {
		if proj, ok := p.cache.Load(abs); ok {
			return proj, nil
		}
		proj, err := p.parseFile(ctx, abs)
		if err != nil {
			return nil, err
		}
		p.cache.Store(abs, proj)
		return proj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Project), nil
}

func (p *Parser) parseFile(ctx context.Context, abs string) (*Project, error) {
	start := time.Now()
	observability.Analysis().OnParseStart(ctx, abs)

	data, err := p.reads(abs)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeIO, err, "read %s", abs)
		observability.Analysis().OnParseComplete(ctx, abs, time.Since(start), err)
		return nil, err
	}

	proj, err := Decode(abs, data)
	observability.Analysis().OnParseComplete(ctx, abs, time.Since(start), err)
	return proj, err
}

// Decode parses POM bytes. path is recorded on the result and in errors.
func Decode(path string, data []byte) (*Project, error) {
	var x pomProject
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, &errors.ParseError{Path: path, Reason: "malformed XML", Cause: err}
	}
	if x.XMLName.Local != "project" {
		return nil, &errors.ParseError{Path: path, Reason: "missing <project> root element, found <" + x.XMLName.Local + ">"}
	}
	return x.toProject(path), nil
}

// Cached returns the memoized model for path, if any.
func (p *Parser) Cached(path string) (*Project, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	return p.cache.Load(abs)
}

// Len returns the number of cached models.
func (p *Parser) Len() int {
	return p.cache.Size()
}

// Reset clears the cache.
func (p *Parser) Reset() {
	p.cache.Clear()
}
