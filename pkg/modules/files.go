package modules

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/matzehuels/pomgraph/pkg/errors"
)

// DefaultExcludes are gitignore-style patterns for POMs that are never
// real reactor members: test fixtures, archetype templates and build output.
var DefaultExcludes = []string{
	"src/test/resources/",
	"test/resources/",
	"maven-archetype/",
	"archetype-resources/",
	"resources-filtered/",
	"templates/",
	"target/",
	"node_modules/",
	".git/",
}

// Excluder matches workspace-relative paths against exclude patterns.
type Excluder struct {
	gi *ignore.GitIgnore
}

// NewExcluder compiles DefaultExcludes plus extra patterns.
func NewExcluder(extra ...string) *Excluder {
	lines := append(slices.Clone(DefaultExcludes), extra...)
	return &Excluder{gi: ignore.CompileIgnoreLines(lines...)}
}

// Excluded reports whether rel (relative to the workspace root) is excluded.
func (e *Excluder) Excluded(rel string) bool {
	if e == nil || e.gi == nil {
		return false
	}
	return e.gi.MatchesPath(filepath.ToSlash(rel))
}

// Glob returns every pom.xml under root that is not excluded, sorted.
// Unlike Discover it can pick up orphaned POMs that no aggregator lists.
func Glob(root string, ex *Excluder) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", root)
	}
	matches, err := zglob.Glob(filepath.Join(abs, "**", "pom.xml"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "glob pom.xml under %s", abs)
	}

	var out []string
	for _, m := range matches {
		rel, err := filepath.Rel(abs, m)
		if err != nil || ex.Excluded(rel) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// CandidateFiles returns every pom.xml and every regular file below a
// src/test directory under root, skipping excluded paths. The result is
// the input CreateNodes expects from an orchestrator glob.
func CandidateFiles(root string, ex *Excluder) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", root)
	}
	poms, err := Glob(abs, ex)
	if err != nil {
		return nil, err
	}
	tests, err := zglob.Glob(filepath.Join(abs, "**", "src", "test", "**", "*"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "glob test files under %s", abs)
	}

	out := poms
	for _, m := range tests {
		rel, err := filepath.Rel(abs, m)
		if err != nil || ex.Excluded(rel) {
			continue
		}
		if info, err := os.Stat(m); err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// SplitConfigFiles separates candidate files into project POMs and test
// sources. POMs under excluded directories are dropped; test files are
// those below a src/test directory.
func SplitConfigFiles(root string, files []string, ex *Excluder) (poms, tests []string) {
	for _, f := range files {
		slashed := filepath.ToSlash(f)
		if strings.Contains(slashed, "/src/test/") || strings.HasPrefix(slashed, "src/test/") {
			tests = append(tests, f)
		}
		if filepath.Base(f) != "pom.xml" {
			continue
		}
		rel := f
		if filepath.IsAbs(f) {
			if r, err := filepath.Rel(root, f); err == nil {
				rel = r
			}
		}
		if ex.Excluded(rel) {
			continue
		}
		poms = append(poms, f)
	}
	return poms, tests
}

// TestFilesByRoot assigns each test file to the deepest project root that
// contains it. Every root gets an entry, possibly empty.
func TestFilesByRoot(tests, roots []string) map[string][]string {
	byDepth := slices.Clone(roots)
	sort.Slice(byDepth, func(i, j int) bool { return len(byDepth[i]) > len(byDepth[j]) })

	out := make(map[string][]string, len(roots))
	for _, r := range roots {
		out[r] = nil
	}
	for _, f := range tests {
		for _, r := range byDepth {
			if within(r, f) {
				out[r] = append(out[r], f)
				break
			}
		}
	}
	return out
}

func within(root, path string) bool {
	if root == "" || root == "." {
		return !filepath.IsAbs(path)
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
