package modules

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/pom"
)

// Discover walks the <modules> graph starting at root/pom.xml and returns
// the absolute path of every reachable POM, root first, in depth-first
// declaration order.
//
// Each POM is visited once even when it is reachable through several module
// paths or through a symlink. Module entries that point at missing files
// or fail to parse are logged and skipped. Only a missing or unreadable
// root POM is an error.
func Discover(ctx context.Context, root string, parser *pom.Parser, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "absolute path of %s", root)
	}
	rootPOM := filepath.Join(abs, "pom.xml")
	if info, err := os.Stat(rootPOM); err != nil || info.IsDir() {
		return nil, errors.New(errors.ErrCodeIO, "no pom.xml in workspace root %s", abs)
	}

	w := &walker{parser: parser, logger: logger, visited: make(map[string]struct{})}
	if err := w.visit(ctx, rootPOM); err != nil {
		return nil, err
	}
	if len(w.order) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "workspace root %s could not be parsed", rootPOM)
	}
	return w.order, nil
}

type walker struct {
	parser  *pom.Parser
	logger  *log.Logger
	visited map[string]struct{}
	order   []string
}

func (w *walker) visit(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := Canonical(path)
	if _, seen := w.visited[key]; seen {
		return nil
	}
	w.visited[key] = struct{}{}

	proj, err := w.parser.Parse(ctx, path)
	if err != nil {
		w.logger.Warn("skipping module", "pom", path, "err", err)
		return nil
	}
	w.order = append(w.order, path)

	dir := filepath.Dir(path)
	for _, m := range proj.Modules {
		if err := errors.ValidateModulePath(m); err != nil {
			w.logger.Warn("invalid module entry", "pom", path, "module", m, "err", err)
			continue
		}
		child := ModulePOM(dir, m)
		if info, err := os.Stat(child); err != nil || info.IsDir() {
			w.logger.Debug("module pom not found", "pom", path, "module", m)
			continue
		}
		if err := w.visit(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// ModulePOM maps a <module> entry to its pom file. Entries naming an
// .xml file are used as is.
func ModulePOM(dir, module string) string {
	p := filepath.Join(dir, filepath.FromSlash(module))
	if strings.HasSuffix(strings.ToLower(module), ".xml") {
		return p
	}
	return filepath.Join(p, "pom.xml")
}

// Canonical resolves symlinks so aliases of one file share a visited key.
func Canonical(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return filepath.Clean(path)
}
