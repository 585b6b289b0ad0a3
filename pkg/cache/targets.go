package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/matzehuels/pomgraph/pkg/errors"
)

// lockRetry is the polling interval while waiting for the file lock.
const lockRetry = 50 * time.Millisecond

// TargetsFileName returns the name of the targets cache file for an
// options hash.
func TargetsFileName(optionsHash string) string {
	return "maven-" + optionsHash + ".json"
}

// TargetsCache is the per-run cache of synthesized project descriptors,
// persisted as a single JSON object in maven-<optionsHash>.json.
//
// It is read once at the start of a run and written once at the end. A
// missing or corrupt file is an empty cache, never an error.
type TargetsCache struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	entries map[string]json.RawMessage
	dirty   bool
}

// OpenTargets loads the targets cache for optionsHash from dir.
func OpenTargets(dir, optionsHash string, logger *log.Logger) *TargetsCache {
	if logger == nil {
		logger = log.Default()
	}
	c := &TargetsCache{
		path:    filepath.Join(dir, TargetsFileName(optionsHash)),
		logger:  logger,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(c.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		logger.Warn("targets cache unreadable, starting empty", "path", c.path, "err", err)
	default:
		if err := json.Unmarshal(data, &c.entries); err != nil {
			logger.Warn("targets cache corrupt, starting empty", "path", c.path, "err", err)
			c.entries = make(map[string]json.RawMessage)
		}
	}
	return c
}

// Path returns the cache file path.
func (c *TargetsCache) Path() string { return c.path }

// Get decodes the entry for key into v and reports whether it was present
// and decodable.
func (c *TargetsCache) Get(key string, v any) bool {
	c.mu.Lock()
	raw, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Debug("dropping undecodable targets cache entry", "key", key, "err", err)
		c.mu.Lock()
		delete(c.entries, key)
		c.dirty = true
		c.mu.Unlock()
		return false
	}
	return true
}

// Put stores v under key.
func (c *TargetsCache) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "encode targets cache entry")
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.dirty = true
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (c *TargetsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Retain drops every entry whose key is not in keep, so projects removed
// from the workspace do not accumulate.
func (c *TargetsCache) Retain(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if !keep[k] {
			delete(c.entries, k)
			c.dirty = true
		}
	}
}

// Save writes the cache if it changed. The write holds an exclusive file
// lock so concurrent runs do not interleave and replaces the file
// atomically.
func (c *TargetsCache) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "encode targets cache")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "create cache dir")
	}

	lock := flock.New(c.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "lock %s", c.path)
	}
	if !locked {
		return errors.New(errors.ErrCodeCache, "could not lock %s", c.path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release targets cache lock", "path", c.path, "err", err)
		}
	}()

	if err := writeFileAtomic(c.path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "write %s", c.path)
	}
	c.dirty = false
	c.logger.Debug("saved targets cache", "path", c.path, "entries", len(c.entries))
	return nil
}

// ClearTargets removes every targets cache file in dir and returns how many were
// removed.
func ClearTargets(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "maven-*.json"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return n, errors.Wrap(errors.ErrCodeCache, err, "remove %s", m)
		}
		n++
		_ = os.Remove(m + ".lock")
	}
	return n, nil
}
