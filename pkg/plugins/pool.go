package plugins

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"
	"github.com/mitchellh/go-homedir"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

const (
	DefaultConcurrency = 6
	DefaultTimeout     = 15 * time.Second
	DefaultGrace       = 2 * time.Second
	DefaultCommand     = "mvn"
	daemonCommand      = "mvnd"
)

// mavenOpts keeps the short-lived help:describe JVM small and fast to start.
const mavenOpts = "-Xmx128m -XX:+UseParallelGC -XX:+TieredCompilation -XX:TieredStopAtLevel=1 -Djava.awt.headless=true -Dfile.encoding=UTF-8"

// Options configures a [Pool].
type Options struct {
	// Concurrency caps live subprocesses.
	Concurrency int
	// Timeout bounds one help:describe invocation.
	Timeout time.Duration
	// Grace is the delay between SIGTERM and SIGKILL.
	Grace time.Duration
	// Command is the Maven executable, optionally with leading arguments.
	// When empty, mvnd is used if it is on PATH, mvn otherwise.
	Command string
	// Table holds plugins answered without spawning Maven.
	Table *Table
	// Grammar parses the describe output.
	Grammar *Grammar
	// Runner starts subprocesses. Defaults to [ExecRunner].
	Runner Runner
	Logger *log.Logger
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Grace <= 0 {
		o.Grace = DefaultGrace
	}
	if o.Table == nil {
		o.Table = DefaultTable()
	}
	if o.Grammar == nil {
		o.Grammar = DefaultGrammar()
	}
	if o.Runner == nil {
		o.Runner = ExecRunner{Grace: o.Grace}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Pool discovers plugin goals by running `mvn help:describe`, with at most
// Concurrency processes alive at once. Waiting requests are served in
// arrival order. Successful results are cached; failures are not, so a
// later call retries.
//
// The owner must call Close, which stops every live process.
type Pool struct {
	opts   Options
	logger *log.Logger
	sem    *semaphore.Weighted
	group  singleflight.Group
	cache  *xsync.MapOf[string, *Descriptor]

	base   context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed atomic.Bool

	live    atomic.Int64
	spawned atomic.Int64

	cmdOnce  sync.Once
	argv     []string
	lookPath func(string) (string, error)
}

// NewPool returns a pool configured by opts.
func NewPool(opts Options) *Pool {
	opts = opts.WithDefaults()
	base, cancel := context.WithCancel(context.Background())
	return &Pool{
		opts:     opts,
		logger:   opts.Logger,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		cache:    xsync.NewMapOf[string, *Descriptor](),
		base:     base,
		cancel:   cancel,
		lookPath: exec.LookPath,
	}
}

// Discover returns the goals of the plugin at coord ("groupId:artifactId").
//
// Known plugins are answered from the table without spawning. Skipped
// plugins, failed invocations and empty listings return nil with no error.
// Errors are returned only for an invalid coordinate, a closed pool or a
// cancelled ctx. Cancelling ctx abandons the wait; an invocation shared
// with other callers keeps running for them.
func (p *Pool) Discover(ctx context.Context, coord, projectRoot string) (*Descriptor, error) {
	if err := errors.ValidatePluginCoordinate(coord); err != nil {
		return nil, err
	}
	key := pluginKey(coord)
	if d, ok := p.opts.Table.Lookup(key); ok {
		return d, nil
	}
	if Skipped(key) {
		return nil, nil
	}
	if p.closed.Load() {
		return nil, errors.New(errors.ErrCodePoolClosed, "discovery pool is closed")
	}
	if d, ok := p.cache.Load(key); ok {
		observability.Cache().OnCacheHit(ctx, key)
		return d, nil
	}
	observability.Cache().OnCacheMiss(ctx, key)

	ch := p.group.DoChan(key, func() (any, error) {
		if d, ok := p.cache.Load(key); ok {
			return d, nil
		}
		d, err := p.run(context.WithoutCancel(ctx), key, projectRoot)
		if err != nil || d == nil {
			return d, err
		}
		p.cache.Store(key, d)
		observability.Cache().OnCacheSet(ctx, key, len(d.Goals))
		return d, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		d, _ := res.Val.(*Descriptor)
		return d, nil
	}
}

// DiscoverAll discovers every coordinate concurrently and returns the
// descriptors found, keyed by "groupId:artifactId".
func (p *Pool) DiscoverAll(ctx context.Context, coords []string, projectRoot string) (map[string]*Descriptor, error) {
	var mu sync.Mutex
	out := make(map[string]*Descriptor, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range coords {
		g.Go(func() error {
			d, err := p.Discover(gctx, c, projectRoot)
			if err != nil {
				if errors.Is(err, errors.ErrCodeInvalidInput) {
					p.logger.Warn("skipping plugin", "plugin", c, "err", err)
					return nil
				}
				return err
			}
			if d != nil {
				mu.Lock()
				out[d.Key()] = d
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	return out, err
}

// run performs one help:describe invocation. It is shared by every caller
// waiting on key, so ctx carries values only: the process is bounded by the
// timeout and by Close, not by any one caller.
func (p *Pool) run(ctx context.Context, key, projectRoot string) (*Descriptor, error) {
	if !p.enter() {
		return nil, errors.New(errors.ErrCodePoolClosed, "discovery pool is closed")
	}
	defer p.wg.Done()

	if err := p.sem.Acquire(p.base, 1); err != nil {
		return nil, errors.New(errors.ErrCodePoolClosed, "discovery pool is closed")
	}
	defer p.sem.Release(1)

	runCtx, cancel := context.WithTimeout(p.base, p.opts.Timeout)
	defer cancel()

	argv := p.command()
	cmd := Command{
		Path: argv[0],
		Args: append(append([]string{}, argv[1:]...), describeArgs(key)...),
		Dir:  projectRoot,
		Env:  append(os.Environ(), "MAVEN_OPTS="+mavenOpts),
	}

	p.spawned.Add(1)
	p.live.Add(1)
	observability.Discovery().OnSpawn(ctx, key)
	p.logger.Debug("discovering plugin goals", "plugin", key, "command", cmd.Path)
	start := time.Now()
	res, err := p.opts.Runner.Run(runCtx, cmd)
	p.live.Add(-1)
	elapsed := time.Since(start)

	switch {
	case p.closed.Load():
		err := errors.New(errors.ErrCodePoolClosed, "discovery of %s interrupted by pool shutdown", key)
		observability.Discovery().OnExit(ctx, key, 0, elapsed, err)
		return nil, err
	case runCtx.Err() == context.DeadlineExceeded:
		err := errors.New(errors.ErrCodeDiscoveryTimeout, "help:describe for %s timed out after %s", key, p.opts.Timeout)
		p.logger.Warn("plugin discovery timed out", "plugin", key, "timeout", p.opts.Timeout)
		observability.Discovery().OnExit(ctx, key, 0, elapsed, err)
		return nil, nil
	case err != nil:
		err = errors.Wrap(errors.ErrCodeDiscovery, err, "run help:describe for %s", key)
		p.logger.Warn("plugin discovery failed", "plugin", key, "err", err)
		observability.Discovery().OnExit(ctx, key, 0, elapsed, err)
		return nil, nil
	case res.ExitCode != 0:
		err := errors.New(errors.ErrCodeDiscovery, "help:describe for %s exited with code %d", key, res.ExitCode)
		p.logger.Warn("plugin discovery failed", "plugin", key, "exit", res.ExitCode, "stderr", strings.TrimSpace(string(res.Stderr)))
		observability.Discovery().OnExit(ctx, key, 0, elapsed, err)
		return nil, nil
	}

	goals := p.opts.Grammar.Parse(string(res.Stdout))
	observability.Discovery().OnExit(ctx, key, len(goals), elapsed, nil)
	if len(goals) == 0 {
		p.logger.Debug("no goals parsed", "plugin", key, "duration", elapsed)
		return nil, nil
	}
	p.logger.Debug("discovered plugin goals", "plugin", key, "goals", len(goals), "duration", elapsed)

	group, artifact, _ := strings.Cut(key, ":")
	return &Descriptor{
		GroupID:    group,
		ArtifactID: artifact,
		Version:    "unknown",
		Goals:      goals,
		Source:     SourceDiscovered,
	}, nil
}

// enter registers a running discovery unless the pool is closed.
func (p *Pool) enter() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return false
	}
	p.wg.Add(1)
	return true
}

// command resolves the Maven argv once per pool.
func (p *Pool) command() []string {
	p.cmdOnce.Do(func() {
		if p.opts.Command != "" {
			argv, err := shlex.Split(p.opts.Command)
			if err == nil && len(argv) > 0 {
				p.argv = argv
				return
			}
			p.logger.Warn("invalid maven command, using default", "command", p.opts.Command, "err", err)
		}
		if path, err := p.lookPath(daemonCommand); err == nil {
			p.logger.Debug("using maven daemon", "path", path)
			p.argv = []string{daemonCommand}
			return
		}
		p.argv = []string{DefaultCommand}
	})
	return p.argv
}

func describeArgs(key string) []string {
	args := []string{
		"help:describe",
		"-Dplugin=" + key,
		"-Ddetail=false",
		"-q", "-o", "-B",
		"--no-transfer-progress",
	}
	if home, err := homedir.Dir(); err == nil {
		args = append(args, "-Dmaven.repo.local="+filepath.Join(home, ".m2", "repository"))
	}
	return args
}

// pluginKey drops a version from "g:a:v".
func pluginKey(coord string) string {
	parts := strings.SplitN(coord, ":", 3)
	return parts[0] + ":" + parts[1]
}

// Cached returns the cached descriptor for key.
func (p *Pool) Cached(key string) (*Descriptor, bool) { return p.cache.Load(key) }

// Len returns the number of cached descriptors.
func (p *Pool) Len() int { return p.cache.Size() }

// Reset clears the discovery cache.
func (p *Pool) Reset() { p.cache.Clear() }

// Live returns the number of subprocesses currently running.
func (p *Pool) Live() int { return int(p.live.Load()) }

// Spawned returns the number of subprocesses started so far.
func (p *Pool) Spawned() int { return int(p.spawned.Load()) }

// Close stops every live subprocess, waits for them to exit and rejects
// further discovery. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return nil
	}
	p.closed.Store(true)
	p.mu.Unlock()

	if n := p.Live(); n > 0 {
		p.logger.Debug("stopping plugin discovery processes", "live", n)
	}
	p.cancel()
	p.wg.Wait()
	return nil
}
