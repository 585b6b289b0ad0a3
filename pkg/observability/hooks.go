// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about POM analysis, cache operations, and the plugin
// discovery subprocesses.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the analysis packages
// stay free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAnalysisHooks(&myAnalysisHooks{})
//	    observability.SetDiscoveryHooks(&myDiscoveryHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Analysis().OnParseStart(ctx, path)
//	// ... parse pom.xml ...
//	observability.Analysis().OnParseComplete(ctx, path, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from POM parsing and workspace analysis.
type AnalysisHooks interface {
	// Per-file events
	OnParseStart(ctx context.Context, path string)
	OnParseComplete(ctx context.Context, path string, duration time.Duration, err error)

	// Batch events
	OnBatchComplete(ctx context.Context, index, size, failed int, duration time.Duration)

	// Run events
	OnAnalysisComplete(ctx context.Context, runID string, projects, edges int, duration time.Duration, err error)
}

// =============================================================================
// Discovery Hooks
// =============================================================================

// DiscoveryHooks receives events from the plugin goal discovery pool.
// OnSpawn and OnExit are called exactly once per subprocess, so
// spawn-minus-exit is the number of live children.
type DiscoveryHooks interface {
	// OnSpawn records a started help:describe subprocess.
	OnSpawn(ctx context.Context, plugin string)

	// OnExit records a finished subprocess and the number of goals parsed.
	OnExit(ctx context.Context, plugin string, goals int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnParseStart(context.Context, string)                               {}
func (NoopAnalysisHooks) OnParseComplete(context.Context, string, time.Duration, error)      {}
func (NoopAnalysisHooks) OnBatchComplete(context.Context, int, int, int, time.Duration)      {}
func (NoopAnalysisHooks) OnAnalysisComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopDiscoveryHooks is a no-op implementation of DiscoveryHooks.
type NoopDiscoveryHooks struct{}

func (NoopDiscoveryHooks) OnSpawn(context.Context, string)                            {}
func (NoopDiscoveryHooks) OnExit(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analysisHooks  AnalysisHooks  = NoopAnalysisHooks{}
	discoveryHooks DiscoveryHooks = NoopDiscoveryHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetAnalysisHooks registers custom analysis hooks.
// This should be called once at application startup before any analysis runs.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// SetDiscoveryHooks registers custom discovery hooks.
func SetDiscoveryHooks(h DiscoveryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		discoveryHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Discovery returns the registered discovery hooks.
func Discovery() DiscoveryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return discoveryHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analysisHooks = NoopAnalysisHooks{}
	discoveryHooks = NoopDiscoveryHooks{}
	cacheHooks = NoopCacheHooks{}
}
