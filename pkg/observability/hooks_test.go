package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Analysis hooks
	a := NoopAnalysisHooks{}
	a.OnParseStart(ctx, "/w/pom.xml")
	a.OnParseComplete(ctx, "/w/pom.xml", time.Millisecond, nil)
	a.OnBatchComplete(ctx, 0, 100, 2, time.Second)
	a.OnAnalysisComplete(ctx, "run-1", 12, 30, time.Second, nil)

	// Discovery hooks
	d := NoopDiscoveryHooks{}
	d.OnSpawn(ctx, "org.example:demo-maven-plugin")
	d.OnExit(ctx, "org.example:demo-maven-plugin", 0, time.Second, errors.New("exit status 1"))

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "targets")
	c.OnCacheMiss(ctx, "targets")
	c.OnCacheSet(ctx, "targets", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Analysis() should return NoopAnalysisHooks by default")
	}
	if _, ok := Discovery().(NoopDiscoveryHooks); !ok {
		t.Error("Discovery() should return NoopDiscoveryHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customAnalysis := &testAnalysisHooks{}
	SetAnalysisHooks(customAnalysis)
	if Analysis() != customAnalysis {
		t.Error("SetAnalysisHooks should set custom hooks")
	}

	customDiscovery := &testDiscoveryHooks{}
	SetDiscoveryHooks(customDiscovery)
	if Discovery() != customDiscovery {
		t.Error("SetDiscoveryHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Reset() should restore NoopAnalysisHooks")
	}
	if _, ok := Discovery().(NoopDiscoveryHooks); !ok {
		t.Error("Reset() should restore NoopDiscoveryHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testDiscoveryHooks{}
	SetDiscoveryHooks(custom)

	SetDiscoveryHooks(nil)

	if Discovery() != custom {
		t.Error("SetDiscoveryHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testAnalysisHooks struct{ NoopAnalysisHooks }
type testDiscoveryHooks struct{ NoopDiscoveryHooks }
type testCacheHooks struct{ NoopCacheHooks }
