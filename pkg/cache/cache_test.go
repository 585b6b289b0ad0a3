package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte(`"value"`), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("hit on empty cache")
	}

	if err := c.Set(ctx, "k", []byte(`{"goals":["a"]}`), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != `{"goals":["a"]}` {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte(`1`), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, hit, err := c.Get(ctx, "k")
	if err != nil || hit {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("Hash length should be 64, got %d", n)
	}

	a := HashObject(map[string]int{"x": 1, "y": 2})
	b := HashObject(map[string]int{"y": 2, "x": 1})
	if a != b {
		t.Error("HashObject depends on map order")
	}
}

func TestKeys(t *testing.T) {
	if PluginKey("g:a", "mvn") == PluginKey("g:a", "mvnd") {
		t.Error("PluginKey ignores the command")
	}
	if !strings.HasPrefix(PluginKey("g:a", "mvn"), "plugin:") {
		t.Errorf("PluginKey = %q", PluginKey("g:a", "mvn"))
	}
	k1 := ProjectKey([]byte("<project/>"), []string{"src/test/A.java"})
	k2 := ProjectKey([]byte("<project/>"), nil)
	if k1 == k2 {
		t.Error("ProjectKey ignores test files")
	}
}

type descriptor struct {
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

func TestTargetsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := log.New(&bytes.Buffer{})

	c := OpenTargets(dir, "abc", logger)
	if c.Len() != 0 {
		t.Fatalf("new cache has %d entries", c.Len())
	}
	if filepath.Base(c.Path()) != "maven-abc.json" {
		t.Errorf("path = %s", c.Path())
	}
	if err := c.Put("p1", descriptor{Name: "g.a", Targets: []string{"compile"}}); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx); err != nil {
		t.Fatal(err)
	}

	reopened := OpenTargets(dir, "abc", logger)
	var got descriptor
	if !reopened.Get("p1", &got) {
		t.Fatal("entry lost after reopen")
	}
	if got.Name != "g.a" || len(got.Targets) != 1 {
		t.Errorf("got %+v", got)
	}

	other := OpenTargets(dir, "def", logger)
	if other.Len() != 0 {
		t.Error("different options hash shares entries")
	}
}

func TestTargetsCacheCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TargetsFileName("h")), []byte("[broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	c := OpenTargets(dir, "h", log.New(&logs))
	if c.Len() != 0 {
		t.Errorf("corrupt cache has %d entries", c.Len())
	}
	if !strings.Contains(logs.String(), "corrupt") {
		t.Errorf("corruption not logged: %s", logs.String())
	}
	var d descriptor
	if c.Get("anything", &d) {
		t.Error("hit on corrupt cache")
	}
}

func TestTargetsCacheRetainAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := OpenTargets(dir, "h", log.New(&bytes.Buffer{}))
	_ = c.Put("keep", descriptor{Name: "a"})
	_ = c.Put("drop", descriptor{Name: "b"})
	c.Retain(map[string]bool{"keep": true})
	if c.Len() != 1 {
		t.Errorf("Len after Retain = %d", c.Len())
	}
	if err := c.Save(ctx); err != nil {
		t.Fatal(err)
	}

	n, err := ClearTargets(dir)
	if err != nil || n != 1 {
		t.Errorf("ClearTargets = %d, %v", n, err)
	}
	if _, err := os.Stat(c.Path()); !os.IsNotExist(err) {
		t.Error("cache file not removed")
	}
}

func TestTargetsCacheSaveWithoutChanges(t *testing.T) {
	dir := t.TempDir()
	c := OpenTargets(dir, "h", log.New(&bytes.Buffer{}))
	if err := c.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(c.Path()); !os.IsNotExist(err) {
		t.Error("unchanged cache was written")
	}
}
